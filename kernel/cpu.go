package main

// Per-hart state. One Cpu struct per physical hart, indexed by hart id.
//
// noff/intena implement push_off/pop_off: the nesting depth of spinlocks
// held on this hart and whether interrupts were enabled before the
// outermost acquire. Ground: original_source/src/cpu.rs Cpu/push_off/pop_off.
type cpu struct {
	proc   *kproc  // the process running on this hart, or nil
	sched  Context // scheduler's own context, switched to by swtch
	noff   int     // depth of push_off nesting
	intena bool    // were interrupts enabled before the outermost push_off?
}

var cpus [NCPU]cpu

// cpuid must be called with interrupts disabled, to prevent the hart from
// being rescheduled between reading tp and using the result.
func cpuid() int {
	return int(r_tp())
}

// mycpu returns this hart's cpu struct. Interrupts must be disabled.
func mycpu() *cpu {
	return &cpus[cpuid()]
}

// myproc returns the process running on this hart, or nil.
func myproc() *kproc {
	push_off()
	c := mycpu()
	p := c.proc
	pop_off()
	return p
}

// push_off/pop_off are like intr_off/intr_on but nest: the outer pair
// remembers the pre-existing interrupt state so inner acquire/release
// pairs don't re-enable interrupts early.
func push_off() {
	old := intr_get()
	intr_off()
	c := &cpus[rawCpuid()]
	if c.noff == 0 {
		c.intena = old
	}
	c.noff++
}

func pop_off() {
	c := &cpus[rawCpuid()]
	if intr_get() {
		panic("pop_off: interruptible")
	}
	if c.noff < 1 {
		panic("pop_off")
	}
	c.noff--
	if c.noff == 0 && c.intena {
		intr_on()
	}
}

// rawCpuid reads tp directly, without going through the push_off/pop_off
// accounting that cpuid()'s callers rely on — used only by push_off/pop_off
// themselves, which are establishing that accounting.
func rawCpuid() int {
	return int(r_tp())
}
