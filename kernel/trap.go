package main

import "unsafe"

// trap.go dispatches every U<->S transition: device interrupts,
// syscalls (ecall from user), and lazily-resolved page faults, plus the
// plain kernel-mode traps that land while running with interrupts
// enabled on some other hart's behalf. Ground: original_source/src/
// trap.rs's init_hart/kerneltrap/usertrap/handle_trap/clock_intr/
// user_trap_ret.

//go:linkname trapinithart trapinithart
func trapinithart()

// uservec_addr and userret_addr are the trampoline-page addresses of
// the assembly entry/exit stubs, emitted by the same seam that backs
// trampoline_addr (vm.go). jump_userret is the raw jump into userret's
// computed virtual address with a0/a1 preloaded: userret switches satp
// itself, so the call must land on an address mapped the same way in
// both the old and new page table, which is why it goes through
// TRAMPOLINE rather than a plain Go call.
//
//go:linkname uservec_addr uservec_addr
func uservec_addr() uintptr

//go:linkname userret_addr userret_addr
func userret_addr() uintptr

//go:linkname jump_userret jump_userret
func jump_userret(fn, trapframe, satp uintptr)

// usertrapAddr returns usertrap's own kernel-text address, the same way
// forkretAddr (proc.go) hands back forkret's, so it can be stashed in
// the trapframe for uservec to jump to after saving user registers.
//
//go:linkname usertrapAddr usertrapAddr
func usertrapAddr() uintptr

var ticks uint32
var tickslock spinlock

func ticksinit() {
	initlock(&tickslock, "time")
}

const (
	scauseSSoft        = 0x8000000000000001
	scauseSTimer       = 0x8000000000000005
	scauseSExternal    = 0x8000000000000009
	scauseEcallU       = 8
	scauseInstrPgFault = 12
	scauseLoadPgFault  = 13
	scauseStorePgFault = 15
)

// usertrap is entered through the trampoline whenever a user-mode
// process traps into the kernel. It always ends by calling
// usertrapret, which does not return.
func usertrap() {
	if r_sstatus()&SSTATUS_SPP != 0 {
		panic("usertrap: not from user mode")
	}

	// traps from here on, until usertrapret rearms uservec, go to
	// kerneltrap instead.
	trapinithart()

	p := myproc()
	p.trapframe.Epc = r_sepc()

	scause := r_scause()
	switch {
	case scause == scauseEcallU:
		if killed(p) {
			exit(-1)
		}
		intr_on()
		syscall()

	case scause == scauseSSoft || scause == scauseSTimer:
		if cpuid() == 0 {
			clockintr()
		}
		w_sip(r_sip() &^ 2)
		yield()

	case scause == scauseSExternal:
		devintr()

	case scause == scauseInstrPgFault || scause == scauseLoadPgFault || scause == scauseStorePgFault:
		if !lazy_mmap(p, r_stval()) {
			setkilled(p)
		}

	default:
		printf("usertrap: unexpected scause %x pid=%d\n", scause, p.pid)
		setkilled(p)
	}

	if killed(p) {
		exit(-1)
	}

	usertrapret()
}

// usertrapret restores whatever usertrap saved and returns to user
// space through the trampoline. Never returns.
func usertrapret() {
	p := myproc()
	intr_off()

	w_stvec(TRAMPOLINE + uservec_addr() - trampoline_addr())

	p.trapframe.KernelSatp = r_satp()
	p.trapframe.KernelSp = p.kstack + PGSIZE
	p.trapframe.KernelTrap = usertrapAddr()
	p.trapframe.KernelHartid = r_tp()

	x := r_sstatus()
	x &^= SSTATUS_SPP
	x |= SSTATUS_SIE
	w_sstatus(x)

	w_sepc(p.trapframe.Epc)

	satp := MAKE_SATP(p.pagetable)
	fn := TRAMPOLINE + userret_addr() - trampoline_addr()
	jump_userret(fn, TRAPFRAME, satp)
}

// kerneltrap handles a trap that arrived while already in supervisor
// mode: a device interrupt with interrupts enabled, or a bug.
//
//go:nosplit
//export Kerneltrap
func Kerneltrap() {
	sepc := r_sepc()
	sstatus := r_sstatus()

	if sstatus&SSTATUS_SPP == 0 {
		panic("kerneltrap: not from supervisor mode")
	}
	if intr_get() {
		panic("kerneltrap: interrupts enabled")
	}

	scause := r_scause()
	switch {
	case scause == scauseSSoft || scause == scauseSTimer:
		if cpuid() == 0 {
			clockintr()
		}
		w_sip(r_sip() &^ 2)
		if p := current(); p != nil && p.state == RUNNING {
			yield()
		}

	case scause == scauseSExternal:
		devintr()

	default:
		printf("kerneltrap: unexpected scause %x sepc=%x\n", scause, sepc)
		panicked = true
		for {
		}
	}

	w_sepc(sepc)
	w_sstatus(sstatus)
}

// current returns the running process on this hart, or nil if the
// scheduler thread itself took the trap.
func current() *kproc {
	c := mycpu()
	return c.proc
}

func clockintr() {
	acquire(&tickslock)
	ticks++
	wakeup(uintptr(unsafe.Pointer(&ticks)))
	release(&tickslock)
}

// devintr claims and dispatches one pending external interrupt from the
// PLIC: UART input or a virtio-disk completion. Ground: handle_trap's
// IntSExt arm in original_source/src/trap.rs.
func devintr() {
	irq := plic_claim()
	switch irq {
	case UART0_IRQ:
		uartintr()
	case VIRTIO0_IRQ:
		virtio_disk_intr()
	case 0:
		// no pending interrupt
	default:
		printf("devintr: unexpected irq %d\n", irq)
	}
	if irq != 0 {
		plic_complete(irq)
	}
}