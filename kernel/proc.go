package main

import "unsafe"

type procstate int

const (
	UNUSED   procstate = iota // 0
	EMBRYO                    // 1: allocated, not yet runnable
	READY                     // 2 (xv6 calls this RUNNABLE)
	RUNNING                   // 3
	SLEEPING                  // 4
	ZOMBIE                    // 5
)

// vma describes one lazily-filled mmap reservation (spec §4.7; §9's open
// question on cur_max vs. the VMA array is resolved by treating this table
// as authoritative and cur_max as a cached low-water mark for placement).
type vma struct {
	used  bool
	start uintptr
	end   uintptr
	prot  int
	flags int
	fd    int // backing file descriptor, or -1 for anonymous
	off   uintptr
}

const (
	PROT_READ  = 1 << 1
	PROT_WRITE = 1 << 2
	PROT_EXEC  = 1 << 3
)

const (
	MAP_SHARED    = 1
	MAP_PRIVATE   = 2
	MAP_ANONYMOUS = 4
)

const envSlots = 16
const envNameLen = 16
const envValLen = 64

// envVar is one slot of a process's environment. Fixed-size and
// fixed-count rather than a Go map: nothing in this kernel may depend on
// the hosted allocator a map's buckets would need (spec §2 ambient stack).
type envVar struct {
	used bool
	name [envNameLen]byte
	val  [envValLen]byte
}

// kproc is one slot in the fixed process table (spec §3).
//
// Fields above the blank line are guarded by lock and may be read or
// written by any hart, e.g. to answer wakeup or kill. Fields below are
// private to the hart currently running this process, except where a
// comment says otherwise (design note 9's header/data split).
type kproc struct {
	lock spinlock

	state  procstate
	chan_  uintptr // channel this process is sleeping on
	killed bool
	pid    int
	parent *kproc
	xstate int // exit status, valid once Zombie

	kstack    uintptr
	sz        uintptr // size of process memory, in bytes, from 0
	pagetable pagetable_t
	trapframe *TrapFrame
	context   Context
	name      [16]byte

	ofile [NOFILE]*file
	cwd   inode
	env   [envSlots]envVar

	vmas    [NVMA]vma
	cur_max uintptr // top of the mmap region; grows downward from USERTOP
}

var proc [NPROC]kproc

// pidLock protects nextpid, the one piece of global process-table state
// touched outside any single process's own lock (spec §4.5).
var pidLock spinlock
var nextpid = 1

var initproc *kproc

func procinit() {
	initlock(&pidLock, "nextpid")
	for i := range proc {
		p := &proc[i]
		initlock(&p.lock, "proc")
		p.state = UNUSED
		p.kstack = KSTACK(i)
	}
}

func allocpid() int {
	acquire(&pidLock)
	pid := nextpid
	nextpid++
	release(&pidLock)
	return pid
}

// allocproc looks for an UNUSED slot, initializes the bits needed to run
// a kernel thread, and returns it locked. Returns nil if the table is
// full or memory is exhausted.
func allocproc() *kproc {
	var p *kproc
	for i := range proc {
		p = &proc[i]
		acquire(&p.lock)
		if p.state == UNUSED {
			goto found
		}
		release(&p.lock)
	}
	return nil

found:
	p.pid = allocpid()
	p.state = EMBRYO

	tf := kalloc()
	if tf == 0 {
		freeproc(p)
		release(&p.lock)
		return nil
	}
	memset(tf, 0, uint(PGSIZE))
	p.trapframe = (*TrapFrame)(unsafe.Pointer(tf))

	p.pagetable = uvmcreate(tf)
	if p.pagetable == 0 {
		freeproc(p)
		release(&p.lock)
		return nil
	}

	p.context = Context{}
	p.context.ra = forkretAddr()
	p.context.sp = p.kstack + PGSIZE

	p.cur_max = USERTOP
	for i := range p.vmas {
		p.vmas[i] = vma{}
	}
	for i := range p.env {
		p.env[i] = envVar{}
	}
	for i := range p.ofile {
		p.ofile[i] = nil
	}
	p.cwd = inodeNone

	return p
}

// freeproc tears down a process slot's memory. Caller must hold p.lock.
func freeproc(p *kproc) {
	if p.trapframe != nil {
		kfree(uintptr(unsafe.Pointer(p.trapframe)))
	}
	p.trapframe = nil
	if p.pagetable != 0 {
		// munmap only ever accepts the bottom-most vma (the one at
		// cur_max), so tear them down in that order until none remain.
		for {
			v, ok := findVMA(p, p.cur_max)
			if !ok {
				break
			}
			if err := munmap(p, v.start, v.end-v.start); err != nil {
				panic("freeproc: munmap")
			}
		}
		proc_freepagetable(p.pagetable, p.sz)
	}
	p.pagetable = 0
	p.sz = 0
	p.pid = 0
	p.parent = nil
	p.name = [16]byte{}
	p.killed = false
	p.xstate = 0
	p.state = UNUSED
}

// proc_freepagetable frees a process's page table, first unmapping the
// trampoline and trapframe, which are not part of [0, sz) and so are not
// touched by uvmfree.
func proc_freepagetable(pagetable pagetable_t, sz uintptr) {
	uvmunmap(pagetable, TRAMPOLINE, 1, false)
	uvmunmap(pagetable, TRAPFRAME, 1, false)
	uvmfree(pagetable, sz)
}

// forkretAddr is the kernel-text address of forkret, used as the initial
// ra of a freshly allocated process's context so the first swtch into it
// lands there.
//
//go:linkname forkretAddr forkretAddr
func forkretAddr() uintptr

var firstProc = true

// forkret is the first Go code that runs on a new process's kernel stack,
// reached via the ra swtch loaded into its Context. Still holds p.lock,
// inherited across the switch from whichever hart called swtch into it.
func forkret() {
	p := myproc()
	release(&p.lock)

	if firstProc {
		firstProc = false
		fsinit(ROOTDEV)
		p.cwd, _ = namei([]byte("/"))
	}

	usertrapret()
}

// scheduler never returns. Each hart calls it once at boot. It scans the
// process table for a Ready process, switches into it, and resumes
// scanning once that process yields the CPU back. The chosen process's
// lock is held across the swtch: the process releases it on its own side
// (in forkret, or after sched returns) and holds it again when it
// switches back here.
func scheduler() {
	c := mycpu()
	for {
		intr_on() // let device interrupts land while nothing is running

		for i := range proc {
			p := &proc[i]
			acquire(&p.lock)
			if p.state == READY {
				p.state = RUNNING
				c.proc = p

				swtch(&c.sched, &p.context)

				c.proc = nil
			}
			release(&p.lock)
		}
	}
}

// sched switches from a process's kernel context to the scheduler's. Must
// be called with exactly p.lock held and no other lock, and returns with
// p.lock still held once some later swtch resumes this process.
func sched() {
	p := myproc()
	if !holding(&p.lock) {
		panic("sched: p.lock not held")
	}
	if mycpu().noff != 1 {
		panic("sched: locks held")
	}
	if p.state == RUNNING {
		panic("sched: proc running")
	}
	if intr_get() {
		panic("sched: interruptible")
	}

	intena := mycpu().intena
	swtch(&p.context, &mycpu().sched)
	mycpu().intena = intena
}

// yield gives up the CPU for one scheduling round.
func yield() {
	p := myproc()
	acquire(&p.lock)
	p.state = READY
	sched()
	release(&p.lock)
}

// sleep atomically releases lk and blocks the current process on chan,
// then reacquires lk before returning. Ground: spec §4.5, teacher's own
// acquire/release pairing discipline, original_source/src/proc.rs sleep.
func sleep(chan_ uintptr, lk *spinlock) {
	p := myproc()

	// Acquire p.lock before releasing lk so a wakeup on another hart
	// cannot land in the gap between "about to sleep" and "asleep".
	if lk != &p.lock {
		acquire(&p.lock)
		release(lk)
	}

	p.chan_ = chan_
	p.state = SLEEPING

	sched()

	p.chan_ = 0

	if lk != &p.lock {
		release(&p.lock)
		acquire(lk)
	}
}

// wakeup wakes every process sleeping on chan.
func wakeup(chan_ uintptr) {
	for i := range proc {
		p := &proc[i]
		if p == myproc() {
			continue
		}
		acquire(&p.lock)
		if p.state == SLEEPING && p.chan_ == chan_ {
			p.state = READY
		}
		release(&p.lock)
	}
}

// kill marks pid as killed. A Sleeping victim is bumped to Ready so it
// runs again, observes p.killed at its next checkpoint, and unwinds.
func kill(pid int) int {
	for i := range proc {
		p := &proc[i]
		acquire(&p.lock)
		if p.pid == pid {
			p.killed = true
			if p.state == SLEEPING {
				p.state = READY
			}
			release(&p.lock)
			return 0
		}
		release(&p.lock)
	}
	return -1
}

func setkilled(p *kproc) {
	acquire(&p.lock)
	p.killed = true
	release(&p.lock)
}

func killed(p *kproc) bool {
	acquire(&p.lock)
	k := p.killed
	release(&p.lock)
	return k
}

// wait_lock serializes exit's reparenting of children to initproc against
// a concurrent wait() walking the same parent pointers.
var wait_lock spinlock

// fork creates a new process, duplicating the parent's memory, open
// files, cwd, environment and mmap table. The child's trapframe is a
// copy of the parent's except a0, forced to 0 so the child observes a
// different fork() return value (spec §4.13). Returns -1 without side
// effects if the table is full or memory is exhausted.
func fork() int {
	p := myproc()

	np := allocproc()
	if np == nil {
		return -1
	}

	if !uvmcopy(p.pagetable, np.pagetable, p.sz) {
		freeproc(np)
		release(&np.lock)
		return -1
	}
	np.sz = p.sz

	*np.trapframe = *p.trapframe
	np.trapframe.A0 = 0

	for i := range p.ofile {
		if p.ofile[i] != nil {
			np.ofile[i] = filedup(p.ofile[i])
		}
	}
	np.cwd = idup(p.cwd)
	np.env = p.env
	np.vmas = p.vmas
	np.cur_max = p.cur_max
	np.name = p.name

	pid := np.pid
	release(&np.lock)

	acquire(&wait_lock)
	np.parent = p
	release(&wait_lock)

	acquire(&np.lock)
	np.state = READY
	release(&np.lock)

	return pid
}

// reparent gives each of p's children to initproc, waking initproc so it
// can reap any that are already Zombies.
func reparent(p *kproc) {
	for i := range proc {
		pp := &proc[i]
		if pp.parent == p {
			pp.parent = initproc
			wakeup(uintptr(unsafe.Pointer(initproc)))
		}
	}
}

// exit closes all open files, drops the cwd reference, reparents
// children, marks this process a Zombie, and never returns.
func exit(status int) {
	p := myproc()
	if p == initproc {
		panic("init exiting")
	}

	for fd := range p.ofile {
		if p.ofile[fd] != nil {
			f := p.ofile[fd]
			p.ofile[fd] = nil
			fileclose(f)
		}
	}

	begin_op()
	iput(p.cwd)
	end_op()
	p.cwd = inodeNone

	acquire(&wait_lock)
	reparent(p)
	wakeup(uintptr(unsafe.Pointer(p.parent)))

	acquire(&p.lock)
	p.xstate = status
	p.state = ZOMBIE
	release(&wait_lock)

	sched()
	panic("exit: zombie returned")
}

// wait scans for a Zombie child, reaps it, and returns its pid, writing
// its exit status to user address addr if addr is nonzero. If children
// exist but none have exited, it sleeps on this process's own address
// (any exiting child wakes exactly that channel). Returns -1 if this
// process has no children at all, or was killed while waiting.
func wait(addr uintptr) int {
	p := myproc()

	acquire(&wait_lock)
	for {
		havekids := false
		for i := range proc {
			pp := &proc[i]
			if pp.parent != p {
				continue
			}

			acquire(&pp.lock)
			havekids = true
			if pp.state == ZOMBIE {
				pid := pp.pid
				if addr != 0 {
					if !copyout(p.pagetable, addr, uintptr(unsafe.Pointer(&pp.xstate)), unsafe.Sizeof(pp.xstate)) {
						release(&pp.lock)
						release(&wait_lock)
						return -1
					}
				}
				freeproc(pp)
				release(&pp.lock)
				release(&wait_lock)
				return pid
			}
			release(&pp.lock)
		}

		if !havekids || killed(p) {
			release(&wait_lock)
			return -1
		}

		sleep(uintptr(unsafe.Pointer(p)), &wait_lock)
	}
}

// either_copyout copies count bytes from kernel address src to dst,
// which is a user virtual address of the current process if userDst,
// otherwise a plain kernel address. Ground: original_source's
// either_copy_out, used to let console/pipe code stay agnostic of
// whether its caller is a user syscall or the kernel itself.
func either_copyout(userDst bool, dst uintptr, src *byte, count uintptr) bool {
	if userDst {
		p := myproc()
		return copyout(p.pagetable, dst, uintptr(unsafe.Pointer(src)), count)
	}
	memmove(dst, unsafe.Pointer(src), count)
	return true
}

// either_copyin is either_copyout's mirror: src is user or kernel, dst is
// always a kernel address.
func either_copyin(userSrc bool, dst *byte, src uintptr, count uintptr) bool {
	if userSrc {
		p := myproc()
		return copyin(p.pagetable, uintptr(unsafe.Pointer(dst)), src, count)
	}
	memmove(uintptr(unsafe.Pointer(dst)), unsafe.Pointer(src), count)
	return true
}

// userinit sets up the very first user process: its address space holds
// only the tiny bootstrap program in initcode (exec.go), which execs
// /init once the root filesystem is mounted.
func userinit() {
	p := allocproc()
	if p == nil {
		panic("userinit: allocproc failed")
	}
	initproc = p

	uvmfirst(p.pagetable, initcode)
	p.sz = PGSIZE

	p.trapframe.Epc = 0
	p.trapframe.Sp = PGSIZE

	stringToBytes(p.name[:], "initcode")
	p.cwd = inodeNone // namei("/") happens in forkret, after fsinit mounts the root

	p.state = READY

	release(&p.lock)
}
