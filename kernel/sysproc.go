package main

import "unsafe"

// sysproc.go implements the syscalls that manage a process's own state
// rather than file/directory content: fork/exit/wait, sbrk, kill, sleep,
// getpid and uptime. Ground: original_source/kernel/src/proc/syscall.rs's
// sys_fork/sys_exit/sys_wait/sys_sbrk directly; sys_kill/sys_getpid/
// sys_sleep/sys_uptime are marked TODO there and are built fresh from
// spec §4.13 and real xv6 convention.

func sys_fork() (uintptr, error) {
	pid := fork()
	if pid < 0 {
		return 0, ErrNoProc
	}
	return uintptr(pid), nil
}

func sys_exit() (uintptr, error) {
	n, err := argint(0)
	if err != nil {
		return 0, err
	}
	exit(int(n))
	panic("sys_exit: exit returned")
}

func sys_wait() (uintptr, error) {
	addr, err := argaddr(0)
	if err != nil {
		return 0, err
	}
	pid := wait(addr)
	if pid < 0 {
		return 0, ErrNotFound
	}
	return uintptr(pid), nil
}

func sys_sbrk() (uintptr, error) {
	n, err := argint(0)
	if err != nil {
		return 0, err
	}
	p := myproc()
	oldsz := p.sz

	if n > 0 {
		newsz := uvmalloc(p.pagetable, oldsz, oldsz+uintptr(n), PTE_W)
		if newsz == 0 {
			return 0, ErrNoFrame
		}
		p.sz = newsz
	} else if n < 0 {
		p.sz = uvmdealloc(p.pagetable, oldsz, oldsz-uintptr(-n))
	}
	return oldsz, nil
}

// sys_kill sets the killed flag on pid; the target observes it at its
// next syscall or blocking-loop checkpoint (spec §5's cancellation model).
func sys_kill() (uintptr, error) {
	pid, err := argint(0)
	if err != nil {
		return 0, err
	}
	if kill(int(pid)) < 0 {
		return 0, ErrNotFound
	}
	return 0, nil
}

func sys_getpid() (uintptr, error) {
	return uintptr(myproc().pid), nil
}

// sys_sleep blocks the caller on the global ticks channel for n timer
// interrupts, waking early (and returning an error) if killed.
func sys_sleep() (uintptr, error) {
	n, err := argint(0)
	if err != nil {
		return 0, err
	}

	acquire(&tickslock)
	target := ticks + uint32(n)
	for ticks < target {
		if killed(myproc()) {
			release(&tickslock)
			return 0, ErrKilled
		}
		sleep(uintptr(unsafe.Pointer(&ticks)), &tickslock)
	}
	release(&tickslock)
	return 0, nil
}

func sys_uptime() (uintptr, error) {
	acquire(&tickslock)
	t := ticks
	release(&tickslock)
	return uintptr(t), nil
}

func sys_mmap() (uintptr, error) {
	// arg 0 (addr) is advisory only and always ignored, per spec §4.7.
	length, err := argint(1)
	if err != nil {
		return 0, err
	}
	prot, err := argint(2)
	if err != nil {
		return 0, err
	}
	flags, err := argint(3)
	if err != nil {
		return 0, err
	}
	fd, err := argint(4)
	if err != nil {
		return 0, err
	}
	offset, err := argaddr(5)
	if err != nil {
		return 0, err
	}

	addr, err := mmapReserve(myproc(), uintptr(length), int(prot), int(flags), int(fd), offset)
	if err != nil {
		return 0, err
	}
	return addr, nil
}
