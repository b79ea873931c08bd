package main

import "unsafe"

// syscall.go dispatches a7 at ecall into the handler table and fetches
// arguments out of the trapframe. Ground: original_source/kernel/src/
// proc.rs's arg_raw/arg_i32/arg_fd/arg_str/fetch_addr/fetch_str and
// proc.rs::syscall's match table, restated as free functions operating
// on myproc() rather than methods on a Rust Proc.

const (
	SYS_fork     = 1
	SYS_exit     = 2
	SYS_wait     = 3
	SYS_pipe     = 4
	SYS_read     = 5
	SYS_kill     = 6
	SYS_exec     = 7
	SYS_fstat    = 8
	SYS_chdir    = 9
	SYS_dup      = 10
	SYS_getpid   = 11
	SYS_sbrk     = 12
	SYS_sleep    = 13
	SYS_uptime   = 14
	SYS_open     = 15
	SYS_write    = 16
	SYS_mknod    = 17
	SYS_unlink   = 18
	SYS_link     = 19
	SYS_mkdir    = 20
	SYS_close    = 21
	SYS_socket   = 22
	SYS_bind     = 23
	// 24 and 25 (listen, accept) are not implemented: no network stack
	// backs the socket table, so only the minimal bind/connect pair is
	// wired.
	SYS_connect = 26
	SYS_mmap    = 27
	SYS_getenv  = 28
	SYS_setenv   = 29
	SYS_unsetenv = 30
	SYS_listenv  = 31
)

// argraw reads argument n (0-5) straight out of the trapframe's a0-a5.
func argraw(n int) (uintptr, error) {
	tf := myproc().trapframe
	switch n {
	case 0:
		return tf.A0, nil
	case 1:
		return tf.A1, nil
	case 2:
		return tf.A2, nil
	case 3:
		return tf.A3, nil
	case 4:
		return tf.A4, nil
	case 5:
		return tf.A5, nil
	}
	return 0, ErrBadArg
}

func argint(n int) (int32, error) {
	v, err := argraw(n)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

func argaddr(n int) (uintptr, error) {
	return argraw(n)
}

// argfd fetches argument n as a file descriptor, validating it names an
// open file in the calling process, and returns both the fd and the file.
func argfd(n int) (int, *file, error) {
	v, err := argint(n)
	if err != nil {
		return 0, nil, err
	}
	if v < 0 || int(v) >= NOFILE {
		return 0, nil, ErrBadFD
	}
	f := myproc().ofile[v]
	if f == nil {
		return 0, nil, ErrBadFD
	}
	return int(v), f, nil
}

// fetchaddr reads one uintptr-sized value from user address addr,
// bounds-checked against the process's current size.
func fetchaddr(addr uintptr) (uintptr, error) {
	p := myproc()
	if addr >= p.sz || addr+unsafe.Sizeof(uintptr(0)) > p.sz {
		return 0, ErrBadAddr
	}
	var v uintptr
	if !copyin(p.pagetable, uintptr(unsafe.Pointer(&v)), addr, unsafe.Sizeof(v)) {
		return 0, ErrBadAddr
	}
	return v, nil
}

// fetchstr copies a NUL-terminated string from user address addr into dst.
func fetchstr(addr uintptr, dst []byte) error {
	if !copyinstr(myproc().pagetable, uintptr(unsafe.Pointer(&dst[0])), addr, uintptr(len(dst))) {
		return ErrBadAddr
	}
	return nil
}

// argstr fetches argument n as a user address, then copies the string it
// points to into dst.
func argstr(n int, dst []byte) error {
	addr, err := argaddr(n)
	if err != nil {
		return err
	}
	return fetchstr(addr, dst)
}

// allocfd installs f in the first free descriptor slot of the calling
// process, returning the descriptor.
func allocfd(f *file) (int, error) {
	p := myproc()
	for i := range p.ofile {
		if p.ofile[i] == nil {
			p.ofile[i] = f
			return i, nil
		}
	}
	return 0, ErrNoFD
}

// errRet is what every syscall, mmap included, returns in a0 on failure:
// all ones, which reads as −1 signed and as the all-ones mmap failure
// address unsigned.
const errRet = ^uintptr(0)

// syscall dispatches on the trapframe's a7, advancing epc past the ecall
// first, and writes the handler's result (or the error sentinel) to a0.
func syscall() {
	p := myproc()
	tf := p.trapframe
	tf.Epc += 4

	num := tf.A7
	var ret uintptr
	var err error

	switch num {
	case SYS_fork:
		ret, err = sys_fork()
	case SYS_exit:
		ret, err = sys_exit()
	case SYS_wait:
		ret, err = sys_wait()
	case SYS_pipe:
		ret, err = sys_pipe()
	case SYS_read:
		ret, err = sys_read()
	case SYS_kill:
		ret, err = sys_kill()
	case SYS_exec:
		ret, err = sys_exec()
	case SYS_fstat:
		ret, err = sys_fstat()
	case SYS_chdir:
		ret, err = sys_chdir()
	case SYS_dup:
		ret, err = sys_dup()
	case SYS_getpid:
		ret, err = sys_getpid()
	case SYS_sbrk:
		ret, err = sys_sbrk()
	case SYS_sleep:
		ret, err = sys_sleep()
	case SYS_uptime:
		ret, err = sys_uptime()
	case SYS_open:
		ret, err = sys_open()
	case SYS_write:
		ret, err = sys_write()
	case SYS_mknod:
		ret, err = sys_mknod()
	case SYS_unlink:
		ret, err = sys_unlink()
	case SYS_link:
		ret, err = sys_link()
	case SYS_mkdir:
		ret, err = sys_mkdir()
	case SYS_close:
		ret, err = sys_close()
	case SYS_socket:
		ret, err = sys_socket()
	case SYS_bind:
		ret, err = sys_bind()
	case SYS_connect:
		ret, err = sys_connect()
	case SYS_mmap:
		ret, err = sys_mmap()
	case SYS_getenv:
		ret, err = sys_getenv()
	case SYS_setenv:
		ret, err = sys_setenv()
	case SYS_unsetenv:
		ret, err = sys_unsetenv()
	case SYS_listenv:
		ret, err = sys_listenv()
	default:
		printf("unknown syscall %d\n", num)
		tf.A0 = errRet
		return
	}

	if err != nil {
		printf("pid %d: syscall %d: %s\n", p.pid, num, err.Error())
		tf.A0 = errRet
		return
	}
	tf.A0 = ret
}
