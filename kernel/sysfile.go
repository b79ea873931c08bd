package main

import "unsafe"

// sysfile.go implements the syscalls that operate on file descriptors,
// paths and directories. Ground: original_source/kernel/src/proc/
// syscall.rs's sys_pipe/sys_read/sys_exec/sys_fstat/sys_chdir/sys_dup/
// sys_open/sys_write/sys_mknod/sys_unlink/sys_mkdir/sys_close, and
// fs.rs's unlink for the directory-entry bookkeeping; sys_link has no
// original_source counterpart and is built from real xv6 convention.

const (
	O_RDONLY = 0
	O_WRONLY = 1
	O_RDWR   = 2
	O_CREATE = 0x200
	O_TRUNC  = 0x400
)

func sys_pipe() (uintptr, error) {
	addr, err := argaddr(0)
	if err != nil {
		return 0, err
	}

	rf, wf, err := pipealloc()
	if err != nil {
		return 0, err
	}

	rfd, err := allocfd(rf)
	if err != nil {
		fileclose(rf)
		fileclose(wf)
		return 0, err
	}
	wfd, err := allocfd(wf)
	if err != nil {
		myproc().ofile[rfd] = nil
		fileclose(rf)
		fileclose(wf)
		return 0, err
	}

	var fds [2]int32
	fds[0], fds[1] = int32(rfd), int32(wfd)
	if !copyout(myproc().pagetable, addr, uintptr(unsafe.Pointer(&fds[0])), uintptr(len(fds))*4) {
		myproc().ofile[rfd] = nil
		myproc().ofile[wfd] = nil
		fileclose(rf)
		fileclose(wf)
		return 0, ErrBadAddr
	}
	return 0, nil
}

func sys_read() (uintptr, error) {
	_, f, err := argfd(0)
	if err != nil {
		return 0, err
	}
	addr, err := argaddr(1)
	if err != nil {
		return 0, err
	}
	n, err := argint(2)
	if err != nil {
		return 0, err
	}
	r, err := fileread(f, addr, int(n))
	if err != nil {
		return 0, err
	}
	return uintptr(r), nil
}

func sys_write() (uintptr, error) {
	_, f, err := argfd(0)
	if err != nil {
		return 0, err
	}
	addr, err := argaddr(1)
	if err != nil {
		return 0, err
	}
	n, err := argint(2)
	if err != nil {
		return 0, err
	}
	w, err := filewrite(f, addr, int(n))
	if err != nil {
		return 0, err
	}
	return uintptr(w), nil
}

func sys_exec() (uintptr, error) {
	var path [MAXPATH]byte
	if err := argstr(0, path[:]); err != nil {
		return 0, err
	}
	argBase, err := argaddr(1)
	if err != nil {
		return 0, err
	}

	var argv [MAXARG][]byte
	argc := 0
	for ; argc < MAXARG; argc++ {
		uarg, err := fetchaddr(argBase + uintptr(argc)*8)
		if err != nil {
			return 0, err
		}
		if uarg == 0 {
			break
		}
		var buf [MAXARGLEN + 1]byte
		if err := fetchstr(uarg, buf[:]); err != nil {
			return 0, err
		}
		argv[argc] = append([]byte(nil), buf[:trimZero(buf[:])]...)
	}

	n, err := exec(path[:trimZero(path[:])], argv[:argc])
	if err != nil {
		return 0, err
	}
	return uintptr(n), nil
}

func sys_fstat() (uintptr, error) {
	_, f, err := argfd(0)
	if err != nil {
		return 0, err
	}
	addr, err := argaddr(1)
	if err != nil {
		return 0, err
	}
	if !filestat(f, addr) {
		return 0, ErrBadAddr
	}
	return 0, nil
}

func sys_chdir() (uintptr, error) {
	p := myproc()
	var path [MAXPATH]byte
	if err := argstr(0, path[:]); err != nil {
		return 0, err
	}

	begin_op()
	ip, ok := namei(path[:trimZero(path[:])])
	if !ok {
		end_op()
		return 0, ErrNotFound
	}
	d := ilock(ip)
	if d.dinode.typ != T_DIR {
		iunlockput(ip)
		end_op()
		return 0, ErrNotDir
	}
	iunlock(ip)
	iput(p.cwd)
	p.cwd = ip
	end_op()
	return 0, nil
}

func sys_dup() (uintptr, error) {
	_, f, err := argfd(0)
	if err != nil {
		return 0, err
	}
	fd, err := allocfd(f)
	if err != nil {
		return 0, err
	}
	filedup(f)
	return uintptr(fd), nil
}

func sys_open() (uintptr, error) {
	var path [MAXPATH]byte
	if err := argstr(0, path[:]); err != nil {
		return 0, err
	}
	omode, err := argint(1)
	if err != nil {
		return 0, err
	}
	name := path[:trimZero(path[:])]

	if omode&O_CREATE != 0 {
		begin_op()
		ip, ok := create(name, T_FILE, 0, 0)
		if !ok {
			end_op()
			return 0, ErrNotFound
		}
		d := ilock(ip)
		end_op()
		return openFile(ip, d, int(omode))
	}

	ip, ok := namei(name)
	if !ok {
		return 0, ErrNotFound
	}
	d := ilock(ip)
	if d.dinode.typ == T_DIR && omode != O_RDONLY {
		iunlockput(ip)
		return 0, ErrIsDir
	}
	return openFile(ip, d, int(omode))
}

// openFile finishes sys_open once the target inode is locked: it applies
// TRUNC, allocates the file object and descriptor, and unlocks the inode
// before returning (the file object itself keeps a reference).
func openFile(ip inode, d *inodeData, omode int) (uintptr, error) {
	if d.dinode.typ == T_DEVICE && int(d.dinode.major) >= NDEV {
		iunlockput(ip)
		return 0, ErrBadArg
	}

	f, err := filealloc()
	if err != nil {
		iunlockput(ip)
		return 0, err
	}
	if d.dinode.typ == T_DEVICE {
		f.typ = FD_DEVICE
		f.major = d.dinode.major
	} else {
		f.typ = FD_INODE
		f.off = 0
	}
	f.ip = ip
	f.readable = omode&O_WRONLY == 0
	f.writable = omode&O_WRONLY != 0 || omode&O_RDWR != 0

	if omode&O_TRUNC != 0 && d.dinode.typ == T_FILE {
		itrunc(ip)
	}
	iunlock(ip)

	fd, err := allocfd(f)
	if err != nil {
		fileclose(f)
		return 0, err
	}
	return uintptr(fd), nil
}

func sys_mknod() (uintptr, error) {
	var path [MAXPATH]byte
	if err := argstr(0, path[:]); err != nil {
		return 0, err
	}
	major, err := argint(1)
	if err != nil {
		return 0, err
	}
	minor, err := argint(2)
	if err != nil {
		return 0, err
	}

	begin_op()
	ip, ok := create(path[:trimZero(path[:])], T_DEVICE, uint16(major), uint16(minor))
	if !ok {
		end_op()
		return 0, ErrExists
	}
	iunlockput(ip)
	end_op()
	return 0, nil
}

func sys_mkdir() (uintptr, error) {
	var path [MAXPATH]byte
	if err := argstr(0, path[:]); err != nil {
		return 0, err
	}

	begin_op()
	ip, ok := create(path[:trimZero(path[:])], T_DIR, 0, 0)
	if !ok {
		end_op()
		return 0, ErrExists
	}
	iunlockput(ip)
	end_op()
	return 0, nil
}

func sys_close() (uintptr, error) {
	fd, f, err := argfd(0)
	if err != nil {
		return 0, err
	}
	myproc().ofile[fd] = nil
	fileclose(f)
	return 0, nil
}

// sys_unlink removes name from its parent directory, freeing the inode
// once its link count and open references both drop to zero. Ground:
// original_source's fs.rs::unlink, with the dirent offset now threaded
// through dirlookupAt instead of a tuple return.
func sys_unlink() (uintptr, error) {
	var path [MAXPATH]byte
	if err := argstr(0, path[:]); err != nil {
		return 0, err
	}

	var name [DIRSIZ]byte
	begin_op()
	dir, ok := nameiparent(path[:trimZero(path[:])], name[:])
	if !ok {
		end_op()
		return 0, ErrNotFound
	}

	if isDotOrDotDot(name[:]) {
		iput(dir)
		end_op()
		return 0, ErrPerm
	}

	dd := ilock(dir)
	ip, off, ok := dirlookupAt(dir, name[:])
	if !ok {
		iunlockput(dir)
		end_op()
		return 0, ErrNotFound
	}
	d := ilock(ip)

	if d.dinode.nlink < 1 {
		panic("sys_unlink: nlink < 1")
	}
	if d.dinode.typ == T_DIR && !isdirempty(ip) {
		iunlockput(ip)
		iunlockput(dir)
		end_op()
		return 0, ErrNotEmpty
	}

	var empty dirEnt
	if _, ok := writei(dir, false, uintptr(unsafe.Pointer(&empty)), off, uint32(dirEntSize)); !ok {
		panic("sys_unlink: writei")
	}
	if d.dinode.typ == T_DIR {
		dd.dinode.nlink--
		iupdate(dir)
	}
	iunlockput(dir)

	d.dinode.nlink--
	iupdate(ip)
	iunlockput(ip)
	end_op()
	return 0, nil
}

func isDotOrDotDot(name []byte) bool {
	n := trimZero(name)
	return n == 1 && name[0] == '.' || n == 2 && name[0] == '.' && name[1] == '.'
}

// sys_link creates newpath as another name for the inode named by
// oldpath, bumping its link count. No original_source counterpart exists
// (its Syscall trait leaves entry 19 as a TODO); ground is real xv6's
// sys_link plumbed onto this kernel's inode/dir primitives.
func sys_link() (uintptr, error) {
	var oldpath, newpath [MAXPATH]byte
	if err := argstr(0, oldpath[:]); err != nil {
		return 0, err
	}
	if err := argstr(1, newpath[:]); err != nil {
		return 0, err
	}

	begin_op()
	ip, ok := namei(oldpath[:trimZero(oldpath[:])])
	if !ok {
		end_op()
		return 0, ErrNotFound
	}
	d := ilock(ip)
	if d.dinode.typ == T_DIR {
		iunlockput(ip)
		end_op()
		return 0, ErrIsDir
	}
	d.dinode.nlink++
	iupdate(ip)
	iunlock(ip)

	var name [DIRSIZ]byte
	dir, ok := nameiparent(newpath[:trimZero(newpath[:])], name[:])
	linked := false
	if ok {
		dd := ilock(dir)
		if dd.dinode.typ == T_DIR && dir.dev == ip.dev && dirlink(dir, name[:trimZero(name[:])], ip.inum) {
			linked = true
		}
		iunlockput(dir)
	}

	if !linked {
		d2 := ilock(ip)
		d2.dinode.nlink--
		iupdate(ip)
		iunlockput(ip)
		end_op()
		return 0, ErrExists
	}

	iput(ip)
	end_op()
	return 0, nil
}
