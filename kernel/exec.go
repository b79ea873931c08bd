package main

import "unsafe"

// exec.go replaces a process's address space with a fresh ELF image.
// Ground: original_source/kernel/src/proc/elf.rs's load(), restructured
// around this kernel's inode/page-table primitives.

// initcode is the 51-byte RISC-V program the very first process runs: it
// calls exec("/init", ["/init", 0]) and loops forever if that fails.
// Ground: original_source/kernel/src/proc.rs's INITCODE, copied verbatim
// since it is machine code, not source text.
var initcode = []byte{
	0x17, 0x05, 0x00, 0x00, 0x13, 0x05, 0x05, 0x02, 0x97, 0x05, 0x00, 0x00, 0x93, 0x85, 0x05, 0x02,
	0x9d, 0x48, 0x73, 0x00, 0x00, 0x00, 0x89, 0x48, 0x73, 0x00, 0x00, 0x00, 0xef, 0xf0, 0xbf, 0xff,
	0x2f, 0x69, 0x6e, 0x69, 0x74, 0x00, 0x00, 0x01, 0x20, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00,
}

// exec loads the ELF executable at path into the calling process, pushing
// argv onto a fresh stack, and never returns to the caller on success:
// the trapframe is rewritten to start at the new entry point. Returns
// argc on success so sys_exec can put it in a0.
func exec(path []byte, argv [][]byte) (int, error) {
	begin_op()

	ip, ok := namei(path)
	if !ok {
		end_op()
		return -1, ErrNotFound
	}
	ilock(ip)

	var hdr elfHeader
	if n, ok := readi(ip, false, uintptr(unsafe.Pointer(&hdr)), 0, uint32(unsafe.Sizeof(hdr))); !ok || n != uint32(unsafe.Sizeof(hdr)) {
		iunlockput(ip)
		end_op()
		return -1, ErrBadELF
	}
	if hdr.Magic != elfMagic {
		iunlockput(ip)
		end_op()
		return -1, ErrBadELF
	}

	p := myproc()
	pagetable := uvmcreate(uintptr(unsafe.Pointer(p.trapframe)))
	if pagetable == 0 {
		iunlockput(ip)
		end_op()
		return -1, ErrNoFrame
	}

	var sz uintptr
	phsize := unsafe.Sizeof(progHeader{})
	off := hdr.Phoff
	end := off + uint64(hdr.Phnum)*uint64(phsize)
	for ; off < end; off += uint64(phsize) {
		var ph progHeader
		if n, ok := readi(ip, false, uintptr(unsafe.Pointer(&ph)), uint32(off), uint32(phsize)); !ok || n != uint32(phsize) {
			uvmunmap(pagetable, 0, PGROUNDUP(sz)/PGSIZE, true)
			freewalk(pagetable)
			iunlockput(ip)
			end_op()
			return -1, ErrBadELF
		}
		if ph.Typ != progLoad || ph.Memsz == 0 {
			continue
		}
		if ph.Vaddr%uint64(PGSIZE) != 0 {
			uvmunmap(pagetable, 0, PGROUNDUP(sz)/PGSIZE, true)
			freewalk(pagetable)
			iunlockput(ip)
			end_op()
			return -1, ErrBadELF
		}

		newsz := uvmalloc(pagetable, sz, uintptr(ph.Vaddr+ph.Memsz), elfFlags(ph.Flags))
		if newsz == 0 {
			uvmunmap(pagetable, 0, PGROUNDUP(sz)/PGSIZE, true)
			freewalk(pagetable)
			iunlockput(ip)
			end_op()
			return -1, ErrNoFrame
		}
		sz = newsz

		if !loadSegment(pagetable, ip, uintptr(ph.Vaddr), uint32(ph.Off), uint32(ph.Filesz)) {
			uvmunmap(pagetable, 0, PGROUNDUP(sz)/PGSIZE, true)
			freewalk(pagetable)
			iunlockput(ip)
			end_op()
			return -1, ErrBadELF
		}
	}
	iunlockput(ip)
	end_op()

	sz = PGROUNDUP(sz)
	oldsz := sz
	sz = uvmalloc(pagetable, oldsz, oldsz+2*PGSIZE, PTE_W)
	if sz == 0 {
		uvmunmap(pagetable, 0, PGROUNDUP(oldsz)/PGSIZE, true)
		freewalk(pagetable)
		return -1, ErrNoFrame
	}
	uvmclear(pagetable, sz-2*PGSIZE)
	sp := sz
	stackbase := sp - PGSIZE

	var ustack [MAXARG + 1]uintptr
	argc := 0
	for ; argc < len(argv) && argc < MAXARG; argc++ {
		arglen := len(argv[argc]) + 1
		sp -= uintptr(arglen)
		sp -= sp % 16
		if sp < stackbase {
			uvmunmap(pagetable, 0, PGROUNDUP(sz)/PGSIZE, true)
			freewalk(pagetable)
			return -1, ErrBadArg
		}
		var buf [MAXARGLEN + 1]byte
		copy(buf[:], argv[argc])
		if !copyout(pagetable, sp, uintptr(unsafe.Pointer(&buf[0])), uintptr(arglen)) {
			uvmunmap(pagetable, 0, PGROUNDUP(sz)/PGSIZE, true)
			freewalk(pagetable)
			return -1, ErrBadAddr
		}
		ustack[argc] = sp
	}
	ustack[argc] = 0

	ustackSize := uintptr(argc+1) * unsafe.Sizeof(uintptr(0))
	sp -= ustackSize
	sp -= sp % 16
	if sp < stackbase {
		uvmunmap(pagetable, 0, PGROUNDUP(sz)/PGSIZE, true)
		freewalk(pagetable)
		return -1, ErrBadArg
	}
	if !copyout(pagetable, sp, uintptr(unsafe.Pointer(&ustack[0])), ustackSize) {
		uvmunmap(pagetable, 0, PGROUNDUP(sz)/PGSIZE, true)
		freewalk(pagetable)
		return -1, ErrBadAddr
	}

	tf := p.trapframe
	tf.A1 = sp

	oldpagetable := p.pagetable
	oldProcSz := p.sz
	p.pagetable = pagetable
	p.sz = sz
	tf.Epc = uintptr(hdr.Entry)
	tf.Sp = sp
	stringToBytes(p.name[:], basename(path))
	proc_freepagetable(oldpagetable, oldProcSz)

	return argc, nil
}

// basename returns the last '/'-separated component of path.
func basename(path []byte) string {
	end := len(path)
	for end > 0 && path[end-1] == '/' {
		end--
	}
	start := end
	for start > 0 && path[start-1] != '/' {
		start--
	}
	return string(path[start:end])
}

// loadSegment reads filesz bytes from ip at offset into the user pages
// starting at va, one physical page at a time.
func loadSegment(pagetable pagetable_t, ip inode, va uintptr, offset, filesz uint32) bool {
	for i := uint32(0); i < filesz; i += uint32(PGSIZE) {
		pa := walkaddr(pagetable, va+uintptr(i))
		if pa == 0 {
			return false
		}
		n := filesz - i
		if n > uint32(PGSIZE) {
			n = uint32(PGSIZE)
		}
		if rn, ok := readi(ip, false, pa, offset+i, n); !ok || rn != n {
			return false
		}
	}
	return true
}

// elfFlags maps a program header's PF_R/PF_W/PF_X bits to the PTE
// permission bits uvmalloc should map the segment's pages with.
func elfFlags(phFlags uint32) int {
	const pfX, pfW = 1, 2
	perm := 0
	if phFlags&pfW != 0 {
		perm |= PTE_W
	}
	if phFlags&pfX != 0 {
		perm |= PTE_X
	}
	return perm
}
