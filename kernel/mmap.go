package main

// mmap.go implements lazy file- and anonymous-backed mappings: mmap only
// reserves a range of the process's address space, and pages are faulted
// in one at a time by lazy_mmap. Ground: original_source/kernel/src/
// proc.rs's VMA table, unmmap and lazy_mmap, adapted to this kernel's
// fixed vma array (proc.go) and page-table primitives (vm.go).

// mmapReserve finds a free vma slot and carves length bytes off the top
// of the mmap region, below p.cur_max, returning the address the mapping
// starts at.
func mmapReserve(p *kproc, length uintptr, prot, flags, fd int, offset uintptr) (uintptr, error) {
	if length == 0 {
		return 0, ErrBadArg
	}
	if fd >= 0 {
		if fd >= NOFILE || p.ofile[fd] == nil {
			return 0, ErrBadFD
		}
		if prot&PROT_WRITE != 0 && !p.ofile[fd].writable {
			return 0, ErrPerm
		}
	}

	slot := -1
	for i := range p.vmas {
		if !p.vmas[i].used {
			slot = i
			break
		}
	}
	if slot == -1 {
		return 0, ErrVMAFull
	}

	size := PGROUNDUP(length)
	end := p.cur_max
	start := end - size
	if start >= end || start < p.sz {
		return 0, ErrVMAFull
	}

	p.vmas[slot] = vma{
		used:  true,
		start: start,
		end:   end,
		prot:  prot,
		flags: flags,
		fd:    fd,
		off:   offset,
	}
	p.cur_max = start
	return start, nil
}

// findVMA returns the vma containing addr, if any.
func findVMA(p *kproc, addr uintptr) (*vma, bool) {
	for i := range p.vmas {
		v := &p.vmas[i]
		if v.used && v.start <= addr && addr < v.end {
			return v, true
		}
	}
	return nil, false
}

// protToPTE converts mmap's PROT_* bits to the PTE_* bits a mapping's
// pages should carry. The spec's stricter reading is used here rather
// than the lax read/write/exec/user original_source falls back to: a
// page keeps exactly the permissions its mapping asked for, plus USER.
func protToPTE(prot int) int {
	perm := PTE_U
	if prot&PROT_READ != 0 {
		perm |= PTE_R
	}
	if prot&PROT_WRITE != 0 {
		perm |= PTE_W
	}
	if prot&PROT_EXEC != 0 {
		perm |= PTE_X
	}
	return perm
}

// lazy_mmap is called from the page-fault path with the faulting address.
// It allocates one physical page, maps it with the owning vma's
// permissions, and if the vma is file-backed, fills it from the file.
// Returns false if the fault cannot be resolved, which the caller (trap.go)
// treats as a segmentation violation.
func lazy_mmap(p *kproc, faultAddr uintptr) bool {
	v, ok := findVMA(p, faultAddr)
	if !ok {
		return false
	}

	pageAddr := PGROUNDDOWN(faultAddr)
	pa := kalloc()
	if pa == 0 {
		return false
	}
	memset(pa, 0, uint(PGSIZE))

	if mappages(p.pagetable, pageAddr, PGSIZE, pa, protToPTE(v.prot)) != 0 {
		kfree(pa)
		return false
	}

	if v.flags&MAP_ANONYMOUS != 0 || v.fd < 0 {
		return true
	}

	if v.fd >= NOFILE || p.ofile[v.fd] == nil {
		return true
	}
	f := p.ofile[v.fd]
	if f.typ != FD_INODE {
		return true
	}

	fileOff := uint32(v.off + (pageAddr - v.start))
	n := PGSIZE
	if pageAddr+PGSIZE > v.end {
		n = v.end - pageAddr
	}
	ilock(f.ip)
	readi(f.ip, false, pa, fileOff, uint32(n))
	iunlock(f.ip)
	return true
}

// munmap tears down the mapping owning [addr, addr+size), unmapping every
// resident page in range and freeing the vma slot. The mmap region only
// ever grows downward from a single cur_max boundary, so a partial or
// out-of-order unmap (anything but the whole bottom-most vma) would leave
// a hole cur_max can never re-place a future reservation over; per spec
// §9 such calls are rejected outright rather than silently truncated.
// Ground: original_source's unmmap.
func munmap(p *kproc, addr, size uintptr) error {
	v, ok := findVMA(p, addr)
	if !ok {
		return ErrBadArg
	}
	if v.start != p.cur_max || addr != v.start || addr+size < v.end {
		return ErrBadArg
	}

	start := PGROUNDDOWN(addr)
	end := PGROUNDUP(addr + size)
	if end > v.end {
		end = v.end
	}
	for a := start; a < end; a += PGSIZE {
		if walkaddr(p.pagetable, a) != 0 {
			uvmunmap(p.pagetable, a, 1, true)
		}
	}

	p.cur_max = v.end
	*v = vma{}
	return nil
}
