package main

import "unsafe"

// kernel_pagetable is the page table shared by supervisor-mode code on
// every hart: one direct map of all physical RAM plus the MMIO windows.
var kernel_pagetable pagetable_t

//go:linkname get_etext get_etext
func get_etext() uintptr

// trampoline_addr returns the physical/kernel-virtual address of the
// trampoline code page, emitted by the assembly trampoline seam (§4.4).
// It is mapped at the same address in every page table, kernel and user.
//
//go:linkname trampoline_addr trampoline_addr
func trampoline_addr() uintptr

func kvminit() {
	kernel_pagetable = pagetable_t(kalloc())
	if kernel_pagetable == 0 {
		panic("kvminit: out of memory")
	}
	printf("kernel_pagetable at %x\n", uintptr(kernel_pagetable))
	memset(uintptr(kernel_pagetable), 0, uint(PGSIZE))

	kvmmap(UART0, UART0, PGSIZE, PTE_R|PTE_W)
	kvmmap(VIRTIO0, VIRTIO0, PGSIZE, PTE_R|PTE_W)
	kvmmap(PLIC, PLIC, 0x400000, PTE_R|PTE_W)
	kvmmap(KERNBASE, KERNBASE, get_etext()-KERNBASE, PTE_R|PTE_X)
	kvmmap(get_etext(), get_etext(), PHYSTOP-get_etext(), PTE_R|PTE_W)

	// the trampoline page, for trap entry/exit, is mapped at the highest
	// virtual address in kernel space too, so it works the same whether
	// the page table in use is kernel or user.
	kvmmap(TRAMPOLINE, trampoline_addr(), PGSIZE, PTE_R|PTE_X)

	// one kernel stack page per process slot at KSTACK(i); the page below
	// each one stays unmapped as its guard.
	for i := 0; i < NPROC; i++ {
		pa := kalloc()
		if pa == 0 {
			panic("kvminit: kstack")
		}
		kvmmap(KSTACK(i), pa, PGSIZE, PTE_R|PTE_W)
	}
}

//go:linkname kvminithart kvminithart
func kvminithart()

// walk returns the address of the leaf PTE for va. If alloc, it allocates
// any missing intermediate page-table pages along the way.
func walk(pagetable pagetable_t, va uintptr, alloc bool) *pte_t {
	if va >= MAXVA {
		panic("walk")
	}

	for level := 2; level > 0; level-- {
		idx := PX(level, va)
		ptePtr := (*pte_t)(unsafe.Pointer(uintptr(pagetable) + idx*8))

		if *ptePtr&PTE_V != 0 {
			pagetable = pagetable_t(PTE2PA(*ptePtr))
		} else {
			if !alloc {
				return nil
			}

			newPage := kalloc()
			if newPage == 0 {
				return nil
			}

			memset(newPage, 0, uint(PGSIZE))

			*ptePtr = PA2PTE(newPage) | PTE_V
			pagetable = pagetable_t(newPage)
		}
	}

	idx0 := PX(0, va)
	return (*pte_t)(unsafe.Pointer(uintptr(pagetable) + idx0*8))
}

// walkaddr looks up a user virtual address, returns the physical address,
// or 0 if not mapped. Can only be used to look up user pages.
func walkaddr(pagetable pagetable_t, va uintptr) uintptr {
	if va >= MAXVA {
		return 0
	}

	pte := walk(pagetable, va, false)
	if pte == nil {
		return 0
	}
	if *pte&PTE_V == 0 {
		return 0
	}
	if *pte&PTE_U == 0 {
		return 0
	}
	return PTE2PA(*pte)
}

func kvmmap(va, pa, sz uintptr, perm int) {
	if mappages(kernel_pagetable, va, sz, pa, perm) != 0 {
		panic("kvmmap")
	}
}

// mappages maps a run of pages [va, va+size) to [pa, pa+size). size must
// be a multiple of PGSIZE. Fails if any target PTE is already valid.
func mappages(pagetable pagetable_t, va, size, pa uintptr, perm int) int {
	if size == 0 {
		panic("mappages: zero size")
	}

	a := PGROUNDDOWN(va)
	last := PGROUNDDOWN(va + size - 1)
	for {
		pte := walk(pagetable, a, true)
		if pte == nil {
			return -1
		}
		if *pte&PTE_V != 0 {
			return -1
		}
		*pte = PA2PTE(pa) | pte_t(perm) | PTE_V
		if a == last {
			break
		}
		a += PGSIZE
		pa += PGSIZE
	}
	return 0
}

// uvmunmap removes npages of mappings starting at va, which must be page
// aligned. Every PTE in the run must be a valid leaf. If freeFrame, the
// physical memory backing each page is also returned to the allocator.
func uvmunmap(pagetable pagetable_t, va uintptr, npages uintptr, freeFrame bool) {
	if va%PGSIZE != 0 {
		panic("uvmunmap: not aligned")
	}

	for a := va; a < va+npages*PGSIZE; a += PGSIZE {
		pte := walk(pagetable, a, false)
		if pte == nil {
			panic("uvmunmap: walk")
		}
		if *pte&PTE_V == 0 {
			panic("uvmunmap: not mapped")
		}
		if *pte&(PTE_R|PTE_W|PTE_X) == 0 {
			panic("uvmunmap: not a leaf")
		}
		if freeFrame {
			kfree(PTE2PA(*pte))
		}
		*pte = 0
	}
}

// uvmcreate allocates a fresh, empty user page table with only the
// trampoline and trapframe mapped — the two fixed mappings every user
// address space must carry (spec §3).
func uvmcreate(trapframe uintptr) pagetable_t {
	pg := kalloc()
	if pg == 0 {
		return 0
	}
	memset(pg, 0, uint(PGSIZE))
	pagetable := pagetable_t(pg)

	if mappages(pagetable, TRAMPOLINE, PGSIZE, trampoline_addr(), PTE_R|PTE_X) != 0 {
		uvmfree(pagetable, 0)
		return 0
	}
	if mappages(pagetable, TRAPFRAME, PGSIZE, trapframe, PTE_R|PTE_W) != 0 {
		uvmunmap(pagetable, TRAMPOLINE, 1, false)
		uvmfree(pagetable, 0)
		return 0
	}
	return pagetable
}

// uvmfirst loads the first user process's instructions and data into
// address 0 of pagetable, for the very first process. sz must be less
// than a page.
func uvmfirst(pagetable pagetable_t, code []byte) {
	if uintptr(len(code)) >= PGSIZE {
		panic("uvmfirst: more than a page")
	}

	mem := kalloc()
	if mem == 0 {
		panic("uvmfirst: out of memory")
	}
	memset(mem, 0, uint(PGSIZE))
	mappages(pagetable, 0, PGSIZE, mem, PTE_R|PTE_W|PTE_X|PTE_U)
	memmove(mem, unsafe.Pointer(&code[0]), uintptr(len(code)))
}

// uvmalloc grows a user address space from oldsz to newsz, allocating and
// mapping new physical frames eagerly (spec §4.3).
func uvmalloc(pagetable pagetable_t, oldsz, newsz uintptr, xperm int) uintptr {
	if newsz < oldsz {
		return oldsz
	}

	oldsz = PGROUNDUP(oldsz)
	for a := oldsz; a < newsz; a += PGSIZE {
		mem := kalloc()
		if mem == 0 {
			uvmdealloc(pagetable, a, oldsz)
			return 0
		}
		memset(mem, 0, uint(PGSIZE))
		if mappages(pagetable, a, PGSIZE, mem, PTE_R|PTE_U|xperm) != 0 {
			kfree(mem)
			uvmdealloc(pagetable, a, oldsz)
			return 0
		}
	}
	return newsz
}

// uvmdealloc shrinks a user address space from oldsz to newsz, unmapping
// and freeing every page strictly above the page containing newsz.
func uvmdealloc(pagetable pagetable_t, oldsz, newsz uintptr) uintptr {
	if newsz >= oldsz {
		return oldsz
	}

	if PGROUNDUP(newsz) < PGROUNDUP(oldsz) {
		npages := (PGROUNDUP(oldsz) - PGROUNDUP(newsz)) / PGSIZE
		uvmunmap(pagetable, PGROUNDUP(newsz), npages, true)
	}
	return newsz
}

// uvmfree frees the user memory of size sz bytes that a user page table
// maps, then the page-table pages themselves (the VMA table and trampoline/trapframe are handled by
// the caller, which knows their extents precisely).
func uvmfree(pagetable pagetable_t, sz uintptr) {
	if sz > 0 {
		uvmunmap(pagetable, 0, PGROUNDUP(sz)/PGSIZE, true)
	}
	freewalk(pagetable)
}

// freewalk recursively frees page-table pages. All leaf mappings must
// already have been removed.
func freewalk(pagetable pagetable_t) {
	for i := uintptr(0); i < 512; i++ {
		pte := (*pte_t)(unsafe.Pointer(uintptr(pagetable) + i*8))
		if *pte&PTE_V != 0 && *pte&(PTE_R|PTE_W|PTE_X) == 0 {
			// this PTE points to a lower-level page table.
			child := PTE2PA(*pte)
			freewalk(pagetable_t(child))
			*pte = 0
		} else if *pte&PTE_V != 0 {
			panic("freewalk: leaf")
		}
	}
	kfree(uintptr(pagetable))
}

// uvmcopy copies a parent's page table and memory into a freshly created
// child's, used by fork. Frees any pages it already allocated if it runs
// out of memory partway through.
func uvmcopy(old, new pagetable_t, sz uintptr) bool {
	for i := uintptr(0); i < sz; i += PGSIZE {
		pte := walk(old, i, false)
		if pte == nil {
			panic("uvmcopy: pte should exist")
		}
		if *pte&PTE_V == 0 {
			panic("uvmcopy: page not present")
		}
		pa := PTE2PA(*pte)
		flags := int(*pte) & 0x3FF

		mem := kalloc()
		if mem == 0 {
			uvmunmap(new, 0, i/PGSIZE, true)
			return false
		}
		memmove(mem, unsafe.Pointer(pa), PGSIZE)
		if mappages(new, i, PGSIZE, mem, flags) != 0 {
			kfree(mem)
			uvmunmap(new, 0, i/PGSIZE, true)
			return false
		}
	}
	return true
}

// uvmclear marks a PTE invalid for user access, used by exec to protect
// the guard page below the user stack.
func uvmclear(pagetable pagetable_t, va uintptr) {
	pte := walk(pagetable, va, false)
	if pte == nil {
		panic("uvmclear")
	}
	*pte &^= PTE_U
}

// copyout copies n bytes from kernel address src to user address dstva in
// the given page table, one physical page at a time. Fails if any page
// in the range is unmapped.
func copyout(pagetable pagetable_t, dstva uintptr, src uintptr, n uintptr) bool {
	for n > 0 {
		va0 := PGROUNDDOWN(dstva)
		pa0 := walkaddr(pagetable, va0)
		if pa0 == 0 {
			return false
		}
		n0 := PGSIZE - (dstva - va0)
		if n0 > n {
			n0 = n
		}
		memmove(pa0+(dstva-va0), unsafe.Pointer(src), n0)

		n -= n0
		src += n0
		dstva = va0 + PGSIZE
	}
	return true
}

// copyin copies n bytes from user address srcva to kernel address dst, the
// inverse of copyout.
func copyin(pagetable pagetable_t, dst uintptr, srcva uintptr, n uintptr) bool {
	for n > 0 {
		va0 := PGROUNDDOWN(srcva)
		pa0 := walkaddr(pagetable, va0)
		if pa0 == 0 {
			return false
		}
		n0 := PGSIZE - (srcva - va0)
		if n0 > n {
			n0 = n
		}
		memmove(dst, unsafe.Pointer(pa0+(srcva-va0)), n0)

		n -= n0
		dst += n0
		srcva = va0 + PGSIZE
	}
	return true
}

// copyinstr copies a NUL-terminated string from user address srcva to
// kernel address dst, up to max bytes. Returns false if it ran off the
// end of max without finding a NUL, or hit an unmapped page.
func copyinstr(pagetable pagetable_t, dst uintptr, srcva uintptr, max uintptr) bool {
	var got uintptr
	for got < max {
		va0 := PGROUNDDOWN(srcva)
		pa0 := walkaddr(pagetable, va0)
		if pa0 == 0 {
			return false
		}
		n := PGSIZE - (srcva - va0)
		if n > max-got {
			n = max - got
		}

		p := pa0 + (srcva - va0)
		for i := uintptr(0); i < n; i++ {
			c := *(*byte)(unsafe.Pointer(p + i))
			*(*byte)(unsafe.Pointer(dst + got + i)) = c
			if c == 0 {
				return true
			}
		}

		got += n
		srcva = va0 + PGSIZE
	}
	return false
}
