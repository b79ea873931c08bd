package main

import "unsafe"

// get_end returns the address of the `end` symbol emitted by the linker
// script: the first byte past the kernel's text/data/bss.
//
//go:linkname get_end get_end
func get_end() uintptr

// Physical page allocator. Hands out 4 KiB frames from a free list built
// once at boot over [end, PHYSTOP). No coalescing; every allocation is a
// single page. Ground: teacher kalloc.go, generalized per spec §4.2 with
// the lock the teacher left commented out and the alloc-side poison fill.
type run struct {
	next *run
}

type kmemT struct {
	lock     spinlock
	freelist *run
}

var kmem kmemT

const (
	allocPoison = 0x5A // fill on kalloc, before the caller overwrites it
	freePoison  = 0xA5 // fill on kfree, to catch use-after-free
)

func kinit() {
	initlock(&kmem.lock, "kmem")
	bssEnd := get_end()
	printf("kinit: [%d, %d)\n", int(bssEnd), int(PHYSTOP))
	freerange(bssEnd, PHYSTOP)
}

func freerange(paStart, paEnd uintptr) {
	printf("freerange: [%d, %d)\n", int(paStart), int(paEnd))
	p := PGROUNDUP(paStart)
	for ; p+PGSIZE <= paEnd; p += PGSIZE {
		kfree(p)
	}
}

// kfree returns a page of physical memory to the free list. Caller must
// have allocated it with kalloc and be done with it.
func kfree(pa uintptr) {
	bssEnd := get_end()
	if pa%PGSIZE != 0 || pa < bssEnd || pa >= PHYSTOP {
		panic("kfree")
	}

	memset(pa, freePoison, uint(PGSIZE))

	r := (*run)(unsafe.Pointer(pa))

	acquire(&kmem.lock)
	r.next = kmem.freelist
	kmem.freelist = r
	release(&kmem.lock)
}

// kalloc allocates one 4096-byte page of physical memory. Returns 0 if the
// memory cannot be allocated; callers surface that as a resource-exhaustion
// error rather than panicking, since running out of frames is an expected
// condition (spec §7).
func kalloc() uintptr {
	acquire(&kmem.lock)
	r := kmem.freelist
	if r != nil {
		kmem.freelist = r.next
	}
	release(&kmem.lock)

	if r != nil {
		memset(uintptr(unsafe.Pointer(r)), allocPoison, uint(PGSIZE))
	}
	return uintptr(unsafe.Pointer(r))
}
