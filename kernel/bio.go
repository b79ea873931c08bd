package main

import "unsafe"

// bio.go is the buffer cache: NBUF cached copies of disk blocks, each
// behind its own sleeplock, kept on an LRU list so bget can recycle the
// block least recently used elsewhere when the requested one isn't
// cached. Ground: original_source/kernel/src/bio.rs BCache/BufMetaLru.

const BSIZE = 4096

type bufT struct {
	valid   bool
	dev     uint32
	blockno uint32
	refcnt  int
	prev    *bufT
	next    *bufT
	lock    sleeplock
	data    [BSIZE]byte
}

var bcache struct {
	lock spinlock
	buf  [NBUF]bufT

	// buf.prev/buf.next form a circular doubly linked list; head.next is
	// most recently used.
	head bufT
}

func binit() {
	initlock(&bcache.lock, "bcache")

	bcache.head.prev = &bcache.head
	bcache.head.next = &bcache.head
	for i := range bcache.buf {
		b := &bcache.buf[i]
		b.next = bcache.head.next
		b.prev = &bcache.head
		initsleeplock(&b.lock, "buffer")
		bcache.head.next.prev = b
		bcache.head.next = b
	}
}

// bget looks for dev/blockno in the cache, or recycles the LRU unheld
// buffer for it, and returns it locked.
func bget(dev uint32, blockno uint32) *bufT {
	acquire(&bcache.lock)

	for b := bcache.head.next; b != &bcache.head; b = b.next {
		if b.dev == dev && b.blockno == blockno {
			b.refcnt++
			release(&bcache.lock)
			acquiresleep(&b.lock)
			return b
		}
	}

	for b := bcache.head.prev; b != &bcache.head; b = b.prev {
		if b.refcnt == 0 {
			b.dev = dev
			b.blockno = blockno
			b.valid = false
			b.refcnt = 1
			release(&bcache.lock)
			acquiresleep(&b.lock)
			return b
		}
	}

	panic("bget: no buffers")
}

// bread returns a locked buffer holding the contents of the given block,
// reading it from disk first if it wasn't already cached.
func bread(dev uint32, blockno uint32) *bufT {
	b := bget(dev, blockno)
	if !b.valid {
		disk_rw(uintptr(unsafe.Pointer(&b.data[0])), b.blockno, false)
		b.valid = true
	}
	return b
}

// bwrite writes b's cached content to disk. Caller must hold b's lock.
func bwrite(b *bufT) {
	if !holdingsleep(&b.lock) {
		panic("bwrite: not locked")
	}
	disk_rw(uintptr(unsafe.Pointer(&b.data[0])), b.blockno, true)
}

// brelse releases a locked buffer, moving it to the front of the LRU
// list if nothing else references it.
func brelse(b *bufT) {
	if !holdingsleep(&b.lock) {
		panic("brelse: not locked")
	}
	releasesleep(&b.lock)

	acquire(&bcache.lock)
	b.refcnt--
	if b.refcnt == 0 {
		b.next.prev = b.prev
		b.prev.next = b.next
		b.next = bcache.head.next
		b.prev = &bcache.head
		bcache.head.next.prev = b
		bcache.head.next = b
	}
	release(&bcache.lock)
}

func bpin(b *bufT) {
	acquire(&bcache.lock)
	b.refcnt++
	release(&bcache.lock)
}

func bunpin(b *bufT) {
	acquire(&bcache.lock)
	b.refcnt--
	release(&bcache.lock)
}
