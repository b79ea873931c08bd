package main

import "unsafe"

// inode.go is the in-memory inode table sitting on top of the on-disk
// inode layout: NINODE cached inodes, each guarded by its own sleeplock
// so path lookups on different directories can proceed concurrently.
// Ground: original_source/src/fs.rs InodeTable/InodeData, cross-checked
// against real xv6's iget/iput discipline for the itable-lock/sleeplock
// handoff in iput.

type inodeType uint16

const (
	T_EMPTY    inodeType = 0
	T_DIR      inodeType = 1
	T_FILE     inodeType = 2
	T_DEVICE   inodeType = 3
)

const NDIRECT = 12
const NINDIRECT = BSIZE / 4
const MAXFILE = NDIRECT + NINDIRECT

// diskInode is the on-disk representation of one file or directory.
type diskInode struct {
	typ   inodeType
	major uint16
	minor uint16
	nlink uint16
	size  uint32
	addrs [NDIRECT + 1]uint32
}

const IPB = BSIZE / int(unsafe.Sizeof(diskInode{}))

func inode_block(inum uint32) uint32 {
	return inum/uint32(IPB) + sb.inodestart
}

func inode_offset(inum uint32) uintptr {
	return uintptr(inum % uint32(IPB))
}

type inodeMeta struct {
	dev    uint32
	inum   uint32
	refcnt int
}

type inodeData struct {
	valid  bool
	lock   sleeplock
	dinode diskInode
}

var itable struct {
	lock spinlock
	meta [NINODE]inodeMeta
	data [NINODE]inodeData
}

func iinit() {
	initlock(&itable.lock, "itable")
	for i := range itable.data {
		initsleeplock(&itable.data[i].lock, "inode")
	}
}

// inode is a handle to a table entry: dev/inum identify the file, index
// locates the cached copy. The zero value names table slot 0 and passes
// valid(); a caller with no cwd uses inodeNone, which valid() rejects.
type inode struct {
	dev   uint32
	inum  uint32
	index int
}

var inodeNone = inode{index: -1}

func (ip inode) valid() bool { return ip.index >= 0 }

// iget finds or creates the table entry for dev/inum and bumps its
// refcount, without reading it from disk (that's ilock's job).
func iget(dev, inum uint32) inode {
	acquire(&itable.lock)

	empty := -1
	for i := range itable.meta {
		m := &itable.meta[i]
		if m.refcnt > 0 && m.dev == dev && m.inum == inum {
			m.refcnt++
			release(&itable.lock)
			return inode{dev, inum, i}
		}
		if empty == -1 && m.refcnt == 0 {
			empty = i
		}
	}
	if empty == -1 {
		panic("iget: no inodes")
	}

	m := &itable.meta[empty]
	m.dev = dev
	m.inum = inum
	m.refcnt = 1
	itable.data[empty].valid = false
	release(&itable.lock)
	return inode{dev, inum, empty}
}

func idup(ip inode) inode {
	if !ip.valid() {
		return ip
	}
	acquire(&itable.lock)
	itable.meta[ip.index].refcnt++
	release(&itable.lock)
	return ip
}

// iput drops a reference. If it was the last one and the inode has no
// links, the inode and its content are freed; must be called inside a
// begin_op/end_op transaction in that case.
func iput(ip inode) {
	if !ip.valid() {
		return
	}
	acquire(&itable.lock)

	m := &itable.meta[ip.index]
	if m.refcnt == 1 {
		release(&itable.lock)
		ilock(ip)
		d := &itable.data[ip.index]
		if d.valid && d.dinode.nlink == 0 {
			itrunc(ip)
			d.dinode.typ = T_EMPTY
			iupdate(ip)
			d.valid = false
		}
		iunlock(ip)
		acquire(&itable.lock)
	}

	m.refcnt--
	release(&itable.lock)
}

// ilock loads ip's on-disk contents if not already cached, and returns a
// pointer to its data, valid until iunlock.
func ilock(ip inode) *inodeData {
	if !ip.valid() {
		panic("ilock: nil inode")
	}
	d := &itable.data[ip.index]
	acquiresleep(&d.lock)

	if !d.valid {
		b := bread(ip.dev, inode_block(ip.inum))
		src := (*diskInode)(unsafe.Pointer(&b.data[inode_offset(ip.inum)*unsafe.Sizeof(diskInode{})]))
		d.dinode = *src
		brelse(b)
		if d.dinode.typ == T_EMPTY {
			panic("ilock: no type")
		}
		d.valid = true
	}
	return d
}

func iunlock(ip inode) {
	d := &itable.data[ip.index]
	if !holdingsleep(&d.lock) {
		panic("iunlock: not locked")
	}
	releasesleep(&d.lock)
}

func iunlockput(ip inode) {
	iunlock(ip)
	iput(ip)
}

// iupdate writes ip's cached diskInode back to its disk block. Caller
// must hold ip's sleeplock and be inside a transaction.
func iupdate(ip inode) {
	d := &itable.data[ip.index]
	b := bread(ip.dev, inode_block(ip.inum))
	dst := (*diskInode)(unsafe.Pointer(&b.data[inode_offset(ip.inum)*unsafe.Sizeof(diskInode{})]))
	*dst = d.dinode
	log_write(b)
	brelse(b)
}

// ialloc scans the inode region for a free (Empty-typed) slot, marks it
// typ, and returns a reference to it via iget.
func ialloc(dev uint32, typ inodeType) inode {
	for inum := uint32(1); inum < sb.ninodes; inum++ {
		b := bread(dev, inode_block(inum))
		dip := (*diskInode)(unsafe.Pointer(&b.data[inode_offset(inum)*unsafe.Sizeof(diskInode{})]))
		if dip.typ == T_EMPTY {
			*dip = diskInode{}
			dip.typ = typ
			log_write(b)
			brelse(b)
			return iget(dev, inum)
		}
		brelse(b)
	}
	panic("ialloc: no free inodes")
}

// bmap returns the disk block number of the offset'th block of ip's
// content, allocating one (and, past NDIRECT, its indirect block) if it
// does not exist yet.
func bmap(d *inodeData, dev uint32, offset uint32) uint32 {
	if offset < NDIRECT {
		if d.dinode.addrs[offset] == 0 {
			d.dinode.addrs[offset] = balloc(dev)
		}
		return d.dinode.addrs[offset]
	}
	offset -= NDIRECT

	if offset < NINDIRECT {
		if d.dinode.addrs[NDIRECT] == 0 {
			d.dinode.addrs[NDIRECT] = balloc(dev)
		}
		ib := bread(dev, d.dinode.addrs[NDIRECT])
		entries := (*[NINDIRECT]uint32)(unsafe.Pointer(&ib.data[0]))
		bn := entries[offset]
		if bn == 0 {
			bn = balloc(dev)
			entries[offset] = bn
			log_write(ib)
		}
		brelse(ib)
		return bn
	}

	panic("bmap: out of range")
}

// itrunc discards ip's content, freeing every block it owns.
func itrunc(ip inode) {
	d := &itable.data[ip.index]

	for i := 0; i < NDIRECT; i++ {
		if d.dinode.addrs[i] != 0 {
			bfree(ip.dev, d.dinode.addrs[i])
			d.dinode.addrs[i] = 0
		}
	}

	if d.dinode.addrs[NDIRECT] != 0 {
		ib := bread(ip.dev, d.dinode.addrs[NDIRECT])
		entries := (*[NINDIRECT]uint32)(unsafe.Pointer(&ib.data[0]))
		for i := 0; i < NINDIRECT; i++ {
			if entries[i] != 0 {
				bfree(ip.dev, entries[i])
			}
		}
		brelse(ib)
		bfree(ip.dev, d.dinode.addrs[NDIRECT])
		d.dinode.addrs[NDIRECT] = 0
	}

	d.dinode.size = 0
	iupdate(ip)
}

// readi copies min(n, size-offset) bytes from ip's content at offset to
// dst, a user address if userDst else a kernel one.
func readi(ip inode, userDst bool, dst uintptr, offset, n uint32) (uint32, bool) {
	d := &itable.data[ip.index]

	if uint64(offset)+uint64(n) > uint64(d.dinode.size) {
		if offset > d.dinode.size {
			return 0, false
		}
		n = d.dinode.size - offset
	}

	total := n
	for n > 0 {
		b := bread(ip.dev, bmap(d, ip.dev, offset/BSIZE))
		readN := BSIZE - offset%BSIZE
		if readN > n {
			readN = n
		}
		if !either_copyout(userDst, dst, &b.data[offset%BSIZE], uintptr(readN)) {
			brelse(b)
			return 0, false
		}
		brelse(b)
		offset += readN
		n -= readN
		dst += uintptr(readN)
	}
	return total, true
}

// writei copies n bytes from src (user address if userSrc, else kernel)
// into ip's content at offset, growing the file and updating its size.
func writei(ip inode, userSrc bool, src uintptr, offset, n uint32) (uint32, bool) {
	d := &itable.data[ip.index]

	if uint64(offset)+uint64(n) > MAXFILE*BSIZE {
		return 0, false
	}

	total := n
	for n > 0 {
		b := bread(ip.dev, bmap(d, ip.dev, offset/BSIZE))
		writeN := BSIZE - offset%BSIZE
		if writeN > n {
			writeN = n
		}
		if !either_copyin(userSrc, &b.data[offset%BSIZE], src, uintptr(writeN)) {
			brelse(b)
			break
		}
		log_write(b)
		brelse(b)
		offset += writeN
		n -= writeN
		src += uintptr(writeN)
	}

	if offset > d.dinode.size {
		d.dinode.size = offset
	}
	iupdate(ip)

	return total - n, n == 0
}

type fileStat struct {
	dev   int32
	inum  uint32
	typ   inodeType
	nlink uint16
	size  uint64
}

func stati(ip inode, out *fileStat) {
	d := &itable.data[ip.index]
	out.dev = int32(ip.dev)
	out.inum = ip.inum
	out.typ = d.dinode.typ
	out.nlink = d.dinode.nlink
	out.size = uint64(d.dinode.size)
}
