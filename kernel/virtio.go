package main

import "unsafe"

// virtio.go drives qemu's legacy virtio-blk MMIO device. Ground: layout
// and init sequence from original_source/src/virtio.rs; original_source
// never implements the actual read/write path (only device probing), so
// disk_rw/intr below follow the well-known xv6 virtio_disk.c descriptor
// protocol instead, adapted to this kernel's Go idioms.

const virtioNumDesc = 8 // must be a power of two

const (
	vRegMagic       = 0x000
	vRegVersion     = 0x004
	vRegDeviceID    = 0x008
	vRegVendorID    = 0x00c
	vRegDevFeatures = 0x010
	vRegDrvFeatures = 0x020
	vRegGuestPage   = 0x028
	vRegQueueSel    = 0x030
	vRegQueueNumMax = 0x034
	vRegQueueNum    = 0x038
	vRegQueuePFN    = 0x040
	vRegQueueNotify = 0x050
	vRegInterruptSt = 0x060
	vRegInterruptAk = 0x064
	vRegStatus      = 0x070
)

const (
	vStatusAck       = 1
	vStatusDriver    = 2
	vStatusDriverOK  = 4
	vStatusFeaturesOK = 8
)

const (
	vBlkFRO         = 5
	vBlkFSCSI       = 7
	vBlkFConfigWCE  = 11
	vBlkFMQ         = 12
	vFAnyLayout     = 27
	vRingFIndirect  = 28
	vRingFEventIdx  = 29
)

const (
	vringDescFNext  = 1
	vringDescFWrite = 2
)

const (
	virtioBlkTIn  = 0
	virtioBlkTOut = 1
)

type virtqDesc struct {
	addr  uint64
	len   uint32
	flags uint16
	next  uint16
}

type virtqAvail struct {
	flags uint16
	idx   uint16
	ring  [virtioNumDesc]uint16
	// no event index field: legacy layout
}

type virtqUsedElem struct {
	id  uint32
	len uint32
}

type virtqUsed struct {
	flags uint16
	idx   uint16
	ring  [virtioNumDesc]virtqUsedElem
}

// diskT lays out the three virtqueue regions contiguously, page-aligned,
// exactly as the legacy virtio spec requires for a single guest-physical
// queue address.
type diskT struct {
	desc  [virtioNumDesc]virtqDesc
	_pad0 [PGSIZE - (virtioNumDesc*16)%PGSIZE]byte
	avail virtqAvail
	_pad1 [PGSIZE - (2+2+virtioNumDesc*2)%PGSIZE]byte
	used  virtqUsed

	free       [virtioNumDesc]bool
	usedIdx    uint16
	info       [virtioNumDesc]diskInfo
	ops        [virtioNumDesc]virtioBlkReq

	lock spinlock
}

type diskInfo struct {
	chanReady bool
	status    byte
}

type virtioBlkReq struct {
	typ      uint32
	reserved uint32
	sector   uint64
}

var disk diskT

func vRead(off uintptr) uint32 { return *(*uint32)(unsafe.Pointer(VIRTIO0 + off)) }
func vWrite(off uintptr, v uint32) { *(*uint32)(unsafe.Pointer(VIRTIO0 + off)) = v }

func virtio_disk_init() {
	initlock(&disk.lock, "virtio_disk")

	if vRead(vRegMagic) != 0x74726976 || vRead(vRegVersion) != 1 ||
		vRead(vRegDeviceID) != 2 || vRead(vRegVendorID) != 0x554d4551 {
		panic("virtio disk: could not find device")
	}

	var status uint32
	status |= vStatusAck
	vWrite(vRegStatus, status)
	status |= vStatusDriver
	vWrite(vRegStatus, status)

	features := vRead(vRegDevFeatures)
	features &^= 1 << vBlkFRO
	features &^= 1 << vBlkFSCSI
	features &^= 1 << vBlkFConfigWCE
	features &^= 1 << vBlkFMQ
	features &^= 1 << vFAnyLayout
	features &^= 1 << vRingFEventIdx
	features &^= 1 << vRingFIndirect
	vWrite(vRegDrvFeatures, features)

	status |= vStatusFeaturesOK
	vWrite(vRegStatus, status)

	status |= vStatusDriverOK
	vWrite(vRegStatus, status)

	vWrite(vRegGuestPage, uint32(PGSIZE))

	vWrite(vRegQueueSel, 0)
	max := vRead(vRegQueueNumMax)
	if max == 0 {
		panic("virtio disk: no queue 0")
	}
	if max < virtioNumDesc {
		panic("virtio disk: queue too short")
	}
	vWrite(vRegQueueNum, virtioNumDesc)

	pfn := uintptr(unsafe.Pointer(&disk)) >> 12
	vWrite(vRegQueuePFN, uint32(pfn))

	for i := range disk.free {
		disk.free[i] = true
	}
}

// alloc_desc finds a free descriptor. Caller holds disk.lock.
func alloc_desc() int {
	for i := range disk.free {
		if disk.free[i] {
			disk.free[i] = false
			return i
		}
	}
	return -1
}

func free_desc(i int) {
	disk.desc[i] = virtqDesc{}
	disk.free[i] = true
	wakeup(uintptr(unsafe.Pointer(&disk.free[0])))
}

func free_chain(i int) {
	for {
		d := &disk.desc[i]
		next := d.next
		hasNext := d.flags&vringDescFNext != 0
		free_desc(i)
		if !hasNext {
			break
		}
		i = int(next)
	}
}

func alloc3_desc(idx *[3]int) bool {
	for i := 0; i < 3; i++ {
		d := alloc_desc()
		if d < 0 {
			for j := 0; j < i; j++ {
				free_desc(idx[j])
			}
			return false
		}
		idx[i] = d
	}
	return true
}

// disk_rw performs one synchronous 512-byte-sector-aligned, BSIZE-length
// transfer, blocking the caller until virtio_disk_intr wakes it. buf must
// point to a BSIZE-byte kernel buffer.
func disk_rw(buf uintptr, blockno uint32, write bool) {
	sector := uint64(blockno) * (BSIZE / 512)

	acquire(&disk.lock)

	var idx [3]int
	for !alloc3_desc(&idx) {
		sleep(uintptr(unsafe.Pointer(&disk.free[0])), &disk.lock)
	}

	req := &disk.ops[idx[0]]
	if write {
		req.typ = virtioBlkTOut
	} else {
		req.typ = virtioBlkTIn
	}
	req.reserved = 0
	req.sector = sector

	disk.desc[idx[0]] = virtqDesc{
		addr:  uint64(uintptr(unsafe.Pointer(req))),
		len:   uint32(unsafe.Sizeof(*req)),
		flags: vringDescFNext,
		next:  uint16(idx[1]),
	}

	dataFlags := uint16(vringDescFNext)
	if !write {
		dataFlags |= vringDescFWrite
	}
	disk.desc[idx[1]] = virtqDesc{
		addr:  uint64(buf),
		len:   BSIZE,
		flags: dataFlags,
		next:  uint16(idx[2]),
	}

	disk.info[idx[0]].status = 0xff
	disk.desc[idx[2]] = virtqDesc{
		addr:  uint64(uintptr(unsafe.Pointer(&disk.info[idx[0]].status))),
		len:   1,
		flags: vringDescFWrite,
		next:  0,
	}

	disk.info[idx[0]].chanReady = true

	disk.avail.ring[disk.avail.idx%virtioNumDesc] = uint16(idx[0])
	sync_barrier()
	disk.avail.idx++
	sync_barrier()

	vWrite(vRegQueueNotify, 0)

	for disk.info[idx[0]].chanReady {
		sleep(uintptr(unsafe.Pointer(&disk.info[idx[0]])), &disk.lock)
	}

	free_chain(idx[0])

	release(&disk.lock)
}

// virtio_disk_intr is called from devintr on the virtio IRQ. It walks the
// used ring for completed requests and wakes whoever is waiting on each.
func virtio_disk_intr() {
	acquire(&disk.lock)

	vWrite(vRegInterruptAk, vRead(vRegInterruptSt)&0x3)

	for disk.usedIdx != disk.used.idx {
		sync_barrier()
		id := int(disk.used.ring[disk.usedIdx%virtioNumDesc].id)
		disk.info[id].chanReady = false
		wakeup(uintptr(unsafe.Pointer(&disk.info[id])))
		disk.usedIdx++
	}

	release(&disk.lock)
}
