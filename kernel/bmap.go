package main

// bmap.go is the free-block bitmap allocator: one bit per block, packed
// BPB bits to a block starting at sb.bmapstart. Ground:
// original_source/src/bmap.rs.

const bpb = BSIZE * 8

func bmap_block(bn uint32) uint32 {
	return bn/bpb + sb.bmapstart
}

// balloc finds a free block, marks it used in the bitmap, zeroes it, and
// returns its block number. Panics if the disk is full.
func balloc(dev uint32) uint32 {
	for base := uint32(0); base < sb.size; base += bpb {
		buf := bread(dev, bmap_block(base))

		for offset := uint32(0); offset < bpb; offset++ {
			if base+offset >= sb.size {
				break
			}
			index := offset / 8
			bit := offset % 8
			if buf.data[index]&(1<<bit) != 0 {
				continue
			}
			buf.data[index] |= 1 << bit
			blockno := base + offset
			log_write(buf)
			brelse(buf)
			bzero(dev, blockno)
			return blockno
		}
		brelse(buf)
	}
	panic("balloc: out of blocks")
}

// bfree marks a block free in the bitmap.
func bfree(dev uint32, bn uint32) {
	buf := bread(dev, bmap_block(bn))
	bi := bn % bpb
	index := bi / 8
	bit := bi % 8
	if buf.data[index]&(1<<bit) == 0 {
		panic("bfree: freeing free block")
	}
	buf.data[index] &^= 1 << bit
	log_write(buf)
	brelse(buf)
}

func bzero(dev uint32, blockno uint32) {
	buf := bread(dev, blockno)
	buf.data = [BSIZE]byte{}
	log_write(buf)
	brelse(buf)
}
