package main

import "unsafe"

// log.go is the write-ahead journal that makes multi-block filesystem
// operations crash-atomic: every block a syscall touches is copied into
// the on-disk log first, committed with one header write, then installed
// to its home location. Ground: original_source/src/log.rs.

type logHeader struct {
	n        uint32
	blocknos [LOGSIZE]uint32
}

type logT struct {
	lock        spinlock
	start       uint32
	size        uint32
	outstanding int
	committing  bool
	dev         uint32
	header      logHeader
}

var log logT

func initlog(dev uint32, sb *superblockT) {
	initlock(&log.lock, "log")
	log.start = sb.logstart
	log.size = sb.nlog
	log.dev = dev
	recover_from_log()
}

func read_head() {
	b := bread(log.dev, log.start)
	memmove(uintptr(unsafe.Pointer(&log.header)), unsafe.Pointer(&b.data[0]), unsafe.Sizeof(log.header))
	brelse(b)
}

func write_head() {
	b := bread(log.dev, log.start)
	memmove(uintptr(unsafe.Pointer(&b.data[0])), unsafe.Pointer(&log.header), unsafe.Sizeof(log.header))
	bwrite(b)
	brelse(b)
}

// install_trans copies each block recorded in the header from its log
// slot to its home location. If recovering, the copy left over from a
// pre-crash commit is not yet pinned in the cache, so it must not be
// unpinned here.
func install_trans(recovering bool) {
	for tail := uint32(0); tail < log.header.n; tail++ {
		lbuf := bread(log.dev, log.start+tail+1)
		dbuf := bread(log.dev, log.header.blocknos[tail])
		dbuf.data = lbuf.data
		bwrite(dbuf)
		if !recovering {
			bunpin(dbuf)
		}
		brelse(lbuf)
		brelse(dbuf)
	}
}

func recover_from_log() {
	read_head()
	install_trans(true)
	log.header.n = 0
	write_head()
}

// begin_op reserves room in the log for one filesystem syscall, blocking
// while a commit is in progress or too little log space remains.
func begin_op() {
	acquire(&log.lock)
	for {
		if log.committing {
			sleep(uintptr(unsafe.Pointer(&log)), &log.lock)
			continue
		}
		if int(log.header.n)+(log.outstanding+1)*MAXOPBLOCKS > LOGSIZE {
			sleep(uintptr(unsafe.Pointer(&log)), &log.lock)
			continue
		}
		log.outstanding++
		release(&log.lock)
		break
	}
}

// end_op ends one filesystem syscall's participation in the current
// transaction, committing it if this was the last one outstanding.
func end_op() {
	acquire(&log.lock)
	log.outstanding--
	if log.committing {
		panic("end_op: already committing")
	}

	doCommit := log.outstanding == 0
	if doCommit {
		log.committing = true
	} else {
		wakeup(uintptr(unsafe.Pointer(&log)))
	}
	release(&log.lock)

	if doCommit {
		commit()
		acquire(&log.lock)
		log.committing = false
		wakeup(uintptr(unsafe.Pointer(&log)))
		release(&log.lock)
	}
}

func write_log() {
	for tail := uint32(0); tail < log.header.n; tail++ {
		from := bread(log.dev, log.header.blocknos[tail])
		to := bread(log.dev, log.start+tail+1)
		to.data = from.data
		bwrite(to)
		brelse(from)
		brelse(to)
	}
}

func commit() {
	if log.header.n > 0 {
		write_log()
		write_head() // real commit point
		install_trans(false)
		log.header.n = 0
		write_head() // erase the transaction from the log
	}
}

// log_write records that buf's block will be written by the current
// transaction, in place of a direct bwrite. The actual disk write
// happens once at commit; writing the same block twice in one
// transaction absorbs into a single log slot.
func log_write(b *bufT) {
	acquire(&log.lock)

	if int(log.header.n) >= LOGSIZE || log.header.n >= log.size-1 {
		panic("log_write: too big a transaction")
	}
	if log.outstanding < 1 {
		panic("log_write: outside of trans")
	}

	i := uint32(0)
	for ; i < log.header.n; i++ {
		if log.header.blocknos[i] == b.blockno {
			break
		}
	}
	log.header.blocknos[i] = b.blockno
	if i == log.header.n {
		bpin(b)
		log.header.n++
	}

	release(&log.lock)
}
