package main

import "unsafe"

// A lock that yields the CPU while waiting to acquire, and allows a
// process to sleep, hold it, and be rescheduled while still holding it.
// Sleeplocks wrap a spinlock purely to serialize the handful of ticks
// spent mutating `locked`/`chan`; the wait itself happens in sleep(),
// off the spinlock.
//
// Spinlocks may not be held across a blocking call; sleeplocks may.
type sleeplock struct {
	lk     spinlock
	locked bool
	chan_  uintptr // sleep/wakeup channel: the lock's own address
	name   string
}

func initsleeplock(lk *sleeplock, name string) {
	initlock(&lk.lk, name)
	lk.name = name
	lk.locked = false
	lk.chan_ = uintptr(unsafe.Pointer(lk))
}

func acquiresleep(lk *sleeplock) {
	acquire(&lk.lk)
	for lk.locked {
		sleep(lk.chan_, &lk.lk)
	}
	lk.locked = true
	release(&lk.lk)
}

func releasesleep(lk *sleeplock) {
	acquire(&lk.lk)
	lk.locked = false
	wakeup(lk.chan_)
	release(&lk.lk)
}

func holdingsleep(lk *sleeplock) bool {
	acquire(&lk.lk)
	r := lk.locked
	release(&lk.lk)
	return r
}
