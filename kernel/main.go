package main

// main.go is the kernel's boot path. Hart 0 brings up every subsystem
// once; the other harts wait for it and then just join the scheduler.
// Ground: original_source/src/main.rs's rust_main, staged the same way
// (memory, page tables, per-subsystem init, then userinit on hart 0
// only, then trapinithart/scheduler on every hart).

var started bool

//export KMain
func KMain() {
	if cpuid() == 0 {
		consoleinit()
		printfinit()
		printf("rv6 booting\n")

		kinit()
		kvminit()
		kvminithart()
		procinit()
		ticksinit()
		trapinithart()
		plicinit()
		plicinithart()
		binit()
		iinit()
		fileinit()
		pipeinit()
		socketinit()
		virtio_disk_init()

		devsw[CONSOLE] = devT{read: consoleread, write: consolewrite}

		userinit()

		started = true
	} else {
		for !started {
		}
		kvminithart()
		trapinithart()
		plicinithart()
	}

	printf("hart %d starting\n", cpuid())
	scheduler()
}

func main() {}