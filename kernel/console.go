package main

import "unsafe"

// console.go implements the line-buffered terminal discipline that sits
// between the raw UART and file reads/writes on fd 0/1/2: backspace
// handling, echo, and a 128-byte ring that release a blocked reader one
// full line (or ^D) at a time. Ground: original_source/src/console.rs.

const inputBufSize = 128

const (
	ctrlD  = 0x04
	ctrlBS = 0x08
	ctrlLF = 0x0A
	ctrlCR = 0x0D
	backspaceEcho = 0x7f
)

type consoleT struct {
	lock spinlock
	buf  [inputBufSize]byte
	r    uint // consumed by read()
	w    uint // delivered to read() by intr
	e    uint // edited, not yet delivered
}

var console consoleT

func consoleinit() {
	initlock(&console.lock, "console")
	uartinit()
	uartTxInit()
}

func consoleputc(c byte) {
	uart_putc_sync(c)
}

// consoleintr handles one received byte: backspace edits the pending
// line, anything else is echoed and appended, and a newline or ^D (or a
// full buffer) hands the line to whatever is sleeping in consoleread.
func consoleintr(c byte) {
	acquire(&console.lock)

	switch c {
	case ctrlBS, backspaceEcho:
		if console.e != console.w {
			console.e--
			consoleputc(ctrlBS)
			consoleputc(' ')
			consoleputc(ctrlBS)
		}
	default:
		if c != 0 && console.e-console.r < inputBufSize {
			if c == ctrlCR {
				c = ctrlLF
			}
			consoleputc(c)
			console.buf[console.e%inputBufSize] = c
			console.e++
			if c == ctrlLF || c == ctrlD || console.e == console.r+inputBufSize {
				console.w = console.e
				wakeup(consoleChan())
			}
		}
	}

	release(&console.lock)
}

// consoleChan is the sleep/wakeup channel for "new console input
// arrived": the address of the read index itself, exactly as xv6 uses
// &cons.r.
func consoleChan() uintptr {
	return uintptr(unsafe.Pointer(&console.r))
}

// consoleread copies up to n bytes of terminal input to user or kernel
// address dst, blocking until at least one full line (or ^D) is
// available. Returns the number of bytes copied, or -1 if killed.
func consoleread(userDst bool, dst uintptr, n int) int {
	target := n
	acquire(&console.lock)

	for n > 0 {
		for console.r == console.w {
			if killed(myproc()) {
				release(&console.lock)
				return -1
			}
			sleep(consoleChan(), &console.lock)
		}

		c := console.buf[console.r%inputBufSize]
		console.r++

		if c == ctrlD {
			if n < target {
				console.r--
			}
			break
		}

		cb := c
		if !either_copyout(userDst, dst, &cb, 1) {
			break
		}
		dst++
		n--

		if c == ctrlLF {
			break
		}
	}

	release(&console.lock)
	return target - n
}

// consolewrite copies n bytes from user or kernel address src to the
// terminal, one at a time through the buffered UART transmit path.
func consolewrite(userSrc bool, src uintptr, n int) int {
	for i := 0; i < n; i++ {
		var c byte
		if !either_copyin(userSrc, &c, src+uintptr(i), 1) {
			return i
		}
		uartputc(c)
	}
	return n
}
