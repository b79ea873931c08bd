package main

import "unsafe"

// 16550a UART, memory-mapped at UART0. Two paths write it: putc_sync,
// used by kernel printf and never blocks, and the interrupt-driven
// buffered path used by console writes so a slow terminal cannot stall
// the writing process. Ground: original_source/src/uart.rs.
const (
	uartRHR = 0
	uartTHR = 0
	uartIER = 1
	uartFCR = 2
	uartLCR = 3
	uartLSR = 5
)

func uartReg(off uintptr) *byte {
	return (*byte)(unsafe.Pointer(UART0 + off))
}

func uartinit() {
	*uartReg(uartIER) = 0x00
	*uartReg(uartLCR) = 0x80
	*uartReg(0) = 0x03
	*uartReg(1) = 0x00
	*uartReg(uartLCR) = 0x03
	*uartReg(uartFCR) = 0x07
	*uartReg(uartIER) = 0x03
}

var panicked bool

// uart_putc_sync writes one byte directly, spinning for the transmit
// register to empty. Used by printf and to echo input, never by the
// buffered console write path below.
func uart_putc_sync(c byte) {
	if panicked {
		for {
		}
	}
	for *uartReg(uartLSR)&(1<<5) == 0 {
	}
	*uartReg(uartTHR) = c
}

const uartTxBufSize = 32

type uartTxT struct {
	lock spinlock
	buf  [uartTxBufSize]byte
	w    uint
	r    uint
}

var uartTx uartTxT

func uartTxInit() {
	initlock(&uartTx.lock, "uart")
}

// uartstart drains the software transmit buffer into the hardware FIFO
// while there is room, called after every character queues and again
// from the transmit-empty interrupt. Caller must hold uartTx.lock.
func uartstart() {
	for {
		if uartTx.w == uartTx.r {
			return
		}
		if *uartReg(uartLSR)&(1<<5) == 0 {
			// THR full; the next interrupt will call us again.
			return
		}
		c := uartTx.buf[uartTx.r%uartTxBufSize]
		uartTx.r++

		wakeup(uintptr(unsafe.Pointer(&uartTx.r))) // uartputc may be waiting for room

		*uartReg(uartTHR) = c
	}
}

// uartputc queues c for transmission, blocking if the ring buffer is
// full until uartstart (from a later interrupt) drains it.
func uartputc(c byte) {
	acquire(&uartTx.lock)
	if panicked {
		for {
		}
	}
	for uartTx.w == uartTx.r+uartTxBufSize {
		sleep(uintptr(unsafe.Pointer(&uartTx.r)), &uartTx.lock)
	}
	uartTx.buf[uartTx.w%uartTxBufSize] = c
	uartTx.w++
	uartstart()
	release(&uartTx.lock)
}

// uartintr handles a UART interrupt: drain any received bytes to the
// console line discipline, then try to push more queued output.
func uartintr() {
	for *uartReg(uartLSR)&1 != 0 {
		c := *uartReg(uartRHR)
		consoleintr(c)
	}

	acquire(&uartTx.lock)
	uartstart()
	release(&uartTx.lock)
}
