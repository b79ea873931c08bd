package main

import "unsafe"

// The platform-level interrupt controller (PLIC) routes device interrupts
// (UART, virtio disk) to individual harts running in supervisor mode.
// Ground: teacher's memlayout.go PLIC_* helpers, generalized per spec §5
// device model; layout matches qemu's hw/riscv/virt.c PLIC.

func plicRead(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

func plicWrite(addr uintptr, v uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = v
}

// plicinit runs once, on the boot hart, before any hart enables its own
// interrupts. It sets a global priority for each device's IRQ; nonzero so
// senable's per-hart threshold of 0 lets it through.
func plicinit() {
	plicWrite(PLIC_PRIORITY+uintptr(UART0_IRQ)*4, 1)
	plicWrite(PLIC_PRIORITY+uintptr(VIRTIO0_IRQ)*4, 1)
}

// plicinithart runs on every hart. It enables this hart's supervisor
// context to receive the UART and virtio IRQs and sets its claim
// threshold to 0 so any nonzero-priority interrupt is delivered.
func plicinithart() {
	hart := cpuid()
	plicWrite(PLIC_SENABLE(hart), (1<<uint(UART0_IRQ))|(1<<uint(VIRTIO0_IRQ)))
	plicWrite(PLIC_SPRIORITY(hart), 0)
}

// plic_claim asks the PLIC which IRQ fired, clearing it as pending, or
// returns 0 if none is currently pending for this hart.
func plic_claim() uint32 {
	return plicRead(PLIC_SCLAIM(cpuid()))
}

// plic_complete tells the PLIC this hart is done handling irq, allowing
// it to be claimed again.
func plic_complete(irq uint32) {
	plicWrite(PLIC_SCLAIM(cpuid()), irq)
}
