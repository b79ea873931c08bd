package main

// TrapFrame is the per-process page the trampoline reads and writes on
// every U<->S transition. Field order matches the ABI the trampoline
// assembly (§4.4) was written against: kernel_satp/kernel_sp/kernel_trap
// come first so the trampoline can find them without yet having switched
// off the user page table. Ground: original_source/src/proc.rs TrapFrame.
type TrapFrame struct {
	KernelSatp  uintptr // 0:  kernel page table
	KernelSp    uintptr // 8:  top of process's kernel stack
	KernelTrap  uintptr // 16: usertrap()
	Epc         uintptr // 24: saved user program counter
	KernelHartid uintptr // 32: saved kernel tp
	Ra          uintptr // 40
	Sp          uintptr // 48
	Gp          uintptr // 56
	Tp          uintptr // 64
	T0          uintptr // 72
	T1          uintptr // 80
	T2          uintptr // 88
	S0          uintptr // 96
	S1          uintptr // 104
	A0          uintptr // 112
	A1          uintptr // 120
	A2          uintptr // 128
	A3          uintptr // 136
	A4          uintptr // 144
	A5          uintptr // 152
	A6          uintptr // 160
	A7          uintptr // 168
	S2          uintptr // 176
	S3          uintptr // 184
	S4          uintptr // 192
	S5          uintptr // 200
	S6          uintptr // 208
	S7          uintptr // 216
	S8          uintptr // 224
	S9          uintptr // 232
	S10         uintptr // 240
	S11         uintptr // 248
	T3          uintptr // 256
	T4          uintptr // 264
	T5          uintptr // 272
	T6          uintptr // 280
}
