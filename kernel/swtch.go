package main

import _ "unsafe"

// Context holds the callee-saved registers that must survive a context
// switch between a process's kernel thread and a hart's scheduler thread.
// Saved/restored by the assembly swtch seam (§4.4); Go's own gp/tp are
// carried too since this kernel runs without a hosted goroutine scheduler
// and tp doubles as the hart id (cpuid()).
type Context struct {
	ra uintptr
	sp uintptr

	// callee-saved
	s0  uintptr
	s1  uintptr
	s2  uintptr
	s3  uintptr
	s4  uintptr
	s5  uintptr
	s6  uintptr
	s7  uintptr
	s8  uintptr
	s9  uintptr
	s10 uintptr
	s11 uintptr

	gp uintptr
	tp uintptr
}

// swtch saves the current registers into old's context and loads new's.
// It returns when some other call to swtch switches back into old. Must
// be called with exactly one spinlock held: the lock of the process being
// switched out of (sched in proc.go) or into (scheduler in proc.go).
//
//go:linkname swtch swtch
func swtch(old *Context, new *Context)
