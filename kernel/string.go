package main

import "unsafe"

// Freestanding memory primitives. No hosted "bytes" package is available
// here (it allocates through the Go runtime), so the kernel carries its
// own, the way every C-derived xv6 port does with memset/memmove in
// string.c.

func memset(dst uintptr, c int, n uint) {
	for i := uint(0); i < n; i++ {
		*(*byte)(unsafe.Pointer(dst + uintptr(i))) = byte(c)
	}
}

func memmove(dst uintptr, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	d := dst
	s := uintptr(src)
	if d == s {
		return
	}
	if d < s {
		for i := uintptr(0); i < n; i++ {
			*(*byte)(unsafe.Pointer(d + i)) = *(*byte)(unsafe.Pointer(s + i))
		}
	} else {
		for i := n; i > 0; i-- {
			*(*byte)(unsafe.Pointer(d + i - 1)) = *(*byte)(unsafe.Pointer(s + i - 1))
		}
	}
}

func memcmp(a, b uintptr, n uintptr) int {
	for i := uintptr(0); i < n; i++ {
		ca := *(*byte)(unsafe.Pointer(a + i))
		cb := *(*byte)(unsafe.Pointer(b + i))
		if ca != cb {
			return int(ca) - int(cb)
		}
	}
	return 0
}

// strlen returns the length, excluding the NUL terminator, of the
// NUL-terminated string at kernel address p.
func strlen(p uintptr) int {
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	return n
}

// bytesToString converts a fixed-size NUL-padded byte array (as used by
// directory entries and process names) to a Go string, stopping at the
// first NUL or the end of the array.
func bytesToString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// stringToBytes copies s into dst, NUL-padding or truncating to fit.
// Returns false if s (without its terminator) does not fit in dst.
func stringToBytes(dst []byte, s string) bool {
	for i := range dst {
		dst[i] = 0
	}
	if len(s) >= len(dst) {
		if len(dst) > 0 {
			copy(dst[:len(dst)-1], s)
		}
		return false
	}
	copy(dst, s)
	return true
}
