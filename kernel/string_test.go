package main

import (
	"testing"
	"unsafe"
)

func TestMemmove(t *testing.T) {
	src := []byte("hello")
	dst := make([]byte, 5)
	memmove(uintptr(unsafe.Pointer(&dst[0])), unsafe.Pointer(&src[0]), uintptr(len(src)))
	if string(dst) != "hello" {
		t.Errorf("memmove copied %q, want %q", dst, "hello")
	}
}

func TestMemmoveOverlappingForward(t *testing.T) {
	buf := []byte("abcdefgh")
	// shift buf[2:8] left onto buf[0:6], overlapping with dst < src.
	memmove(uintptr(unsafe.Pointer(&buf[0])), unsafe.Pointer(&buf[2]), 6)
	if string(buf) != "cdefghgh" {
		t.Errorf("overlapping forward memmove = %q, want %q", buf, "cdefghgh")
	}
}

func TestMemmoveOverlappingBackward(t *testing.T) {
	buf := []byte("abcdefgh")
	// shift buf[0:6] right onto buf[2:8], overlapping with dst > src.
	memmove(uintptr(unsafe.Pointer(&buf[2])), unsafe.Pointer(&buf[0]), 6)
	if string(buf) != "ababcdef" {
		t.Errorf("overlapping backward memmove = %q, want %q", buf, "ababcdef")
	}
}

func TestMemcmp(t *testing.T) {
	a := []byte("abc")
	b := []byte("abd")
	if r := memcmp(uintptr(unsafe.Pointer(&a[0])), uintptr(unsafe.Pointer(&a[0])), 3); r != 0 {
		t.Errorf("memcmp(a, a) = %d, want 0", r)
	}
	if r := memcmp(uintptr(unsafe.Pointer(&a[0])), uintptr(unsafe.Pointer(&b[0])), 3); r >= 0 {
		t.Errorf("memcmp(abc, abd) = %d, want < 0", r)
	}
}

func TestBytesToString(t *testing.T) {
	b := make([]byte, 8)
	copy(b, "hi")
	if got := bytesToString(b); got != "hi" {
		t.Errorf("bytesToString = %q, want %q", got, "hi")
	}
	full := []byte("nopadding")
	if got := bytesToString(full); got != "nopadding" {
		t.Errorf("bytesToString with no NUL = %q, want %q", got, "nopadding")
	}
}

func TestStringToBytes(t *testing.T) {
	dst := make([]byte, 5)
	if !stringToBytes(dst, "abc") {
		t.Fatal("stringToBytes(\"abc\") into 5 bytes should fit")
	}
	if string(dst[:3]) != "abc" || dst[3] != 0 || dst[4] != 0 {
		t.Errorf("stringToBytes result = %v", dst)
	}
	if stringToBytes(dst, "toolong") {
		t.Error("stringToBytes(\"toolong\") into 5 bytes should fail")
	}
}
