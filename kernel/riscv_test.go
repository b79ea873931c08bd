package main

import "testing"

func TestPGROUND(t *testing.T) {
	cases := []struct {
		a, down, up uintptr
	}{
		{0, 0, 0},
		{1, 0, PGSIZE},
		{PGSIZE - 1, 0, PGSIZE},
		{PGSIZE, PGSIZE, PGSIZE},
		{PGSIZE + 1, PGSIZE, 2 * PGSIZE},
	}
	for _, c := range cases {
		if got := PGROUNDDOWN(c.a); got != c.down {
			t.Errorf("PGROUNDDOWN(%#x) = %#x, want %#x", c.a, got, c.down)
		}
		if got := PGROUNDUP(c.a); got != c.up {
			t.Errorf("PGROUNDUP(%#x) = %#x, want %#x", c.a, got, c.up)
		}
	}
}

func TestPX(t *testing.T) {
	// A va with a distinct index at each of the three Sv39 levels.
	va := uintptr(2)<<(PGSHIFT+2*9) | uintptr(5)<<(PGSHIFT+9) | uintptr(9)<<PGSHIFT
	if got := PX(2, va); got != 2 {
		t.Errorf("PX(2, ...) = %d, want 2", got)
	}
	if got := PX(1, va); got != 5 {
		t.Errorf("PX(1, ...) = %d, want 5", got)
	}
	if got := PX(0, va); got != 9 {
		t.Errorf("PX(0, ...) = %d, want 9", got)
	}
}

func TestPTERoundtrip(t *testing.T) {
	pa := uintptr(0x87654000)
	pte := PA2PTE(pa)
	if got := PTE2PA(pte); got != pa {
		t.Errorf("PTE2PA(PA2PTE(%#x)) = %#x, want %#x", pa, got, pa)
	}
}

func TestMAKE_SATP(t *testing.T) {
	pt := pagetable_t(0x80001000)
	satp := MAKE_SATP(pt)
	if mode := satp >> 60; mode != 8 {
		t.Errorf("MAKE_SATP mode field = %d, want 8 (Sv39)", mode)
	}
	if ppn := satp & ((1 << 44) - 1); ppn != uintptr(pt)>>12 {
		t.Errorf("MAKE_SATP ppn field = %#x, want %#x", ppn, uintptr(pt)>>12)
	}
}
