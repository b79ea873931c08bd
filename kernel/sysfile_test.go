package main

import "testing"

func TestIsDotOrDotDot(t *testing.T) {
	mk := func(s string) []byte {
		b := make([]byte, DIRSIZ)
		copy(b, s)
		return b
	}

	cases := []struct {
		name string
		want bool
	}{
		{".", true},
		{"..", true},
		{"...", false},
		{"a", false},
		{"", false},
	}
	for _, c := range cases {
		if got := isDotOrDotDot(mk(c.name)); got != c.want {
			t.Errorf("isDotOrDotDot(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}
