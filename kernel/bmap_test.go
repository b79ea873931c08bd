package main

import "testing"

func TestBmapBlock(t *testing.T) {
	saved := sb
	defer func() { sb = saved }()
	sb.bmapstart = 100

	cases := []struct {
		bn   uint32
		want uint32
	}{
		{0, 100},
		{bpb - 1, 100},
		{bpb, 101},
		{2*bpb + 5, 102},
	}
	for _, c := range cases {
		if got := bmap_block(c.bn); got != c.want {
			t.Errorf("bmap_block(%d) = %d, want %d", c.bn, got, c.want)
		}
	}
}
