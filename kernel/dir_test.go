package main

import "testing"

func TestSkipElem(t *testing.T) {
	cases := []struct {
		path string
		want []string
	}{
		{"/a/bb/c", []string{"a", "bb", "c"}},
		{"a/bb/c", []string{"a", "bb", "c"}},
		{"///a//bb", []string{"a", "bb"}},
		{"/", nil},
		{"", nil},
	}
	for _, c := range cases {
		var got []string
		path := []byte(c.path)
		var name [DIRSIZ]byte
		pos := 0
		for {
			pos = skip_elem(path, pos, name[:])
			if pos == 0 {
				break
			}
			got = append(got, bytesToString(name[:]))
		}
		if len(got) != len(c.want) {
			t.Fatalf("skip_elem(%q) = %v, want %v", c.path, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("skip_elem(%q)[%d] = %q, want %q", c.path, i, got[i], c.want[i])
			}
		}
	}
}

func TestSkipElemTruncatesLongNames(t *testing.T) {
	longName := make([]byte, DIRSIZ+10)
	for i := range longName {
		longName[i] = 'x'
	}
	var name [DIRSIZ]byte
	pos := skip_elem(longName, 0, name[:])
	if pos == 0 {
		t.Fatal("skip_elem returned 0 for a non-empty element")
	}
	got := bytesToString(name[:])
	if len(got) != DIRSIZ {
		t.Errorf("truncated name length = %d, want %d", len(got), DIRSIZ)
	}
}

func TestDirNameEq(t *testing.T) {
	var entName [DIRSIZ]byte
	copy(entName[:], "foo")

	if !dirNameEq(entName[:], []byte("foo")) {
		t.Error("dirNameEq(\"foo\", \"foo\") = false, want true")
	}
	if dirNameEq(entName[:], []byte("foobar")) {
		t.Error("dirNameEq(\"foo\", \"foobar\") = true, want false")
	}
	if dirNameEq(entName[:], []byte("fo")) {
		t.Error("dirNameEq(\"foo\", \"fo\") = true, want false")
	}
}

func TestTrimZero(t *testing.T) {
	b := make([]byte, DIRSIZ)
	copy(b, "init")
	if got := trimZero(b); got != 4 {
		t.Errorf("trimZero(%q) = %d, want 4", b, got)
	}

	full := make([]byte, DIRSIZ)
	for i := range full {
		full[i] = 'x'
	}
	if got := trimZero(full); got != DIRSIZ {
		t.Errorf("trimZero with no NUL = %d, want %d", got, DIRSIZ)
	}
}

func TestStringToBytesFixed(t *testing.T) {
	dst := make([]byte, DIRSIZ)
	for i := range dst {
		dst[i] = 'z'
	}
	stringToBytesFixed(dst, []byte("hi"))
	if dst[0] != 'h' || dst[1] != 'i' {
		t.Fatalf("stringToBytesFixed did not copy prefix, got %v", dst)
	}
	for i := 2; i < DIRSIZ; i++ {
		if dst[i] != 0 {
			t.Errorf("stringToBytesFixed left byte %d = %d, want 0", i, dst[i])
		}
	}
}
