package main

import "testing"

func TestDirNameEqN(t *testing.T) {
	var buf [envNameLen]byte
	copy(buf[:], "PATH")

	if !dirNameEqN(buf[:], []byte("PATH")) {
		t.Error("dirNameEqN(PATH, PATH) = false, want true")
	}
	if dirNameEqN(buf[:], []byte("PATHX")) {
		t.Error("dirNameEqN(PATH, PATHX) = true, want false")
	}
	if dirNameEqN(buf[:], []byte("PAT")) {
		t.Error("dirNameEqN(PATH, PAT) = true, want false")
	}
}

func TestEnvFind(t *testing.T) {
	var p kproc
	setEnv(&p, 0, "HOME", "/root")
	setEnv(&p, 2, "PATH", "/bin")

	if idx := envFind(&p, []byte("PATH")); idx != 2 {
		t.Errorf("envFind(PATH) = %d, want 2", idx)
	}
	if idx := envFind(&p, []byte("HOME")); idx != 0 {
		t.Errorf("envFind(HOME) = %d, want 0", idx)
	}
	if idx := envFind(&p, []byte("MISSING")); idx != -1 {
		t.Errorf("envFind(MISSING) = %d, want -1", idx)
	}
}

func TestEnvFindSkipsUnused(t *testing.T) {
	var p kproc
	p.env[3] = envVar{used: false}
	copy(p.env[3].name[:], "GHOST")
	if idx := envFind(&p, []byte("GHOST")); idx != -1 {
		t.Errorf("envFind found an unused slot at %d", idx)
	}
}

func setEnv(p *kproc, slot int, name, val string) {
	p.env[slot].used = true
	copy(p.env[slot].name[:], name)
	copy(p.env[slot].val[:], val)
}
