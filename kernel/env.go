package main

import "unsafe"

// env.go implements the four environment-variable syscalls. No kernel
// side of these exists in original_source (only the user-space callers
// in export.rs/env.rs/unset.rs do); their semantics are inferred from
// those callers and built fresh atop kproc.env, the fixed-size table
// proc.go carries in place of a heap-allocated map.

func envFind(p *kproc, name []byte) int {
	n := trimZero(name)
	if n > envNameLen-1 {
		n = envNameLen - 1
	}
	for i := range p.env {
		if !p.env[i].used {
			continue
		}
		if dirNameEqN(p.env[i].name[:], name[:n]) {
			return i
		}
	}
	return -1
}

// dirNameEqN compares a fixed NUL-padded buffer against a bare byte
// slice of known length, the env-table analogue of dir.go's dirNameEq.
func dirNameEqN(buf []byte, name []byte) bool {
	if trimZero(buf) != len(name) {
		return false
	}
	for i := range name {
		if buf[i] != name[i] {
			return false
		}
	}
	return true
}

func sys_getenv() (uintptr, error) {
	var name [envNameLen]byte
	if err := argstr(0, name[:]); err != nil {
		return 0, err
	}
	addr, err := argaddr(1)
	if err != nil {
		return 0, err
	}

	p := myproc()
	idx := envFind(p, name[:])
	if idx < 0 {
		return errRet, nil
	}

	valLen := trimZero(p.env[idx].val[:])
	if valLen > 0 && !copyout(p.pagetable, addr, uintptr(unsafe.Pointer(&p.env[idx].val[0])), uintptr(valLen)) {
		return 0, ErrBadAddr
	}
	return uintptr(valLen), nil
}

func sys_setenv() (uintptr, error) {
	var name [envNameLen]byte
	if err := argstr(0, name[:]); err != nil {
		return 0, err
	}
	var val [envValLen]byte
	if err := argstr(1, val[:]); err != nil {
		return 0, err
	}
	overwrite, err := argint(2)
	if err != nil {
		return 0, err
	}

	p := myproc()
	idx := envFind(p, name[:])
	if idx >= 0 {
		if overwrite == 0 {
			return 0, nil
		}
		p.env[idx].val = val
		return 0, nil
	}

	for i := range p.env {
		if !p.env[i].used {
			p.env[i] = envVar{used: true, name: name, val: val}
			return 0, nil
		}
	}
	return 0, ErrNoFile
}

func sys_unsetenv() (uintptr, error) {
	var name [envNameLen]byte
	if err := argstr(0, name[:]); err != nil {
		return 0, err
	}
	p := myproc()
	idx := envFind(p, name[:])
	if idx < 0 {
		return 0, ErrNotFound
	}
	p.env[idx] = envVar{}
	return 0, nil
}

// sys_listenv copies every "NAME=VALUE\0" entry into the user buffer at
// addr, back to back, returning the total number of bytes written.
func sys_listenv() (uintptr, error) {
	addr, err := argaddr(0)
	if err != nil {
		return 0, err
	}

	p := myproc()
	var buf [envSlots * (envNameLen + envValLen + 2)]byte
	total := 0
	for i := range p.env {
		if !p.env[i].used {
			continue
		}
		n := trimZero(p.env[i].name[:])
		v := trimZero(p.env[i].val[:])
		total += copy(buf[total:], p.env[i].name[:n])
		buf[total] = '='
		total++
		total += copy(buf[total:], p.env[i].val[:v])
		buf[total] = 0
		total++
	}

	if total > 0 && !copyout(p.pagetable, addr, uintptr(unsafe.Pointer(&buf[0])), uintptr(total)) {
		return 0, ErrBadAddr
	}
	return uintptr(total), nil
}
