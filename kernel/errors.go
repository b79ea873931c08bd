package main

import "errors"

// errors.go collects the kernel's sentinel errors. Each syscall handler
// returns one of these rather than a formatted message: a freestanding
// binary has no fmt.Errorf to spare. Ground: spec §7's error-kind list,
// shaped the way original_source's Rust handlers return &'static str
// constants rather than allocated messages.
var (
	ErrBadAddr     = errors.New("bad address")
	ErrBadArg      = errors.New("bad argument")
	ErrPathTooLong = errors.New("path too long")
	ErrNoProc      = errors.New("no free process slot")
	ErrNoFile      = errors.New("no free file slot")
	ErrNoFD        = errors.New("no free file descriptor")
	ErrNoInode     = errors.New("no free inode")
	ErrNoBlock     = errors.New("no free block")
	ErrNoFrame     = errors.New("out of memory")
	ErrVMAFull     = errors.New("vma table full")
	ErrNotFound    = errors.New("not found")
	ErrNotDir      = errors.New("not a directory")
	ErrIsDir       = errors.New("is a directory")
	ErrExists      = errors.New("already exists")
	ErrNotEmpty    = errors.New("directory not empty")
	ErrPerm        = errors.New("permission denied")
	ErrBadFD       = errors.New("bad file descriptor")
	ErrNotReadable = errors.New("file not open for reading")
	ErrNotWritable = errors.New("file not open for writing")
	ErrBrokenPipe  = errors.New("broken pipe")
	ErrBadELF      = errors.New("not an ELF executable")
	ErrIO          = errors.New("i/o error")
	ErrKilled      = errors.New("process killed")
)
