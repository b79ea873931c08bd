package main

// Compile-time kernel tunables. There is no runtime configuration layer:
// every xv6-family kernel in the pack (teacher included) treats this file
// as the whole configuration surface.
const (
	NCPU        = 3  // maximum number of harts
	NPROC       = 64 // maximum number of processes
	NOFILE      = 16 // open files per process
	NFILE       = 100 // open files per system
	NINODE      = 50 // maximum number of active i-nodes
	NDEV        = 10 // maximum major device number
	ROOTDEV     = 1  // device number of file system root disk
	MAXARG      = 32 // max exec arguments
	MAXARGLEN   = 64 // max length of a single exec argument
	MAXOPBLOCKS = 10 // max number of blocks any FS op writes
	LOGSIZE     = MAXOPBLOCKS * 3 // max blocks in on-disk log
	NBUF        = 30 // size of disk block cache
	FSSIZE      = 200000 // size of file system in blocks
	MAXPATH     = 128 // max path length
	DIRSIZ      = 14 // max length of a directory entry's name
	NVMA        = 100 // VMA table entries per process
)
