package main

import "unsafe"

// dir.go layers directories, which are just inodes whose content is a
// sequence of dirEnt records, and path resolution on top of inode.go.
// Ground: original_source/src/fs.rs namex/skip_elem/dirlookup/dirlink.

type dirEnt struct {
	inum uint16
	name [DIRSIZ]byte
}

const dirEntSize = int(unsafe.Sizeof(dirEnt{}))

// dirlookup looks for name in directory ip's content. Caller must hold
// ip's sleeplock (via ilock).
func dirlookup(ip inode, name []byte) (inode, bool) {
	found, _, ok := dirlookupAt(ip, name)
	return found, ok
}

// dirlookupAt is dirlookup plus the byte offset of the matching dirEnt,
// needed by unlink to zero it back out.
func dirlookupAt(ip inode, name []byte) (inode, uint32, bool) {
	d := &itable.data[ip.index]
	if d.dinode.typ != T_DIR {
		panic("dirlookup: not a directory")
	}

	var de dirEnt
	for off := uint32(0); off < d.dinode.size; off += uint32(dirEntSize) {
		n, ok := readi(ip, false, uintptr(unsafe.Pointer(&de)), off, uint32(dirEntSize))
		if !ok || n != uint32(dirEntSize) {
			panic("dirlookup: read")
		}
		if de.inum == 0 {
			continue
		}
		if dirNameEq(de.name[:], name) {
			return iget(ip.dev, uint32(de.inum)), off, true
		}
	}
	return inodeNone, 0, false
}

func dirNameEq(entName []byte, name []byte) bool {
	for i := 0; i < DIRSIZ; i++ {
		var c byte
		if i < len(name) {
			c = name[i]
		}
		if entName[i] != c {
			return false
		}
		if entName[i] == 0 {
			return true
		}
	}
	return true
}

// dirlink adds a (name, inum) entry to directory ip, reusing the first
// free slot if one exists. Fails if name is already present.
func dirlink(ip inode, name []byte, inum uint32) bool {
	if _, ok := dirlookup(ip, name); ok {
		return false
	}

	d := &itable.data[ip.index]
	var de dirEnt
	var offset uint32 = d.dinode.size
	for off := uint32(0); off < d.dinode.size; off += uint32(dirEntSize) {
		n, ok := readi(ip, false, uintptr(unsafe.Pointer(&de)), off, uint32(dirEntSize))
		if !ok || n != uint32(dirEntSize) {
			panic("dirlink: read")
		}
		if de.inum == 0 {
			offset = off
			break
		}
	}

	de = dirEnt{}
	stringToBytesFixed(de.name[:], name)
	de.inum = uint16(inum)

	_, ok := writei(ip, false, uintptr(unsafe.Pointer(&de)), offset, uint32(dirEntSize))
	return ok
}

func stringToBytesFixed(dst []byte, src []byte) {
	for i := range dst {
		dst[i] = 0
	}
	n := len(src)
	if n > len(dst) {
		n = len(dst)
	}
	copy(dst, src[:n])
}

// skip_elem copies the next '/'-separated element of path, starting at
// cur, into name, and returns the offset of the following element, or 0
// once path is exhausted. Ground: xv6's skip_elem, ported verbatim.
func skip_elem(path []byte, cur int, name []byte) int {
	for cur < len(path) && path[cur] == '/' {
		cur++
	}
	if cur >= len(path) || path[cur] == 0 {
		return 0
	}

	s := cur
	for cur < len(path) && path[cur] != '/' && path[cur] != 0 {
		cur++
	}

	n := cur - s
	if n > len(name) {
		n = len(name)
	}
	for i := range name {
		name[i] = 0
	}
	copy(name, path[s:s+n])

	for cur < len(path) && path[cur] == '/' {
		cur++
	}
	return cur
}

// namex walks path one element at a time, starting from root if it
// begins with '/' or from the current process's cwd otherwise. If
// parent, resolution stops one level early and name holds the final
// element.
func namex(path []byte, name []byte, parent bool) (inode, bool) {
	var ip inode
	if len(path) > 0 && path[0] == '/' {
		ip = iget(ROOTDEV, rootino)
	} else {
		cwd := myproc().cwd
		if !cwd.valid() {
			return inodeNone, false
		}
		ip = idup(cwd)
	}

	pos := 0
	for {
		pos = skip_elem(path, pos, name)
		if pos == 0 {
			break
		}

		d := ilock(ip)
		if d.dinode.typ != T_DIR {
			iunlockput(ip)
			return inodeNone, false
		}

		if parent && (pos >= len(path) || path[pos] == 0) {
			iunlock(ip)
			return ip, true
		}

		next, ok := dirlookup(ip, name)
		iunlockput(ip)
		if !ok {
			return inodeNone, false
		}
		ip = next
	}

	return ip, true
}

func namei(path []byte) (inode, bool) {
	var name [DIRSIZ]byte
	return namex(path, name[:], false)
}

func nameiparent(path []byte, name []byte) (inode, bool) {
	return namex(path, name, true)
}

// isdirempty reports whether directory ip holds only "." and "..".
// Caller must hold ip's sleeplock.
func isdirempty(ip inode) bool {
	d := &itable.data[ip.index]
	var de dirEnt
	for off := uint32(2 * dirEntSize); off < d.dinode.size; off += uint32(dirEntSize) {
		n, ok := readi(ip, false, uintptr(unsafe.Pointer(&de)), off, uint32(dirEntSize))
		if !ok || n != uint32(dirEntSize) {
			panic("isdirempty: read")
		}
		if de.inum != 0 {
			return false
		}
	}
	return true
}

// create resolves path's parent directory, allocates a new inode of typ,
// wires up "." and ".." for a new directory, and links it into the
// parent. Must be called inside a transaction.
func create(path []byte, typ inodeType, major, minor uint16) (inode, bool) {
	var name [DIRSIZ]byte
	dir, ok := nameiparent(path, name[:])
	if !ok {
		return inodeNone, false
	}
	dd := ilock(dir)

	ip := ialloc(dir.dev, typ)
	id := ilock(ip)
	id.dinode.major = major
	id.dinode.minor = minor
	id.dinode.nlink = 1
	iupdate(ip)

	if typ == T_DIR {
		dd.dinode.nlink++
		iupdate(dir)

		if !dirlink(ip, []byte("."), ip.inum) || !dirlink(ip, []byte(".."), dir.inum) {
			iunlockput(ip)
			iunlockput(dir)
			return inodeNone, false
		}
	}
	iunlock(ip)

	if !dirlink(dir, name[:trimZero(name[:])], ip.inum) {
		iput(ip)
		iunlockput(dir)
		return inodeNone, false
	}
	iunlockput(dir)

	return ip, true
}

func trimZero(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return len(b)
}
