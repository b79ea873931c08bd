package main

import "unsafe"

// sysnet.go implements the minimal in-kernel socket endpoint table the
// spec's Non-goals call for: socket/bind/connect just record an address
// binding, with no ethernet/ip/tcp/udp stack behind them. Ground: shape
// grounded on original_source/kernel/src/net/mod.rs's Socket/SockAddr,
// stripped down since original_source's udp.rs/ip.rs/arp.rs/ethernet.rs
// implement the full network stack spec.md's Non-goals explicitly excludes.

type saFamily uint16

const (
	AF_UNSPEC saFamily = 0
	AF_LOCAL  saFamily = 1
	AF_INET   saFamily = 2
)

type sockAddr struct {
	family saFamily
	port   uint16
	addr   uint32
}

const sockAddrSize = int(unsafe.Sizeof(sockAddr{}))

type socketT struct {
	used    bool
	domain  int32
	typ     uint8
	proto   uint8
	bound   sockAddr
	peer    sockAddr
	isBound bool
	isPeer  bool
}

var socketTable struct {
	lock   spinlock
	socket [NDEV]socketT
}

func socketinit() {
	initlock(&socketTable.lock, "sockettable")
}

func socketalloc(domain int32, typ, proto uint8) (*socketT, error) {
	acquire(&socketTable.lock)
	defer release(&socketTable.lock)
	for i := range socketTable.socket {
		if !socketTable.socket[i].used {
			socketTable.socket[i] = socketT{used: true, domain: domain, typ: typ, proto: proto}
			return &socketTable.socket[i], nil
		}
	}
	return nil, ErrNoFile
}

func socketclose(s *socketT) {
	acquire(&socketTable.lock)
	*s = socketT{}
	release(&socketTable.lock)
}

// socketread and socketwrite are stubs: with no network stack, a bound
// socket carries no in-flight data to read or send.
func socketread(s *socketT, addr uintptr, n int) (int, error) {
	return 0, nil
}

func socketwrite(s *socketT, addr uintptr, n int) (int, error) {
	return n, nil
}

func sys_socket() (uintptr, error) {
	domain, err := argint(0)
	if err != nil {
		return 0, err
	}
	typ, err := argint(1)
	if err != nil {
		return 0, err
	}
	proto, err := argint(2)
	if err != nil {
		return 0, err
	}

	s, err := socketalloc(domain, uint8(typ), uint8(proto))
	if err != nil {
		return 0, err
	}
	f, err := filealloc()
	if err != nil {
		socketclose(s)
		return 0, err
	}
	f.typ = FD_SOCKET
	f.readable = true
	f.writable = true
	f.sock = s

	fd, err := allocfd(f)
	if err != nil {
		fileclose(f)
		return 0, err
	}
	return uintptr(fd), nil
}

func fetchSockAddr(addr, addrlen uintptr) (sockAddr, error) {
	if int(addrlen) != sockAddrSize {
		return sockAddr{}, ErrBadArg
	}
	var sa sockAddr
	if !copyin(myproc().pagetable, uintptr(unsafe.Pointer(&sa)), addr, uintptr(sockAddrSize)) {
		return sockAddr{}, ErrBadAddr
	}
	return sa, nil
}

func sys_bind() (uintptr, error) {
	_, f, err := argfd(0)
	if err != nil {
		return 0, err
	}
	addr, err := argaddr(1)
	if err != nil {
		return 0, err
	}
	addrlen, err := argaddr(2)
	if err != nil {
		return 0, err
	}
	if f.typ != FD_SOCKET {
		return 0, ErrBadArg
	}
	sa, err := fetchSockAddr(addr, addrlen)
	if err != nil {
		return 0, err
	}
	f.sock.bound = sa
	f.sock.isBound = true
	return 0, nil
}

func sys_connect() (uintptr, error) {
	_, f, err := argfd(0)
	if err != nil {
		return 0, err
	}
	addr, err := argaddr(1)
	if err != nil {
		return 0, err
	}
	addrlen, err := argaddr(2)
	if err != nil {
		return 0, err
	}
	if f.typ != FD_SOCKET {
		return 0, ErrBadArg
	}
	sa, err := fetchSockAddr(addr, addrlen)
	if err != nil {
		return 0, err
	}
	f.sock.peer = sa
	f.sock.isPeer = true
	return 0, nil
}
