//go:build linux

package conn

import "golang.org/x/sys/unix"

// tcpFastOpenConnect matches Linux's TCP_FASTOPEN_CONNECT, not exposed by
// the syscall package on all supported Go versions.
const tcpFastOpenConnect = 30

func applyFastOpenConnect(fd int) error {
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, tcpFastOpenConnect, 1)
}
