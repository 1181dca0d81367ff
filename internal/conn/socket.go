// Socket option tuning for outbound client connections. Grounded on the
// teacher's socket/tuning.go (cross-platform SetsockoptInt via
// net.TCPConn.SyscallConn().Control), narrowed to the two options spec.md
// §3 names for a load-generator connection: TCP_NODELAY (always) and
// TCP_FASTOPEN (optional, client-side connect variant, Linux only).
package conn

import (
	"net"
	"syscall"
)

// tuneSocket disables Nagle's algorithm on conn. Non-TCP connections are
// left untouched.
func tuneSocket(c net.Conn) error {
	tcpConn, ok := c.(*net.TCPConn)
	if !ok {
		return nil
	}
	raw, err := tcpConn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = syscall.SetsockoptInt(int(fd), syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// dialerControl returns a net.Dialer.Control hook that applies
// TCP_FASTOPEN_CONNECT before the connect(2) syscall, when enabled and
// supported by the platform. On platforms without a known TCP Fast Open
// client-side option this is a no-op (see socket_other.go).
func dialerControl(fastOpen bool) func(string, string, syscall.RawConn) error {
	if !fastOpen {
		return nil
	}
	return func(_, _ string, rc syscall.RawConn) error {
		var sockErr error
		err := rc.Control(func(fd uintptr) {
			sockErr = applyFastOpenConnect(int(fd))
		})
		if err != nil {
			return err
		}
		_ = sockErr // best-effort: unsupported kernels should not abort the dial
		return nil
	}
}
