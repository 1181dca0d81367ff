package conn

import (
	"net"
)

// closeGraceful closes a socket after a successful completion, letting the
// OS perform its default teardown (spec.md §4.3: "successful completions
// close with the OS's default graceful teardown").
func closeGraceful(c net.Conn) {
	if c == nil {
		return
	}
	c.Close()
}

// closeHard drops the connection immediately with SO_LINGER{on,0} so a
// failed or drain-killed socket does not linger in TIME_WAIT (spec.md §4.3:
// "failures and drain-kills use linger=0 to drop state immediately").
func closeHard(c net.Conn) {
	if c == nil {
		return
	}
	if tcpConn, ok := unwrapTCPConn(c); ok {
		tcpConn.SetLinger(0)
	}
	c.Close()
}

// unwrapTCPConn finds the underlying *net.TCPConn, looking through a
// *tls.Conn when TLS is in use.
func unwrapTCPConn(c net.Conn) (*net.TCPConn, bool) {
	type netConner interface {
		NetConn() net.Conn
	}
	for {
		if tcpConn, ok := c.(*net.TCPConn); ok {
			return tcpConn, true
		}
		if nc, ok := c.(netConner); ok {
			c = nc.NetConn()
			continue
		}
		return nil, false
	}
}
