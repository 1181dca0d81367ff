package conn

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

// defaultDialTimeout is used when Config.DialTimeout is zero.
const defaultDialTimeout = 10 * time.Second

// dial opens a fresh socket against c.cfg.Addr, applies TCP_NODELAY (and
// TCP_FASTOPEN_CONNECT when enabled), and performs the TLS handshake if
// configured. A dial failure (spec.md §7 "Dial failure") never aborts the
// run — the caller redials in a loop.
func (c *Conn) dial() error {
	timeout := c.cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	d := net.Dialer{Control: dialerControl(c.cfg.FastOpen)}
	raw, err := d.DialContext(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		return err
	}
	if err := tuneSocket(raw); err != nil {
		raw.Close()
		return err
	}

	if c.cfg.TLSConfig != nil {
		c.state = StateHandshaking
		tlsConn := tls.Client(raw, c.cfg.TLSConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			raw.Close()
			return err
		}
		c.socket = tlsConn
	} else {
		c.socket = raw
	}
	c.touch()
	return nil
}
