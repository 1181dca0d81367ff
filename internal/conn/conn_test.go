package conn

import (
	"bufio"
	"net"
	"testing"

	"github.com/shaygalon/htt2/internal/budget"
	"github.com/shaygalon/htt2/internal/session"
)

// startServer accepts connections on an ephemeral port and, for each one,
// repeatedly reads a request (up to the blank line) and writes respond,
// closing the connection after closeAfter responses (0 means never close on
// its own, i.e. the client decides).
func startServer(t *testing.T, respond []byte, closeAfter int) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				r := bufio.NewReader(c)
				n := 0
				for {
					if _, err := readRequestLine(r); err != nil {
						return
					}
					if _, err := c.Write(respond); err != nil {
						return
					}
					n++
					if closeAfter > 0 && n >= closeAfter {
						return
					}
				}
			}(c)
		}
	}()
	return ln.Addr().String()
}

// readRequestLine consumes bytes up through the blank line terminating an
// HTTP request's headers.
func readRequestLine(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", err
		}
		if line == "\r\n" || line == "\n" {
			return "", nil
		}
	}
}

func newTestConn(id int, addr string, b *budget.Budget, keepAlive bool) (*Conn, *Counters) {
	pool := &session.Pool{
		Addr:      addr,
		Templates: []session.Template{session.BuildTemplate(addr, "/", keepAlive)},
	}
	counters := &Counters{}
	c := New(id, Config{Addr: addr, KeepAlive: keepAlive}, b, counters, pool, int64(id+1))
	return c, counters
}

func TestScenarioCountModeNoKeepAlive(t *testing.T) {
	addr := startServer(t, []byte("HTTP/1.0 200 OK\r\nContent-Length: 3\r\n\r\nfoo"), 1)

	b := budget.New(budget.ModeCount, 20, 0, true)
	c, counters := newTestConn(0, addr, b, false)
	c.Run()

	if c.SuccessCount() != 20 {
		t.Fatalf("SuccessCount = %d, want 20", c.SuccessCount())
	}
	nc, ns, nf, nb, _ := counters.Load()
	if ns != 20 {
		t.Fatalf("NumSuccess = %d, want 20", ns)
	}
	if nc != 20 {
		t.Fatalf("NumConnect = %d, want 20 (one dial per request, no keep-alive)", nc)
	}
	if nf != 0 {
		t.Fatalf("NumFail = %d, want 0", nf)
	}
	if nb != 60 {
		t.Fatalf("NumBytesReceived = %d, want 60 (20 * 3)", nb)
	}
}

func TestScenarioKeepAliveChunked(t *testing.T) {
	addr := startServer(t, []byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n"), 0)

	b := budget.New(budget.ModeCount, 15, 0, true)
	c, counters := newTestConn(0, addr, b, true)
	c.Run()

	if c.SuccessCount() != 15 {
		t.Fatalf("SuccessCount = %d, want 15", c.SuccessCount())
	}
	nc, ns, _, nb, _ := counters.Load()
	if ns != 15 {
		t.Fatalf("NumSuccess = %d, want 15", ns)
	}
	if nc != 1 {
		t.Fatalf("NumConnect = %d, want 1 (keep-alive should reuse the same socket)", nc)
	}
	if nb != 75 {
		t.Fatalf("NumBytesReceived = %d, want 75 (15 * len(\"hello\"))", nb)
	}
}

func TestScenarioMalformedResponseAlwaysFails(t *testing.T) {
	addr := startServer(t, []byte("HTTP/1.1 200 OK\r\n\r\nbody"), 1)

	b := budget.New(budget.ModeCount, 10, 0, true)
	c, counters := newTestConn(0, addr, b, false)
	c.Run()

	if c.SuccessCount() != 0 {
		t.Fatalf("SuccessCount = %d, want 0 for a response with no declared framing", c.SuccessCount())
	}
	_, ns, nf, _, _ := counters.Load()
	if ns != 0 {
		t.Fatalf("NumSuccess = %d, want 0", ns)
	}
	if nf == 0 {
		t.Fatal("NumFail should be nonzero: every malformed response must be counted as a failure")
	}
}

func TestKillMarksDoneAndCountsFail(t *testing.T) {
	addr := startServer(t, []byte("HTTP/1.0 200 OK\r\nContent-Length: 3\r\n\r\nfoo"), 1)
	b := budget.New(budget.ModeInfinite, 0, 0, true)
	c, counters := newTestConn(0, addr, b, false)

	c.Kill()
	if !c.Done() {
		t.Fatal("Kill() should mark the connection done")
	}
	_, _, nf, _, _ := counters.Load()
	if nf != 1 {
		t.Fatalf("NumFail = %d, want 1 after Kill()", nf)
	}

	// Idempotent: a second Kill() must not double-count (spec.md §8's
	// idempotent-drain law).
	c.Kill()
	_, _, nf2, _, _ := counters.Load()
	if nf2 != 1 {
		t.Fatalf("NumFail = %d after second Kill(), want still 1", nf2)
	}
}
