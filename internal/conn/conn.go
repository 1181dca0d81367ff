// Package conn implements the per-connection state machine from spec.md
// §4.3: connect → [TLS handshake] → write request → read headers → read
// body → rearm, driven to completion by a single goroutine per connection.
//
// Grounded on the teacher's http11/connection.go (atomic ConnectionState,
// keep-alive decision in shouldCloseAfterRequest) with the close policy
// inverted for a client and the read path rewritten around respparse and
// chunked instead of the teacher's bufio-streaming Request/Response types.
package conn

import (
	"crypto/tls"
	"errors"
	"io"
	"math/rand"
	"net"
	"time"

	"github.com/shaygalon/htt2/internal/budget"
	"github.com/shaygalon/htt2/internal/bufpool"
	"github.com/shaygalon/htt2/internal/chunked"
	"github.com/shaygalon/htt2/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/valyala/bytebufferpool"
)

// State is the connection's position in its lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateHandshaking
	StateWriting
	StateReadingHeaders
	StateReadingBody
)

// ErrFramingUnknown is returned when a chunked response body cannot be
// decoded. A response with neither Content-Length nor chunked framing fails
// earlier, in readHeaders, with respparse.ErrMalformed.
var ErrFramingUnknown = errors.New("conn: malformed chunked framing")

// Config is immutable, shared-by-reference configuration every Conn in a
// run is built from.
type Config struct {
	Addr        string // dial address, host:port; the dialer resolves the host on every dial
	KeepAlive   bool   // global -k flag
	DialTimeout time.Duration
	FastOpen    bool
	TLSConfig   *tls.Config // nil disables TLS
	Log         *logrus.Logger
}

// Conn is one TCP (optionally TLS) flow plus the bookkeeping spec.md §3
// requires. The same Conn value lives for the whole run; only its socket is
// recycled.
type Conn struct {
	id       int
	cfg      Config
	budget   *budget.Budget
	counters *Counters
	pool     *session.Pool
	rng      *rand.Rand

	socket net.Conn
	state  State

	bb            *bytebufferpool.ByteBuffer // pooled receive/transmit buffer
	bodyTailStart int                        // offset of first body byte in bb.B
	chDec         chunked.Decoder
	bytesReceived int64 // body bytes observed so far for the current response

	keepAlive    bool // framing decision from the most recent response
	aliveCount   int
	successCount int64 // reported to the aggregator

	lastActivity atomicTime
	done         atomicBool
}

// New constructs a Conn bound to a worker's counters and URL pool. rngSeed
// seeds a PRNG owned by this connection alone, so concurrent connections
// never share one rand.Source (spec.md §9: "a worker-local PRNG to avoid
// contention on any global random source").
func New(id int, cfg Config, b *budget.Budget, counters *Counters, pool *session.Pool, rngSeed int64) *Conn {
	c := &Conn{
		id:       id,
		cfg:      cfg,
		budget:   b,
		counters: counters,
		pool:     pool,
		rng:      rand.New(rand.NewSource(rngSeed)),
		state:    StateConnecting,
	}
	c.lastActivity.Store(time.Now())
	return c
}

// Done reports whether this connection has retired for the run.
func (c *Conn) Done() bool { return c.done.Load() }

// SuccessCount returns the number of completed responses ever observed on
// this connection, used by the aggregator's real-concurrency metrics.
func (c *Conn) SuccessCount() int64 { return c.successCount }

// Kill is called by the worker's drain loop on a connection stuck past its
// deadline. Closing the socket concurrently with a blocked Read/Write wakes
// that call with an error, which the owning goroutine turns into a failure
// and a clean exit.
func (c *Conn) Kill() {
	if c.done.CompareAndSwap(false, true) {
		if c.socket != nil {
			closeHard(c.socket)
		}
		c.counters.incFail()
	}
}

// IdleFor reports how long it has been since this connection last made
// progress, for the drain deadline computation in spec.md §4.4.
func (c *Conn) IdleFor(now time.Time) time.Duration {
	return now.Sub(c.lastActivity.Load())
}

// Run drives the connection through repeated request/response cycles until
// the run budget is exhausted or the connection is killed by drain. It is
// meant to be the body of its own goroutine.
func (c *Conn) Run() {
	c.bb = bufpool.Get()
	defer func() {
		c.done.Store(true)
		bufpool.Put(c.bb)
	}()

	for !c.done.Load() {
		if !c.budget.More() {
			c.done.Store(true)
			return
		}

		c.state = StateConnecting
		if err := c.dial(); err != nil {
			c.counters.incFail()
			c.logWarn("dial", err)
			continue
		}
		c.counters.incConnect()
		c.aliveCount = 0

		for {
			c.touch()
			c.state = StateWriting
			if err := c.writeRequest(); err != nil {
				c.recycle("write", err)
				break
			}

			c.state = StateReadingHeaders
			info, err := c.readHeaders()
			if err != nil {
				c.recycle("headers", err)
				break
			}

			c.state = StateReadingBody
			if err := c.readBody(info); err != nil {
				c.recycle("body", err)
				break
			}

			payload := c.bytesReceived
			overhead := int64(info.HeaderLen)
			c.counters.addSuccess(payload, overhead)
			c.successCount++
			c.aliveCount++

			effectiveKeepAlive := c.cfg.KeepAlive && info.KeepAlive
			if !effectiveKeepAlive {
				closeGraceful(c.socket)
				break
			}
			// Rearm on the same socket only while the budget allows another request.
			if !c.budget.More() {
				closeGraceful(c.socket)
				c.done.Store(true)
				return
			}
		}
	}
}

func (c *Conn) touch() {
	c.lastActivity.Store(time.Now())
}

func (c *Conn) recycle(phase string, err error) {
	if err != nil && err != io.EOF {
		c.logWarn(phase, err)
	}
	closeHard(c.socket)
	c.counters.incFail()
}

func (c *Conn) logWarn(phase string, err error) {
	if c.cfg.Log == nil {
		return
	}
	c.cfg.Log.WithFields(logrus.Fields{
		"conn":  c.id,
		"phase": phase,
	}).Warn(err)
}

// State returns the connection's current lifecycle state.
func (c *Conn) State() State { return c.state }
