// Package chunked implements a resumable chunked-transfer-encoding decoder.
//
// Unlike the teacher's io.Reader-based ChunkedReader (which blocks on an
// underlying reader and buffers internally), this decoder is a pure state
// machine over a caller-owned byte slice: it consumes whatever prefix of buf
// it can make sense of and returns, leaving the caller free to top the
// buffer up from the socket and call Decode again. That resumability across
// arbitrary split points is what lets the connection state machine decode a
// chunked body that straddles many short reads.
package chunked

// State names the decoder's position within the chunk-size/CRLF framing.
type State int

const (
	// StateSize is accumulating hex digits of a chunk-size line.
	StateSize State = iota
	// StateCR1 expects the \r that ends a chunk-size line.
	StateCR1
	// StateLF1 expects the \n that ends a chunk-size line.
	StateLF1
	// StateData is copying/skipping chunk-bytes-left raw bytes.
	StateData
	// StateCR2 expects the \r trailing a chunk's data.
	StateCR2
	// StateLF2 expects the \n trailing a chunk's data.
	StateLF2
	// StateDone is terminal: the 0-length chunk and its CRLF were seen.
	StateDone
)

// Result is the outcome of a single Decode call.
type Result int

const (
	// NeedMore means buf was fully consumed (or was insufficient) and more
	// input is required before decoding can continue.
	NeedMore Result = iota
	// Done means the terminator chunk (0\r\n\r\n) was observed.
	Done
	// Malformed means a non-hex digit or an unexpected byte where CR/LF was
	// expected appeared; the stream cannot be decoded further.
	Malformed
)

// Decoder is the resumable chunked-decode state machine described in
// spec.md §4.1. Zero value is ready to use.
type Decoder struct {
	state          State
	chunkBytesLeft uint64
	finalChunk     bool
}

// Reset returns the decoder to its initial state, for reuse across
// connections (e.g. after a keep-alive rearm).
func (d *Decoder) Reset() {
	*d = Decoder{}
}

// Done reports whether the terminator chunk has been fully consumed.
func (d *Decoder) Done() bool {
	return d.state == StateDone
}

// Decode consumes the chunked-framing bytes at the front of buf.
//
// In non-monitor mode, decoded data bytes are compacted in place (the size
// line and CRLF framing are removed via memmove-style copy) and the function
// returns the new decoded length alongside the Result. In monitor-only mode
// buf is left untouched and the returned length is always 0 — the caller is
// only interested in whether the chunk header that happens to share space
// with the response headers resolves to Done/Malformed/NeedMore.
//
// Property: splitting a chunked byte stream at any boundary and feeding it
// through Decode across multiple calls (each resuming from the state left by
// the previous call) yields the same decoded bytes and terminal state as one
// single call over the whole stream.
func (d *Decoder) Decode(buf []byte, monitorOnly bool) (Result, int) {
	src := 0   // read cursor into buf
	dst := 0   // write cursor for compacted output (non-monitor mode only)
	n := len(buf)

	for src < n {
		switch d.state {
		case StateSize:
			c := buf[src]
			switch {
			case c >= '0' && c <= '9':
				d.chunkBytesLeft = d.chunkBytesLeft<<4 | uint64(c-'0')
				src++
			case c >= 'a' && c <= 'f':
				d.chunkBytesLeft = d.chunkBytesLeft<<4 | uint64(c-'a'+10)
				src++
			case c >= 'A' && c <= 'F':
				d.chunkBytesLeft = d.chunkBytesLeft<<4 | uint64(c-'A'+10)
				src++
			case c == '\r':
				d.state = StateLF1
				src++
			default:
				return Malformed, d.compactedLen(dst, monitorOnly)
			}

		case StateLF1:
			if buf[src] != '\n' {
				return Malformed, d.compactedLen(dst, monitorOnly)
			}
			src++
			if d.chunkBytesLeft == 0 {
				d.finalChunk = true
				d.state = StateCR2 // terminator chunk has no data, only trailing CRLF
			} else {
				d.state = StateData
			}

		case StateData:
			remaining := uint64(n - src)
			take := d.chunkBytesLeft
			if take > remaining {
				take = remaining
			}
			if !monitorOnly && take > 0 {
				copy(buf[dst:], buf[src:src+int(take)])
				dst += int(take)
			}
			src += int(take)
			d.chunkBytesLeft -= take
			if d.chunkBytesLeft == 0 {
				d.state = StateCR2
			}

		case StateCR2:
			if buf[src] != '\r' {
				return Malformed, d.compactedLen(dst, monitorOnly)
			}
			src++
			d.state = StateLF2

		case StateLF2:
			if buf[src] != '\n' {
				return Malformed, d.compactedLen(dst, monitorOnly)
			}
			src++
			if d.finalChunk {
				d.state = StateDone
				return Done, d.compactedLen(dst, monitorOnly)
			}
			d.state = StateSize
			d.chunkBytesLeft = 0

		case StateDone:
			// Nothing left to consume; any trailing bytes belong to the
			// next response (pipelining is not used by this engine, but
			// the state machine stays well-defined).
			return Done, d.compactedLen(dst, monitorOnly)
		}
	}

	return NeedMore, d.compactedLen(dst, monitorOnly)
}

func (d *Decoder) compactedLen(dst int, monitorOnly bool) int {
	if monitorOnly {
		return 0
	}
	return dst
}
