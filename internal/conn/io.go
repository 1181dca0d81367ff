package conn

import (
	"io"

	"github.com/shaygalon/htt2/internal/chunked"
	"github.com/shaygalon/htt2/internal/respparse"
)

// writeRequest picks a template from the connection's URL pool (uniformly
// at random when the pool holds more than one, per spec.md §4.3: "the
// choice is made at each write initiation, not once per connection") and
// writes it in full.
func (c *Conn) writeRequest() error {
	tmpl := c.pool.Pick(c.rng.Intn(max1(len(c.pool.Templates))))
	writePos := 0
	for writePos < len(tmpl.Bytes) {
		n, err := c.socket.Write(tmpl.Bytes[writePos:])
		if err != nil {
			return err
		}
		writePos += n
		c.touch()
	}
	return nil
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// readHeaders accumulates bytes from the socket into the connection's
// receive buffer until the end-of-headers delimiter is found, then parses
// framing info. Any body bytes read alongside the headers in the same
// syscalls stay in the buffer from c.bodyTailStart on, so readBody can seed
// bytes_received from them (spec.md §4.2).
func (c *Conn) readHeaders() (respparse.Info, error) {
	buf := c.bb.B[:0]
	for {
		if len(buf) == cap(buf) {
			return respparse.Info{}, respparse.ErrHeadersTooLarge
		}
		n, err := c.socket.Read(buf[len(buf):cap(buf)])
		if n > 0 {
			buf = buf[:len(buf)+n]
			c.touch()
		}
		if end, ok := respparse.FindHeadersEnd(buf); ok {
			info, perr := respparse.Parse(buf, end)
			if perr != nil {
				return info, perr
			}
			c.bb.B = buf
			c.bodyTailStart = end
			return info, nil
		}
		if err != nil {
			if err == io.EOF {
				return respparse.Info{}, io.ErrUnexpectedEOF
			}
			return respparse.Info{}, err
		}
	}
}

// readBody consumes the response body, either by counting declared
// Content-Length bytes or by running the chunked decoder to completion,
// seeding bytes_received from whatever body bytes arrived in the same read
// as the headers.
func (c *Conn) readBody(info respparse.Info) error {
	tail := c.bb.B[c.bodyTailStart:]
	c.bytesReceived = 0

	if info.Chunked {
		return c.readChunkedBody(tail)
	}
	return c.readDeclaredBody(info.ContentLength, tail)
}

func (c *Conn) readChunkedBody(tail []byte) error {
	c.chDec.Reset()
	scratch := make([]byte, len(tail), cap(tail))
	copy(scratch, tail)

	for {
		res, n := c.chDec.Decode(scratch, false)
		c.bytesReceived += int64(n)
		switch res {
		case chunked.Done:
			return nil
		case chunked.Malformed:
			return ErrFramingUnknown
		}

		// NeedMore: read another slice from the socket and resume.
		scratch = scratch[:cap(scratch)]
		n2, err := c.socket.Read(scratch)
		if n2 > 0 {
			c.touch()
			scratch = scratch[:n2]
			continue
		}
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
}

func (c *Conn) readDeclaredBody(contentLength int64, tail []byte) error {
	remaining := contentLength - int64(len(tail))
	c.bytesReceived = int64(len(tail))
	if remaining <= 0 {
		c.bytesReceived = contentLength
		return nil
	}

	discard := c.bb.B[:cap(c.bb.B)]
	for remaining > 0 {
		toRead := discard
		if int64(len(toRead)) > remaining {
			toRead = toRead[:remaining]
		}
		n, err := c.socket.Read(toRead)
		if n > 0 {
			c.touch()
			remaining -= int64(n)
			c.bytesReceived += int64(n)
		}
		if err != nil {
			if remaining <= 0 {
				return nil
			}
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}
