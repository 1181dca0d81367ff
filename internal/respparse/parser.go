// Package respparse scans a connection's receive buffer for a complete set
// of HTTP/1.1 response headers and extracts the handful of fields the
// reactor needs to frame the body: Content-Length, chunked
// Transfer-Encoding, Connection, and protocol version.
//
// Grounded on the teacher's http11/parser.go header scan (case-insensitive
// field matching, single forward pass, no backtracking) adapted from
// request-line parsing to status-line parsing and generalized to work over
// an in-place, not heap-appended, buffer.
package respparse

import (
	"bytes"
	"errors"
)

// ErrMalformed is returned when the buffer does not contain a well-formed
// status line, or when neither Content-Length nor chunked framing is
// present (spec.md §4.2: "the response is declared malformed").
var ErrMalformed = errors.New("respparse: malformed response")

// ErrHeadersTooLarge is returned when no header terminator is found within
// the caller-supplied buffer capacity.
var ErrHeadersTooLarge = errors.New("respparse: headers exceed buffer capacity")

// Info is the decision the reactor needs after headers are parsed.
type Info struct {
	// HeaderLen is the number of bytes occupied by the status line and
	// headers, including the terminating blank line.
	HeaderLen int

	// StatusCode is the parsed numeric status code (0 if unparseable, which
	// is tolerated — the engine does not validate response content).
	StatusCode int

	// ContentLength is the declared body length, or -1 if absent.
	ContentLength int64

	// Chunked is true when Transfer-Encoding's value prefix-matches
	// "chunked".
	Chunked bool

	// ProtoMinor is 1 for HTTP/1.1, 0 for HTTP/1.0 (ProtoMajor is always 1;
	// anything else is rejected during status-line parsing).
	ProtoMinor int

	// KeepAlive is the framing decision from the Connection header, falling
	// back to the protocol-version default when absent.
	KeepAlive bool
}

// FindHeadersEnd locates the end of the header block, returning the byte
// offset immediately after the terminator and true if found. Accepts either
// "\r\n\r\n" or a bare "\n\n" (spec.md §4.2: "the leading \n\n shortcut is
// allowed because servers vary").
func FindHeadersEnd(buf []byte) (int, bool) {
	if i := bytes.Index(buf, []byte("\r\n\r\n")); i >= 0 {
		return i + 4, true
	}
	if i := bytes.Index(buf, []byte("\n\n")); i >= 0 {
		return i + 2, true
	}
	return 0, false
}

// Parse scans buf[:headerLen] (as returned by FindHeadersEnd) and extracts
// framing info. buf must contain at least a full status line and header
// block; Parse does not itself search for the terminator.
func Parse(buf []byte, headerLen int) (Info, error) {
	info := Info{ContentLength: -1}

	lineEnd := bytes.IndexByte(buf, '\n')
	if lineEnd < 0 || lineEnd >= headerLen {
		return info, ErrMalformed
	}
	statusLine := buf[:lineEnd]
	if len(statusLine) > 0 && statusLine[len(statusLine)-1] == '\r' {
		statusLine = statusLine[:len(statusLine)-1]
	}

	major, minor, statusCode, ok := parseStatusLine(statusLine)
	if !ok || major != 1 {
		return info, ErrMalformed
	}
	info.ProtoMinor = minor
	info.StatusCode = statusCode

	pos := lineEnd + 1
	var hasContentLength, hasChunked, hasConnectionClose, hasConnectionKeepAlive bool

	for pos < headerLen {
		rest := buf[pos:headerLen]
		if len(rest) >= 2 && rest[0] == '\r' && rest[1] == '\n' {
			break
		}
		if len(rest) >= 1 && rest[0] == '\n' {
			break
		}

		nl := bytes.IndexByte(rest, '\n')
		if nl < 0 {
			break
		}
		line := rest[:nl]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		pos += nl + 1

		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		name := bytes.TrimSpace(line[:colon])
		value := bytes.TrimSpace(line[colon+1:])

		switch {
		case equalFold(name, headerContentLength):
			n, ok := parseUint(value)
			if ok {
				info.ContentLength = n
				hasContentLength = true
			}
		case equalFold(name, headerTransferEncoding):
			if hasPrefixFold(value, headerChunkedVal) {
				info.Chunked = true
				hasChunked = true
			}
		case equalFold(name, headerConnection):
			if hasPrefixFold(value, headerKeepAliveVal) {
				hasConnectionKeepAlive = true
			} else if hasPrefixFold(value, headerCloseVal) {
				hasConnectionClose = true
			}
		}
	}

	if hasConnectionKeepAlive {
		info.KeepAlive = true
	} else if hasConnectionClose {
		info.KeepAlive = false
	} else {
		info.KeepAlive = minor == 1
	}

	if !hasContentLength && !hasChunked {
		return info, ErrMalformed
	}
	info.HeaderLen = headerLen
	return info, nil
}

var (
	headerContentLength    = []byte("content-length")
	headerTransferEncoding = []byte("transfer-encoding")
	headerChunkedVal       = []byte("chunked")
	headerConnection       = []byte("connection")
	headerKeepAliveVal     = []byte("keep-alive")
	headerCloseVal         = []byte("close")
)

// parseStatusLine parses "HTTP/1.1 200 OK" into (1, 1, 200, true).
func parseStatusLine(line []byte) (major, minor, status int, ok bool) {
	if len(line) < 8 || !bytes.HasPrefix(line, []byte("HTTP/")) {
		return 0, 0, 0, false
	}
	if line[6] != '.' {
		return 0, 0, 0, false
	}
	major = int(line[5] - '0')
	minor = int(line[7] - '0')
	if major < 0 || major > 9 || minor < 0 || minor > 9 {
		return 0, 0, 0, false
	}

	rest := line[8:]
	rest = bytes.TrimLeft(rest, " ")
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		status = status*10 + int(rest[i]-'0')
		i++
	}
	if i == 0 {
		return major, minor, 0, true // tolerate missing status code
	}
	return major, minor, status, true
}

func parseUint(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}

func equalFold(a, b []byte) bool {
	return bytes.EqualFold(a, b)
}

func hasPrefixFold(value, prefix []byte) bool {
	if len(value) < len(prefix) {
		return false
	}
	return bytes.EqualFold(value[:len(prefix)], prefix)
}
