package session

import "fmt"

// connKeepAlive and connClose are the Connection-header values a generated
// template carries, chosen once at startup from the -k flag (spec.md §4.6: "a fully
// formed HTTP/1.1 GET with Host: and Connection: ... blank line").
const (
	connKeepAlive = "keep-alive"
	connClose     = "close"
)

// Template is a precomputed request, built once at startup and never
// rewritten thereafter.
type Template struct {
	Bytes []byte
	Host  string
	Path  string
}

// BuildTemplate renders "GET <path> HTTP/1.1\r\nHost: <hostHeader>\r\n
// Connection: <keep-alive|close>\r\n\r\n".
func BuildTemplate(hostHeader, path string, keepAlive bool) Template {
	conn := connClose
	if keepAlive {
		conn = connKeepAlive
	}
	b := fmt.Appendf(nil, "GET %s HTTP/1.1\r\nHost: %s\r\nConnection: %s\r\n\r\n", path, hostHeader, conn)
	return Template{Bytes: b, Host: hostHeader, Path: path}
}

// Pool is the set of precomputed templates (and the address they target)
// that one connection may draw from. A single-URL run has a pool of size 1.
type Pool struct {
	Addr      string // dial address, host:port; not resolved ahead of dialing
	Templates []Template
}

// Pick returns the sole template when the pool has size 1, or uses the
// supplied index (the reactor passes a worker-local PRNG draw) when larger.
// Selection happens at each write initiation, not once per connection
// (spec.md §4.3).
func (p *Pool) Pick(randIndex int) *Template {
	if len(p.Templates) == 1 {
		return &p.Templates[0]
	}
	return &p.Templates[randIndex%len(p.Templates)]
}
