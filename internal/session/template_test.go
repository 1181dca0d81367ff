package session

import (
	"strings"
	"testing"
)

func TestBuildTemplateKeepAlive(t *testing.T) {
	tmpl := BuildTemplate("example.invalid:8080", "/foo", true)
	got := string(tmpl.Bytes)
	want := "GET /foo HTTP/1.1\r\nHost: example.invalid:8080\r\nConnection: keep-alive\r\n\r\n"
	if got != want {
		t.Fatalf("BuildTemplate =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildTemplateClose(t *testing.T) {
	tmpl := BuildTemplate("example.invalid", "/", false)
	if !strings.Contains(string(tmpl.Bytes), "Connection: close\r\n") {
		t.Fatalf("expected Connection: close, got %q", tmpl.Bytes)
	}
}

func TestPoolPickSingleTemplateAlwaysReturnsIt(t *testing.T) {
	p := &Pool{Templates: []Template{BuildTemplate("h", "/a", true)}}
	for _, idx := range []int{0, 5, -3} {
		if got := p.Pick(idx); got != &p.Templates[0] {
			t.Fatalf("Pick(%d) did not return the sole template", idx)
		}
	}
}

func TestPoolPickUsesModulo(t *testing.T) {
	p := &Pool{Templates: []Template{
		BuildTemplate("h", "/a", true),
		BuildTemplate("h", "/b", true),
		BuildTemplate("h", "/c", true),
	}}
	if got := p.Pick(4); got != &p.Templates[1] {
		t.Fatalf("Pick(4) with 3 templates should select index 1")
	}
}
