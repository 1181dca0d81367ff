package tlsconfig

import (
	"crypto/tls"
	"testing"
)

func TestParseCipherListEmptyUsesDefaults(t *testing.T) {
	got, err := ParseCipherList("")
	if err != nil {
		t.Fatalf("ParseCipherList(\"\"): %v", err)
	}
	if len(got) != len(defaultCipherSuites) {
		t.Fatalf("got %d suites, want %d defaults", len(got), len(defaultCipherSuites))
	}
}

func TestParseCipherListNamed(t *testing.T) {
	got, err := ParseCipherList("ECDHE-RSA-AES128-GCM-SHA256:ECDHE-ECDSA-AES256-GCM-SHA384")
	if err != nil {
		t.Fatalf("ParseCipherList: %v", err)
	}
	want := []uint16{tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("ParseCipherList = %v, want %v", got, want)
	}
}

func TestParseCipherListUnknownNameErrors(t *testing.T) {
	if _, err := ParseCipherList("NOT-A-REAL-CIPHER"); err == nil {
		t.Fatal("expected an error for an unknown cipher name")
	}
}

func TestBuildSetsServerNameAndMinVersion(t *testing.T) {
	cfg := Build("example.invalid", defaultCipherSuites, false)
	if cfg.ServerName != "example.invalid" {
		t.Fatalf("ServerName = %q", cfg.ServerName)
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Fatalf("MinVersion = %v, want TLS 1.2", cfg.MinVersion)
	}
	if cfg.InsecureSkipVerify {
		t.Fatal("InsecureSkipVerify should be false when not requested")
	}
}
