package mcp

import (
	"strings"
	"testing"

	"pkt.systems/dbmcp"
)

func TestApplyDefaults(t *testing.T) {
	t.Setenv(dbmcp.EnvAPIBaseURL, "")
	cfg := Config{}
	applyDefaults(&cfg)
	if cfg.Transport != TransportStdio {
		t.Fatalf("expected default transport stdio, got %q", cfg.Transport)
	}
	if cfg.Listen != "127.0.0.1:19346" {
		t.Fatalf("expected default listen, got %q", cfg.Listen)
	}
	if cfg.MCPPath != "/mcp" {
		t.Fatalf("expected default mcp path, got %q", cfg.MCPPath)
	}
	if cfg.APIBaseURL != dbmcp.DefaultAPIBaseURL {
		t.Fatalf("expected default api base url, got %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != dbmcp.DefaultHTTPTimeout {
		t.Fatalf("expected default http timeout, got %v", cfg.HTTPTimeout)
	}
}

func TestApplyDefaultsNormalizesTransportCase(t *testing.T) {
	cfg := Config{Transport: " HTTP "}
	applyDefaults(&cfg)
	if cfg.Transport != TransportHTTP {
		t.Fatalf("expected http transport, got %q", cfg.Transport)
	}
}

func TestValidateConfigRejectsUnknownTransport(t *testing.T) {
	cfg := Config{Transport: "websocket"}
	applyDefaults(&cfg)
	err := validateConfig(cfg)
	if err == nil || !strings.Contains(err.Error(), "invalid transport") {
		t.Fatalf("expected invalid transport error, got %v", err)
	}
}

func TestNewServerRejectsBadBaseURL(t *testing.T) {
	_, err := NewServer(NewServerRequest{Config: Config{APIBaseURL: "ftp://nope"}})
	if err == nil || !strings.Contains(err.Error(), "http or https") {
		t.Fatalf("expected scheme error, got %v", err)
	}
}

func TestCleanHTTPPath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "/mcp"},
		{raw: "mcp", want: "/mcp"},
		{raw: "/mcp/", want: "/mcp"},
		{raw: "/nested/endpoint", want: "/nested/endpoint"},
	}
	for _, tc := range tests {
		if got := cleanHTTPPath(tc.raw); got != tc.want {
			t.Fatalf("cleanHTTPPath(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
