package dbmcp

import (
	"strings"
	"testing"
)

func TestNormalizeBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr string
	}{
		{name: "default", raw: DefaultAPIBaseURL, want: "http://localhost:8080/api"},
		{name: "trailing slash stripped", raw: "http://localhost:8080/api/", want: "http://localhost:8080/api"},
		{name: "https kept", raw: "https://db.example.com/api", want: "https://db.example.com/api"},
		{name: "query dropped", raw: "http://localhost:8080/api?x=1", want: "http://localhost:8080/api"},
		{name: "empty", raw: "   ", wantErr: "api base url required"},
		{name: "bad scheme", raw: "ftp://localhost/api", wantErr: "must use http or https"},
		{name: "missing host", raw: "http://", wantErr: "missing host"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeBaseURL(tc.raw)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize %q: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAPIBaseURLFromEnv(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "")
	if got := APIBaseURLFromEnv(); got != DefaultAPIBaseURL {
		t.Fatalf("expected default %q, got %q", DefaultAPIBaseURL, got)
	}
	t.Setenv(EnvAPIBaseURL, "http://10.0.0.5:8080/api")
	if got := APIBaseURLFromEnv(); got != "http://10.0.0.5:8080/api" {
		t.Fatalf("expected env override, got %q", got)
	}
}
