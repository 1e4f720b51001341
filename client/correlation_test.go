package client

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestNormalizeCorrelationID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{name: "plain", in: "req-123", want: "req-123", wantOK: true},
		{name: "trimmed", in: "  req-123  ", want: "req-123", wantOK: true},
		{name: "empty", in: "", wantOK: false},
		{name: "blank", in: "   ", wantOK: false},
		{name: "control chars", in: "req\n123", wantOK: false},
		{name: "non ascii", in: "réq-123", wantOK: false},
		{name: "too long", in: strings.Repeat("a", MaxCorrelationIDLength+1), wantOK: false},
		{name: "max length", in: strings.Repeat("a", MaxCorrelationIDLength), want: strings.Repeat("a", MaxCorrelationIDLength), wantOK: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := NormalizeCorrelationID(tc.in)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCorrelationIDRoundTripsThroughContext(t *testing.T) {
	t.Parallel()

	ctx := WithCorrelationID(context.Background(), "req-abc")
	if got := CorrelationIDFromContext(ctx); got != "req-abc" {
		t.Fatalf("expected req-abc, got %q", got)
	}

	unchanged := WithCorrelationID(context.Background(), "\x00")
	if got := CorrelationIDFromContext(unchanged); got != "" {
		t.Fatalf("expected rejected id to leave ctx empty, got %q", got)
	}
}

func TestGenerateCorrelationIDIsUUID(t *testing.T) {
	t.Parallel()

	id := GenerateCorrelationID()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid correlation id, got %q: %v", id, err)
	}
}

func TestRequestsCarryContextCorrelationID(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen string
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = r.Header.Get("X-Request-ID")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"projects":[]}`))
	})

	ctx := WithCorrelationID(context.Background(), "trace-42")
	if _, err := cli.ListProjects(ctx); err != nil {
		t.Fatalf("list projects: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if seen != "trace-42" {
		t.Fatalf("expected trace-42 forwarded, got %q", seen)
	}
}
