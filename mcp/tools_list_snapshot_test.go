package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestBuildToolsListResponseJSON(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := BuildToolsListResponseJSON(ctx, Config{})
	if err != nil {
		t.Fatalf("build tools list json: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected non-empty tools list json")
	}

	var decoded ToolsListResponse
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded.JSONRPC != "2.0" {
		t.Fatalf("expected jsonrpc=2.0, got %q", decoded.JSONRPC)
	}
	if decoded.ID != 1 {
		t.Fatalf("expected id=1, got %d", decoded.ID)
	}
	if len(decoded.Result.Tools) != len(mcpToolNames) {
		t.Fatalf("expected %d tools, got %d", len(mcpToolNames), len(decoded.Result.Tools))
	}

	found := map[string]bool{}
	for _, tool := range decoded.Result.Tools {
		if tool == nil {
			continue
		}
		if tool.InputSchema == nil {
			t.Fatalf("tool %q missing input schema", tool.Name)
		}
		found[tool.Name] = true
	}
	for _, want := range mcpToolNames {
		if !found[want] {
			t.Fatalf("missing tool %q in tools/list output", want)
		}
	}
}
