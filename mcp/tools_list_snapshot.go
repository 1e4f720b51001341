package mcp

import (
	"context"
	"encoding/json"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pkt.systems/pslog"

	"pkt.systems/dbmcp/internal/version"
)

// ToolsListResponse mirrors a canonical JSON-RPC tools/list result payload.
type ToolsListResponse struct {
	ID      int                 `json:"id"`
	JSONRPC string              `json:"jsonrpc"`
	Result  ToolsListResultBody `json:"result"`
}

// ToolsListResultBody is the JSON-RPC "result" object for tools/list.
type ToolsListResultBody struct {
	Tools      []*mcpsdk.Tool `json:"tools"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// BuildToolsListResponse builds a canonical tools/list payload in-process.
//
// This does not start a listener and does not connect to the Managed DB API.
// It only materializes the MCP tool registry.
func BuildToolsListResponse(ctx context.Context, cfg Config) (ToolsListResponse, error) {
	applyDefaults(&cfg)

	logger := pslog.NoopLogger()
	s, err := NewServer(NewServerRequest{Config: cfg, Logger: logger})
	if err != nil {
		return ToolsListResponse{}, err
	}
	srv := s.(*server)

	cli := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "dbmcp-tools-list",
		Version: version.Current(),
	}, nil)
	mcpSrv := srv.buildMCPServer()

	t1, t2 := mcpsdk.NewInMemoryTransports()
	ss, err := mcpSrv.Connect(ctx, t1, nil)
	if err != nil {
		return ToolsListResponse{}, err
	}
	defer ss.Close()
	cs, err := cli.Connect(ctx, t2, nil)
	if err != nil {
		return ToolsListResponse{}, err
	}
	defer cs.Close()

	listed, err := cs.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		return ToolsListResponse{}, err
	}
	return ToolsListResponse{
		ID:      1,
		JSONRPC: "2.0",
		Result: ToolsListResultBody{
			Tools:      listed.Tools,
			NextCursor: listed.NextCursor,
		},
	}, nil
}

// BuildToolsListResponseJSON returns the pretty-printed tools/list JSON payload.
func BuildToolsListResponseJSON(ctx context.Context, cfg Config) ([]byte, error) {
	resp, err := BuildToolsListResponse(ctx, cfg)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
