package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/xid"

	"pkt.systems/pslog"

	"pkt.systems/dbmcp"
	"pkt.systems/dbmcp/client"
	"pkt.systems/dbmcp/internal/svcfields"
	"pkt.systems/dbmcp/internal/version"
)

// Transport selectors for Config.Transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config controls the Managed DB MCP facade runtime behavior.
type Config struct {
	// Transport selects stdio (default) or streamable HTTP serving.
	Transport string
	// Listen is the HTTP listen address; ignored for stdio.
	Listen string
	// MCPPath is the HTTP path for the streamable MCP endpoint.
	MCPPath string
	// APIBaseURL locates the upstream Managed DB API.
	APIBaseURL string
	// HTTPTimeout bounds each upstream request.
	HTTPTimeout time.Duration
}

// Server is the MCP facade service contract.
type Server interface {
	Run(context.Context) error
}

// NewServerRequest wraps constructor inputs.
type NewServerRequest struct {
	Config Config
	Logger pslog.Logger
}

type server struct {
	cfg          Config
	logger       pslog.Logger
	lifecycleLog pslog.Logger
	transportLog pslog.Logger
	toolLog      pslog.Logger
	upstream     *client.Client
	httpServer   *http.Server
	mcpHTTPPath  string
}

// NewServer constructs the Managed DB MCP facade service.
func NewServer(req NewServerRequest) (Server, error) {
	cfg := req.Config
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logger := req.Logger
	if logger == nil {
		logger = pslog.NoopLogger()
	}

	s := &server{
		cfg:          cfg,
		logger:       logger,
		lifecycleLog: svcfields.WithSubsystem(logger, "server.lifecycle.mcp"),
		transportLog: svcfields.WithSubsystem(logger, "mcp.transport.http"),
		toolLog:      svcfields.WithSubsystem(logger, "mcp.tools"),
		mcpHTTPPath:  cleanHTTPPath(cfg.MCPPath),
	}

	upstream, err := newUpstreamClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	s.upstream = upstream

	if cfg.Transport == TransportHTTP {
		s.httpServer = &http.Server{
			Addr:    cfg.Listen,
			Handler: s.buildMux(),
		}
	}

	return s, nil
}

func (s *server) Run(ctx context.Context) error {
	s.lifecycleLog.Info("starting managed-db MCP facade",
		"transport", s.cfg.Transport,
		"api_base_url", s.upstream.BaseURL(),
	)
	if s.cfg.Transport == TransportStdio {
		return s.buildMCPServer().Run(ctx, &mcpsdk.StdioTransport{})
	}

	s.lifecycleLog.Info("listening", "listen", s.cfg.Listen, "mcp_path", s.mcpHTTPPath)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *server) buildMCPServer() *mcpsdk.Server {
	mcpSrv := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "managed-db",
		Version: version.Current(),
	}, &mcpsdk.ServerOptions{
		Instructions: defaultServerInstructions(s.cfg),
	})
	s.registerResources(mcpSrv)
	s.registerTools(mcpSrv)
	return mcpSrv
}

func (s *server) buildMux() *http.ServeMux {
	mcpSrv := s.buildMCPServer()
	streamable := mcpsdk.NewStreamableHTTPHandler(func(_ *http.Request) *mcpsdk.Server {
		return mcpSrv
	}, nil)

	mux := http.NewServeMux()
	mux.Handle(s.mcpHTTPPath, s.withAccessLog(streamable))
	return mux
}

func (s *server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = xid.New().String()
		}
		s.transportLog.Debug("mcp.http.request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		)
		next.ServeHTTP(w, r)
	})
}

func (s *server) registerTools(srv *mcpsdk.Server) {
	descriptions := buildToolDescriptions(s.cfg)
	desc := func(name string) string {
		description, ok := descriptions[name]
		if !ok {
			panic(fmt.Sprintf("missing MCP tool description for %q", name))
		}
		return description
	}

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolCreateProject,
		Description: desc(toolCreateProject),
	}, withStructuredToolErrors(s.handleCreateProjectTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolListProjects,
		Description: desc(toolListProjects),
	}, withStructuredToolErrors(s.handleListProjectsTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolGetProject,
		Description: desc(toolGetProject),
	}, withStructuredToolErrors(s.handleGetProjectTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolDeleteProject,
		Description: desc(toolDeleteProject),
	}, withStructuredToolErrors(s.handleDeleteProjectTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolRotateProjectKeys,
		Description: desc(toolRotateProjectKeys),
	}, withStructuredToolErrors(s.handleRotateProjectKeysTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolGetProjectHealth,
		Description: desc(toolGetProjectHealth),
	}, withStructuredToolErrors(s.handleGetProjectHealthTool))

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolCreateTable,
		Description: desc(toolCreateTable),
	}, withStructuredToolErrors(s.handleCreateTableTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolRunMigration,
		Description: desc(toolRunMigration),
	}, withStructuredToolErrors(s.handleRunMigrationTool))

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolBackupProject,
		Description: desc(toolBackupProject),
	}, withStructuredToolErrors(s.handleBackupProjectTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolRestoreProject,
		Description: desc(toolRestoreProject),
	}, withStructuredToolErrors(s.handleRestoreProjectTool))
}

func newUpstreamClient(cfg Config, logger pslog.Logger) (*client.Client, error) {
	return client.New(cfg.APIBaseURL,
		client.WithHTTPTimeout(cfg.HTTPTimeout),
		client.WithLogger(logger),
	)
}

func applyDefaults(cfg *Config) {
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = "127.0.0.1:19346"
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = dbmcp.APIBaseURLFromEnv()
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = dbmcp.DefaultHTTPTimeout
	}
	if strings.TrimSpace(cfg.MCPPath) == "" {
		cfg.MCPPath = "/mcp"
	}
}

func validateConfig(cfg Config) error {
	switch cfg.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("invalid transport %q (expected stdio|http)", cfg.Transport)
	}
	if cfg.Transport == TransportHTTP && strings.TrimSpace(cfg.Listen) == "" {
		return fmt.Errorf("listen address required for http transport")
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return fmt.Errorf("managed db api base url required")
	}
	return nil
}

func cleanHTTPPath(raw string) string {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "/mcp"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
