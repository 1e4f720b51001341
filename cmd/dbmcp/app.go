package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pkt.systems/pslog"

	"pkt.systems/dbmcp"
	"pkt.systems/dbmcp/client"
	"pkt.systems/dbmcp/internal/svcfields"
	"pkt.systems/dbmcp/mcp"
)

const (
	mcpTransportKey   = "mcp.transport"
	mcpListenKey      = "mcp.listen"
	mcpPathKey        = "mcp.path"
	mcpAPIBaseURLKey  = "mcp.api_url"
	mcpHTTPTimeoutKey = "mcp.http_timeout"
	cliLogLevelKey    = "cli.log_level"
)

func submain(ctx context.Context) int {
	baseLogger := pslog.LoggerFromEnv(
		pslog.WithEnvPrefix("DBMCP_LOG_"),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.InfoLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "dbmcp")
	cmd := newRootCommand(baseLogger)
	ctx = withSignalCancel(ctx)
	if _, err := cmd.ExecuteContextC(ctx); err != nil {
		if err != context.Canceled {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(baseLogger pslog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dbmcp",
		Short:         "dbmcp bridges the Managed DB API into MCP tools for AI agents",
		SilenceErrors: true,
		Example: `
  # Serve MCP over stdio against a local Managed DB API
  MANAGED_DB_API_URL=http://localhost:8080/api dbmcp

  # Serve MCP over streamable HTTP
  dbmcp --transport http --listen 127.0.0.1:19346 --mcp-path /mcp

  # Inspect the exposed tool registry
  dbmcp tools-list
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			logger := baseLogger
			logLevel := strings.TrimSpace(viper.GetString(cliLogLevelKey))
			if logLevel != "" {
				if level, ok := pslog.ParseLevel(logLevel); ok {
					logger = logger.LogLevel(level)
				}
			}
			cliLogger := svcfields.WithSubsystem(logger, "cli.root")
			cliLogger.Info("welcome to dbmcp", "pid", os.Getpid())

			cfg := mcpConfigFromViper()
			svc, err := mcp.NewServer(mcp.NewServerRequest{
				Config: cfg,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return svc.Run(ctx)
		},
	}

	persistentFlags := cmd.PersistentFlags()
	persistentFlags.StringP("api-url", "u", "", "Managed DB API base URL (defaults to $"+dbmcp.EnvAPIBaseURL+" or "+dbmcp.DefaultAPIBaseURL+")")
	persistentFlags.Duration("http-timeout", dbmcp.DefaultHTTPTimeout, "timeout per upstream Managed DB API request")
	persistentFlags.String("log-level", "", "log level override (trace|debug|info|warn|error)")

	flags := cmd.Flags()
	flags.StringP("transport", "t", mcp.TransportStdio, "MCP transport (stdio or http)")
	flags.StringP("listen", "l", "127.0.0.1:19346", "listen address for the http transport")
	flags.String("mcp-path", "/mcp", "HTTP path for the streamable MCP endpoint")

	mustBindFlag(mcpAPIBaseURLKey, dbmcp.EnvAPIBaseURL, persistentFlags.Lookup("api-url"))
	mustBindFlag(mcpHTTPTimeoutKey, "DBMCP_MCP_HTTP_TIMEOUT", persistentFlags.Lookup("http-timeout"))
	mustBindFlag(cliLogLevelKey, "DBMCP_LOG_LEVEL", persistentFlags.Lookup("log-level"))
	mustBindFlag(mcpTransportKey, "DBMCP_MCP_TRANSPORT", flags.Lookup("transport"))
	mustBindFlag(mcpListenKey, "DBMCP_MCP_LISTEN", flags.Lookup("listen"))
	mustBindFlag(mcpPathKey, "DBMCP_MCP_PATH", flags.Lookup("mcp-path"))

	cmd.AddCommand(newProjectCommand(baseLogger))
	cmd.AddCommand(newTableCommand(baseLogger))
	cmd.AddCommand(newMigrateCommand(baseLogger))
	cmd.AddCommand(newBackupCommand(baseLogger))
	cmd.AddCommand(newRestoreCommand(baseLogger))
	cmd.AddCommand(newToolsListCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func mcpConfigFromViper() mcp.Config {
	return mcp.Config{
		Transport:   strings.TrimSpace(viper.GetString(mcpTransportKey)),
		Listen:      strings.TrimSpace(viper.GetString(mcpListenKey)),
		MCPPath:     strings.TrimSpace(viper.GetString(mcpPathKey)),
		APIBaseURL:  strings.TrimSpace(viper.GetString(mcpAPIBaseURLKey)),
		HTTPTimeout: viper.GetDuration(mcpHTTPTimeoutKey),
	}
}

func mustBindFlag(key, env string, flag *pflag.Flag) {
	if flag == nil {
		panic(fmt.Sprintf("flag for key %s not found", key))
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
	if env != "" {
		if err := viper.BindEnv(key, env); err != nil {
			panic(err)
		}
	}
}

func newUpstreamCLIClient(baseLogger pslog.Logger) (*client.Client, error) {
	opts := []client.Option{client.WithLogger(baseLogger)}
	timeout := viper.GetDuration(mcpHTTPTimeoutKey)
	if timeout > 0 {
		opts = append(opts, client.WithHTTPTimeout(timeout))
	}
	return client.New(strings.TrimSpace(viper.GetString(mcpAPIBaseURLKey)), opts...)
}

func commandContextWithCorrelation(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return client.WithCorrelationID(ctx, client.GenerateCorrelationID())
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx
}
