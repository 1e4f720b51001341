// Package mcp provides the Managed DB MCP facade server.
//
// The package exposes a standalone MCP runtime that fronts the Managed DB
// HTTP API through the Go client SDK. It is intended for agent runtimes that
// need database-project provisioning, schema management, migrations, backup/
// restore, key rotation, and health checks as callable tools.
//
// # What this package does
//
//   - Serves MCP over stdio (default) or streamable HTTP (default path /mcp)
//   - Registers the ten Managed DB tools: create_project, list_projects,
//     get_project, delete_project, rotate_project_keys, get_project_health,
//     create_table, run_migration, backup_project, restore_project
//   - Maps each tool call to exactly one upstream HTTP request
//   - Surfaces upstream and transport failures as structured tool errors
//
// The facade process is stateless: projects, tables, keys, and backups are
// owned entirely by the upstream Managed DB API. No tool call is retried, and
// no tool failure is fatal to the process; each call fails independently.
//
// # Constructor and lifecycle
//
// Use NewServer with NewServerRequest, then call Run with a cancellable
// context. Run blocks until context cancellation or terminal serve error.
//
// Example:
//
//	srv, err := mcp.NewServer(mcp.NewServerRequest{
//		Config: mcp.Config{
//			APIBaseURL: "http://localhost:8080/api",
//		},
//		Logger: logger,
//	})
//	if err != nil {
//		return err
//	}
//	if err := srv.Run(ctx); err != nil {
//		return err
//	}
//
// # Configuration
//
// Config separates two concerns:
//
//   - MCP transport (`Transport`, `Listen`, `MCPPath`)
//   - upstream Managed DB connectivity (`APIBaseURL`, `HTTPTimeout`)
//
// Defaults applied by this package include:
//
//   - Transport: stdio
//   - Listen: 127.0.0.1:19346
//   - MCPPath: /mcp
//   - APIBaseURL: $MANAGED_DB_API_URL, then http://localhost:8080/api
//   - HTTPTimeout: 30s
package mcp
