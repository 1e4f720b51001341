// Package dbmcp exposes the shared configuration surface of the Managed DB
// MCP bridge: the upstream API base URL, its environment variable, and the
// normalization rules both the client SDK and the CLI apply before dialing.
//
// The bridge itself owns no state. Every tool call and every CLI verb maps to
// exactly one HTTP request against the Managed DB API; projects, tables,
// backups, and keys all live upstream. See the mcp package for the facade
// server and the client package for the API SDK.
package dbmcp
