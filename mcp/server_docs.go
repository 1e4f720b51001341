package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	docOverviewURI  = "resource://docs/overview.md"
	docWorkflowsURI = "resource://docs/workflows.md"
)

func defaultServerInstructions(cfg Config) string {
	return strings.TrimSpace(fmt.Sprintf(`
Managed DB MCP bridge operating manual:
- Upstream API: %s
- Every tool maps to exactly one upstream HTTP call; the bridge keeps no state and never retries.
- Discovery workflow: list_projects first, then get_project for connection details and keys.
- Provisioning workflow: create_project -> get_project_health -> create_table / run_migration.
- Safety: prefer backup_project before hard deletes or risky migrations; restore_project replaces current data.
- Credential hygiene: anon/service keys, JWT secrets, and connection URIs returned by tools are secrets; never paste them into chat, tickets, or logs.
- Errors carry a structured envelope with error_code, detail, retryable, and (for upstream failures) http_status.
- Documentation resources: %s, %s
`, cfg.APIBaseURL, docOverviewURI, docWorkflowsURI))
}

func (s *server) registerResources(srv *mcpsdk.Server) {
	for _, uri := range s.resourceURIs() {
		srv.AddResource(&mcpsdk.Resource{
			URI:         uri,
			Name:        uri,
			Title:       uri,
			Description: "Managed DB MCP operational documentation",
			MIMEType:    "text/markdown",
		}, s.handleDocResource)
	}
}

func (s *server) resourceURIs() []string {
	docs := s.resourceDocs()
	uris := make([]string, 0, len(docs))
	for uri := range docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

func (s *server) resourceDocs() map[string]string {
	return map[string]string{
		docOverviewURI: strings.TrimSpace(fmt.Sprintf(`
# Managed DB MCP Overview

This bridge fronts the Managed DB API at %q. It owns no state: projects,
tables, API keys, and backups live upstream, and each tool call issues exactly
one HTTP request.

Tool surface:

| Tool | Upstream call |
| --- | --- |
| create_project | POST /projects |
| list_projects | GET /projects |
| get_project | GET /projects/{id} |
| delete_project | DELETE /projects/{id}?hard= |
| rotate_project_keys | POST /projects/{id}/rotate-keys |
| create_table | POST /projects/{id}/tables |
| run_migration | POST /projects/{id}/migrations |
| backup_project | POST /projects/{id}/backup |
| restore_project | POST /projects/{id}/restore |
| get_project_health | GET /projects/{id}/health |

Failures are reported per call and never affect subsequent calls.
`, s.cfg.APIBaseURL)),
		docWorkflowsURI: strings.TrimSpace(`
# Workflows

## Provision a new project
1. create_project with a descriptive name (mode db unless schema isolation is enough).
2. get_project_health until status is ok.
3. create_table for each relation, or run_migration for full DDL scripts.
4. Hand the rest_base_url and anon_key to the consuming application.

## Change schema safely
1. backup_project and keep the artifact_path.
2. run_migration with idempotent SQL and an explicit statement_timeout_ms.
3. get_project_health; on failure, restore_project with the saved artifact_path.

## Retire a project
1. backup_project if the data may be needed again.
2. delete_project (soft). Only pass hard=true once the backup is verified.

## Credential rotation
1. rotate_project_keys.
2. Update every dependent client before resuming traffic; old keys are dead
   the moment rotation returns.
`),
	}
}

func (s *server) handleDocResource(_ context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
	uri := ""
	if req != nil && req.Params != nil {
		uri = strings.TrimSpace(req.Params.URI)
	}
	docs := s.resourceDocs()
	content, ok := docs[uri]
	if !ok {
		return nil, mcpsdk.ResourceNotFoundError(uri)
	}
	return &mcpsdk.ReadResourceResult{
		Contents: []*mcpsdk.ResourceContents{{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     content,
		}},
	}, nil
}
