package mcp

import "strings"

const (
	toolCreateProject     = "create_project"
	toolListProjects      = "list_projects"
	toolGetProject        = "get_project"
	toolDeleteProject     = "delete_project"
	toolRotateProjectKeys = "rotate_project_keys"
	toolGetProjectHealth  = "get_project_health"
	toolCreateTable       = "create_table"
	toolRunMigration      = "run_migration"
	toolBackupProject     = "backup_project"
	toolRestoreProject    = "restore_project"
)

var mcpToolNames = []string{
	toolCreateProject,
	toolListProjects,
	toolGetProject,
	toolDeleteProject,
	toolRotateProjectKeys,
	toolGetProjectHealth,
	toolCreateTable,
	toolRunMigration,
	toolBackupProject,
	toolRestoreProject,
}

type toolContract struct {
	Top      []string
	Purpose  string
	UseWhen  string
	Requires string
	Effects  string
	Retry    string
	Next     string
}

func formatToolDescription(spec toolContract) string {
	lines := make([]string, 0, len(spec.Top)+6)
	for _, line := range spec.Top {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	lines = append(lines, []string{
		"Purpose: " + spec.Purpose,
		"Use when: " + spec.UseWhen,
		"Requires: " + spec.Requires,
		"Effects: " + spec.Effects,
		"Retry: " + spec.Retry,
		"Next: " + spec.Next,
	}...)
	return strings.Join(lines, "\n")
}

const (
	secretKeysLine      = "SENSITIVE: Returned API keys, JWT secrets, and connection URIs are credentials. Never echo them into user-visible summaries, logs, or reasoning."
	destructiveLine     = "DESTRUCTIVE: hard=true permanently removes the database and PostgREST container; data is unrecoverable except from backups."
	singleAttemptLine   = "SINGLE ATTEMPT: The bridge issues exactly one upstream request; it never retries on your behalf."
	sqlSafetyLine       = "SQL SAFETY: Statements run with the project's privileges; prefer idempotent migrations and explicit transactions."
	keyInvalidationLine = "INVALIDATION: Rotation invalidates the previous anon/service keys immediately; dependent clients must be updated."
)

func buildToolDescriptions(cfg Config) map[string]string {
	return map[string]string{
		toolCreateProject: formatToolDescription(toolContract{
			Top:      []string{secretKeysLine, singleAttemptLine},
			Purpose:  "Create a new managed database project with an isolated database (or schema), roles, and an auto-generated REST API.",
			UseWhen:  "A workflow needs a fresh database project; nothing suitable exists in list_projects.",
			Requires: "name. Optional: mode (db|schema, default db), description.",
			Effects:  "One upstream POST /projects; provisions database, roles, keys, and PostgREST endpoint.",
			Retry:    "Not retryable blindly: a second call creates a second project. Check list_projects before retrying.",
			Next:     "Record the returned project id; use get_project_health to verify availability.",
		}),
		toolListProjects: formatToolDescription(toolContract{
			Top:      []string{singleAttemptLine},
			Purpose:  "List all managed database projects.",
			UseWhen:  "Discovering existing projects or resolving a name to a project id.",
			Requires: "Nothing.",
			Effects:  "One upstream GET /projects; read-only.",
			Retry:    "Safe to retry.",
			Next:     "Use get_project with a returned id for connection details and keys.",
		}),
		toolGetProject: formatToolDescription(toolContract{
			Top:      []string{secretKeysLine, singleAttemptLine},
			Purpose:  "Get detailed information about one project including connection details and API keys.",
			UseWhen:  "You hold a project id and need its connection URI, REST endpoint, or keys.",
			Requires: "project_id (UUID).",
			Effects:  "One upstream GET /projects/{id}; read-only.",
			Retry:    "Safe to retry.",
			Next:     "Use create_table or run_migration to shape the schema.",
		}),
		toolDeleteProject: formatToolDescription(toolContract{
			Top:      []string{destructiveLine, singleAttemptLine},
			Purpose:  "Delete a project: soft delete by default, permanent removal with hard=true.",
			UseWhen:  "A project is no longer needed. Prefer soft delete unless storage must be reclaimed.",
			Requires: "project_id (UUID). Optional: hard (default false).",
			Effects:  "One upstream DELETE /projects/{id}; hard=true drops the database and container.",
			Retry:    "Soft delete is idempotent. Do not retry hard deletes without re-checking get_project.",
			Next:     "Verify with list_projects; restore_project can recover data only from an existing backup artifact.",
		}),
		toolRotateProjectKeys: formatToolDescription(toolContract{
			Top:      []string{secretKeysLine, keyInvalidationLine, singleAttemptLine},
			Purpose:  "Rotate the JWT secret and both API keys (anon_key, service_key) for a project.",
			UseWhen:  "Credentials leaked, aged out, or a handover requires fresh keys.",
			Requires: "project_id (UUID).",
			Effects:  "One upstream POST /projects/{id}/rotate-keys; old keys stop working immediately.",
			Retry:    "Retrying rotates again and invalidates the keys you just received.",
			Next:     "Distribute the new keys to every dependent client before resuming traffic.",
		}),
		toolGetProjectHealth: formatToolDescription(toolContract{
			Top:      []string{singleAttemptLine},
			Purpose:  "Check health of a project's database and PostgREST API.",
			UseWhen:  "After create_project or restore_project, or when upstream calls start failing.",
			Requires: "project_id (UUID).",
			Effects:  "One upstream GET /projects/{id}/health; read-only.",
			Retry:    "Safe to retry.",
			Next:     "If status is not ok, inspect the per-dependency sub-statuses in the result.",
		}),
		toolCreateTable: formatToolDescription(toolContract{
			Top:      []string{singleAttemptLine},
			Purpose:  "Create a table in a project database with columns, optional indexes, and optional RLS policies.",
			UseWhen:  "Declaratively shaping a schema; for arbitrary DDL use run_migration instead.",
			Requires: "project_id (UUID), name, columns (each with name and data_type). Optional: indexes, rls_policies.",
			Effects:  "One upstream POST /projects/{id}/tables; PostgREST exposes the table automatically.",
			Retry:    "Not idempotent: retrying after success fails on the existing table.",
			Next:     "Use run_migration for follow-up DDL or seed data.",
		}),
		toolRunMigration: formatToolDescription(toolContract{
			Top:      []string{sqlSafetyLine, singleAttemptLine},
			Purpose:  "Execute arbitrary SQL against a project database.",
			UseWhen:  "Schema changes or data fixes beyond what create_table expresses.",
			Requires: "project_id (UUID), sql. Optional: statement_timeout_ms (default 30000).",
			Effects:  "One upstream POST /projects/{id}/migrations; the SQL runs as submitted.",
			Retry:    "Only retry migrations written to be idempotent.",
			Next:     "Verify results with a read through the project's REST endpoint or a follow-up query.",
		}),
		toolBackupProject: formatToolDescription(toolContract{
			Top:      []string{singleAttemptLine},
			Purpose:  "Create a pg_dump backup of a project database.",
			UseWhen:  "Before destructive operations (hard delete, risky migrations) or on a schedule.",
			Requires: "project_id (UUID).",
			Effects:  "One upstream POST /projects/{id}/backup; produces an artifact in upstream backup storage.",
			Retry:    "Safe to retry; each attempt produces a new artifact.",
			Next:     "Keep the returned artifact_path; restore_project needs it verbatim.",
		}),
		toolRestoreProject: formatToolDescription(toolContract{
			Top:      []string{destructiveLine, singleAttemptLine},
			Purpose:  "Restore a project database from a backup artifact.",
			UseWhen:  "Recovering from data loss or rolling back a failed migration.",
			Requires: "project_id (UUID), artifact_path from a previous backup_project.",
			Effects:  "One upstream POST /projects/{id}/restore; current data is replaced by the artifact contents.",
			Retry:    "Do not retry while a restore is in progress; check get_project_health first.",
			Next:     "Confirm with get_project_health, then spot-check restored data.",
		}),
	}
}
