// Package api defines the wire types of the Managed DB HTTP API as consumed
// by the bridge. The upstream service owns every entity described here; the
// bridge only carries identifiers and payloads through.
package api

import "encoding/json"

// Project isolation modes accepted by POST /projects.
const (
	// ModeDB provisions a dedicated database for the project.
	ModeDB = "db"
	// ModeSchema provisions a schema inside a shared database.
	ModeSchema = "schema"
)

// CreateProjectRequest models the JSON payload for POST /projects.
type CreateProjectRequest struct {
	// Name is the human-readable project name.
	Name string `json:"name"`
	// Mode selects project isolation: "db" or "schema". Defaults to "db".
	Mode string `json:"mode,omitempty"`
	// Description is optional free-form text.
	Description string `json:"description,omitempty"`
}

// Project is the canonical project record returned by the Managed DB API.
type Project struct {
	// ID is the project UUID assigned by the upstream service.
	ID string `json:"id"`
	// Name is the human-readable project name.
	Name string `json:"name"`
	// Slug is the URL-safe identifier derived from the name.
	Slug string `json:"slug"`
	// Mode is the isolation mode ("db" or "schema").
	Mode string `json:"mode"`
	// DBName is the backing PostgreSQL database name.
	DBName string `json:"db_name"`
	// SchemaName is set for schema-mode projects.
	SchemaName string `json:"schema_name,omitempty"`
	// ConnectionURI is the direct PostgreSQL connection string.
	ConnectionURI string `json:"connection_uri"`
	// RESTBaseURL is the PostgREST endpoint for the project.
	RESTBaseURL string `json:"rest_base_url"`
	// DocsURL points at the generated API documentation.
	DocsURL string `json:"docs_url"`
	// AnonKey is the anonymous-role API key, when disclosed.
	AnonKey string `json:"anon_key,omitempty"`
	// ServiceKey is the service-role API key, when disclosed.
	ServiceKey string `json:"service_key,omitempty"`
	// CreatedAt is the upstream creation timestamp (RFC 3339).
	CreatedAt string `json:"created_at"`
	// UpdatedAt is the last modification timestamp, when present.
	UpdatedAt string `json:"updated_at,omitempty"`
	// DeletedAt is set once the project has been soft deleted.
	DeletedAt string `json:"deleted_at,omitempty"`
}

// ListProjectsResponse is returned from GET /projects.
type ListProjectsResponse struct {
	// Projects holds every known project record.
	Projects []Project `json:"projects"`
}

// RotateKeysResponse is returned from POST /projects/{id}/rotate-keys.
type RotateKeysResponse struct {
	// ID is the project UUID whose credentials were rotated.
	ID string `json:"id"`
	// AnonKey is the freshly issued anonymous-role API key.
	AnonKey string `json:"anon_key"`
	// ServiceKey is the freshly issued service-role API key.
	ServiceKey string `json:"service_key"`
	// JWTSecret is the new signing secret backing both keys.
	JWTSecret string `json:"jwt_secret"`
	// RotatedAt is the rotation timestamp (RFC 3339).
	RotatedAt string `json:"rotated_at"`
}

// Column describes one table column in a CreateTableRequest.
type Column struct {
	// Name is the column name.
	Name string `json:"name"`
	// DataType is a PostgreSQL data type, for example "text" or "timestamptz".
	DataType string `json:"data_type"`
	// Nullable defaults to true upstream when omitted.
	Nullable *bool `json:"nullable,omitempty"`
	// Default is an optional default value expression.
	Default string `json:"default,omitempty"`
}

// Index describes one optional index in a CreateTableRequest.
type Index struct {
	// Name is the index name.
	Name string `json:"name"`
	// Columns lists the indexed column names in order.
	Columns []string `json:"columns"`
	// Unique requests a unique index.
	Unique bool `json:"unique,omitempty"`
}

// RLS policy commands accepted upstream.
const (
	PolicySelect = "SELECT"
	PolicyInsert = "INSERT"
	PolicyUpdate = "UPDATE"
	PolicyDelete = "DELETE"
	PolicyAll    = "ALL"
)

// RLSPolicy describes one optional row-level-security policy in a
// CreateTableRequest.
type RLSPolicy struct {
	// Name is the policy name.
	Name string `json:"name"`
	// Command is one of SELECT, INSERT, UPDATE, DELETE, or ALL.
	Command string `json:"command"`
	// Expression is a SQL expression returning boolean.
	Expression string `json:"expression"`
	// WithCheck is an optional WITH CHECK expression for INSERT/UPDATE.
	WithCheck string `json:"with_check,omitempty"`
}

// CreateTableRequest models the JSON payload for POST /projects/{id}/tables.
type CreateTableRequest struct {
	// Name is the table name.
	Name string `json:"name"`
	// Columns defines the table columns; at least one is required.
	Columns []Column `json:"columns"`
	// Indexes lists optional indexes.
	Indexes []Index `json:"indexes,omitempty"`
	// RLSPolicies lists optional row-level-security policies.
	RLSPolicies []RLSPolicy `json:"rls_policies,omitempty"`
}

// MigrationRequest models the JSON payload for POST /projects/{id}/migrations.
type MigrationRequest struct {
	// SQL holds the statements to execute.
	SQL string `json:"sql"`
	// StatementTimeoutMS bounds each statement; upstream defaults to 30000.
	StatementTimeoutMS int64 `json:"statement_timeout_ms,omitempty"`
}

// DefaultStatementTimeoutMS matches the upstream migration default.
const DefaultStatementTimeoutMS int64 = 30000

// DeleteProjectResponse reports the outcome of DELETE /projects/{id}.
type DeleteProjectResponse struct {
	// ID is the deleted project UUID.
	ID string `json:"id"`
	// Hard reports whether the database and PostgREST container were
	// permanently removed rather than soft deleted.
	Hard bool `json:"hard"`
	// Deleted confirms the upstream accepted the request.
	Deleted bool `json:"deleted"`
}

// BackupResponse is returned from POST /projects/{id}/backup.
type BackupResponse struct {
	// ArtifactPath locates the pg_dump artifact in upstream backup storage.
	ArtifactPath string `json:"artifact_path"`
	// SizeBytes is the artifact size, when reported.
	SizeBytes int64 `json:"size_bytes,omitempty"`
	// StartedAt is the backup start timestamp (RFC 3339).
	StartedAt string `json:"started_at"`
	// CompletedAt is empty while the backup is still running.
	CompletedAt string `json:"completed_at,omitempty"`
}

// RestoreRequest models the JSON payload for POST /projects/{id}/restore.
type RestoreRequest struct {
	// ArtifactPath locates the backup artifact to restore from.
	ArtifactPath string `json:"artifact_path"`
}

// HealthResponse is returned from GET /projects/{id}/health. The upstream
// contract guarantees a top-level status field plus sub-statuses for its own
// dependencies; Raw preserves the complete body so unknown fields survive the
// bridge unchanged.
type HealthResponse struct {
	// Status is the overall project health verdict.
	Status string `json:"status"`
	// Postgres is the database sub-status.
	Postgres string `json:"postgres,omitempty"`
	// PostgREST is the REST layer sub-status.
	PostgREST string `json:"postgrest,omitempty"`
	// Raw is the verbatim upstream body.
	Raw json.RawMessage `json:"-"`
}

// ErrorResponse is the canonical upstream error envelope.
type ErrorResponse struct {
	// Detail provides human-readable diagnostic context for the error.
	Detail string `json:"detail,omitempty"`
	// ErrorCode is an optional stable error identifier.
	ErrorCode string `json:"error,omitempty"`
}
