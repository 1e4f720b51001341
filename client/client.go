package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pkt.systems/pslog"

	"pkt.systems/dbmcp"
	"pkt.systems/dbmcp/api"
	"pkt.systems/dbmcp/internal/svcfields"
)

// DefaultHTTPTimeout bounds each outbound request unless overridden.
const DefaultHTTPTimeout = dbmcp.DefaultHTTPTimeout

const defaultUserAgent = "dbmcp-client"

// Client talks to one Managed DB API endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     pslog.Base
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient supplies a custom HTTP client/transport stack.
// Use this when you need custom TLS roots, proxies, or tracing round-trippers
// not covered by SDK defaults.
func WithHTTPClient(cli *http.Client) Option {
	return func(c *Client) {
		if cli != nil {
			c.httpClient = cli
		}
	}
}

// WithHTTPTimeout bounds each request. Zero or negative restores the default.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		} else {
			c.timeout = DefaultHTTPTimeout
		}
	}
}

// WithLogger supplies a logger for client diagnostics.
// Passing nil falls back to pslog.NoopLogger().
func WithLogger(logger pslog.Base) Option {
	return func(c *Client) {
		if logger == nil {
			c.logger = pslog.NoopLogger()
			return
		}
		if full, ok := logger.(pslog.Logger); ok {
			c.logger = svcfields.WithSubsystem(full, "client.sdk")
			return
		}
		c.logger = logger
	}
}

// WithUserAgent overrides the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// New constructs a client for the given base URL. An empty baseURL selects
// the MANAGED_DB_API_URL environment variable, then the documented default.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = dbmcp.APIBaseURLFromEnv()
	}
	normalized, err := dbmcp.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   normalized,
		timeout:   DefaultHTTPTimeout,
		userAgent: defaultUserAgent,
		logger:    pslog.NoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c, nil
}

// BaseURL reports the normalized upstream base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateProject provisions a new project. Name is required; Mode defaults to
// "db" upstream when omitted.
func (c *Client) CreateProject(ctx context.Context, req api.CreateProjectRequest) (*api.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("dbmcp: project name is required")
	}
	switch req.Mode {
	case "", api.ModeDB, api.ModeSchema:
	default:
		return nil, fmt.Errorf("dbmcp: invalid mode %q (expected db|schema)", req.Mode)
	}
	var project api.Project
	if err := c.postJSON(ctx, "/projects", req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects returns every project record known upstream.
func (c *Client) ListProjects(ctx context.Context) (*api.ListProjectsResponse, error) {
	var resp api.ListProjectsResponse
	if err := c.getJSON(ctx, "/projects", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProject fetches one project including connection details and API keys.
func (c *Client) GetProject(ctx context.Context, projectID string) (*api.Project, error) {
	projectID, err := requireProjectID(projectID)
	if err != nil {
		return nil, err
	}
	var project api.Project
	if err := c.getJSON(ctx, projectPath(projectID), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject soft deletes a project, or permanently removes its database
// and PostgREST container when hard is true.
func (c *Client) DeleteProject(ctx context.Context, projectID string, hard bool) (*api.DeleteProjectResponse, error) {
	projectID, err := requireProjectID(projectID)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("hard", strconv.FormatBool(hard))
	if err := c.delete(ctx, projectPath(projectID), query); err != nil {
		return nil, err
	}
	return &api.DeleteProjectResponse{ID: projectID, Hard: hard, Deleted: true}, nil
}

// RotateProjectKeys rotates the JWT secret and both API keys of a project.
func (c *Client) RotateProjectKeys(ctx context.Context, projectID string) (*api.RotateKeysResponse, error) {
	projectID, err := requireProjectID(projectID)
	if err != nil {
		return nil, err
	}
	var resp api.RotateKeysResponse
	if err := c.postJSON(ctx, projectPath(projectID)+"/rotate-keys", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTable creates a table with columns, optional indexes, and optional
// RLS policies. The upstream response body is returned verbatim.
func (c *Client) CreateTable(ctx context.Context, projectID string, req api.CreateTableRequest) (json.RawMessage, error) {
	projectID, err := requireProjectID(projectID)
	if err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("dbmcp: table name is required")
	}
	if len(req.Columns) == 0 {
		return nil, fmt.Errorf("dbmcp: at least one column is required")
	}
	for i, col := range req.Columns {
		if strings.TrimSpace(col.Name) == "" || strings.TrimSpace(col.DataType) == "" {
			return nil, fmt.Errorf("dbmcp: column %d requires name and data_type", i)
		}
	}
	for i, idx := range req.Indexes {
		if strings.TrimSpace(idx.Name) == "" || len(idx.Columns) == 0 {
			return nil, fmt.Errorf("dbmcp: index %d requires name and columns", i)
		}
	}
	for i, policy := range req.RLSPolicies {
		if err := validatePolicy(policy); err != nil {
			return nil, fmt.Errorf("dbmcp: rls policy %d: %w", i, err)
		}
	}
	return c.postJSONRaw(ctx, projectPath(projectID)+"/tables", req)
}

// RunMigration executes SQL against a project database. The upstream response
// body is returned verbatim.
func (c *Client) RunMigration(ctx context.Context, projectID string, req api.MigrationRequest) (json.RawMessage, error) {
	projectID, err := requireProjectID(projectID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.SQL) == "" {
		return nil, fmt.Errorf("dbmcp: sql is required")
	}
	if req.StatementTimeoutMS <= 0 {
		req.StatementTimeoutMS = api.DefaultStatementTimeoutMS
	}
	return c.postJSONRaw(ctx, projectPath(projectID)+"/migrations", req)
}

// BackupProject triggers a pg_dump backup of the project database.
func (c *Client) BackupProject(ctx context.Context, projectID string) (*api.BackupResponse, error) {
	projectID, err := requireProjectID(projectID)
	if err != nil {
		return nil, err
	}
	var resp api.BackupResponse
	if err := c.postJSON(ctx, projectPath(projectID)+"/backup", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RestoreProject restores a project database from a backup artifact. The
// upstream response body is returned verbatim.
func (c *Client) RestoreProject(ctx context.Context, projectID string, req api.RestoreRequest) (json.RawMessage, error) {
	projectID, err := requireProjectID(projectID)
	if err != nil {
		return nil, err
	}
	req.ArtifactPath = strings.TrimSpace(req.ArtifactPath)
	if req.ArtifactPath == "" {
		return nil, fmt.Errorf("dbmcp: artifact_path is required")
	}
	return c.postJSONRaw(ctx, projectPath(projectID)+"/restore", req)
}

// ProjectHealth checks health of a project database and its PostgREST API.
// The returned response preserves the verbatim body in Raw.
func (c *Client) ProjectHealth(ctx context.Context, projectID string) (*api.HealthResponse, error) {
	projectID, err := requireProjectID(projectID)
	if err != nil {
		return nil, err
	}
	body, err := c.getRaw(ctx, projectPath(projectID)+"/health", nil)
	if err != nil {
		return nil, err
	}
	var resp api.HealthResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("dbmcp: decode health response: %w", err)
		}
	}
	resp.Raw = body
	return &resp, nil
}

func validatePolicy(policy api.RLSPolicy) error {
	if strings.TrimSpace(policy.Name) == "" {
		return fmt.Errorf("name is required")
	}
	switch policy.Command {
	case api.PolicySelect, api.PolicyInsert, api.PolicyUpdate, api.PolicyDelete, api.PolicyAll:
	default:
		return fmt.Errorf("invalid command %q (expected SELECT|INSERT|UPDATE|DELETE|ALL)", policy.Command)
	}
	if strings.TrimSpace(policy.Expression) == "" {
		return fmt.Errorf("expression is required")
	}
	return nil
}

func requireProjectID(projectID string) (string, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return "", fmt.Errorf("dbmcp: project_id is required")
	}
	return projectID, nil
}

func projectPath(projectID string) string {
	return "/projects/" + url.PathEscape(projectID)
}

// APIError describes an error response from the Managed DB API.
type APIError struct {
	// Status is the HTTP status code returned by the server.
	Status int
	// Response is the decoded upstream error envelope, when available.
	Response api.ErrorResponse
	// Body contains the raw response body bytes for additional diagnostics.
	Body []byte
	// RetryAfter is the parsed retry delay hint from headers, when provided.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Response.Detail != "" {
		return fmt.Sprintf("dbmcp: upstream status %d: %s", e.Status, e.Response.Detail)
	}
	if e.Response.ErrorCode != "" {
		return fmt.Sprintf("dbmcp: upstream status %d (%s)", e.Status, e.Response.ErrorCode)
	}
	return fmt.Sprintf("dbmcp: upstream status %d", e.Status)
}

// RetryAfterDuration returns the recommended back-off hinted by the server.
func (e *APIError) RetryAfterDuration() time.Duration {
	if e == nil {
		return 0
	}
	return e.RetryAfter
}

func (c *Client) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if c.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.timeout)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	c.applyCorrelationHeader(ctx, req)
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	c.logTrace("client.http.request", "method", method, "path", path)
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}
	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := c.newRequest(reqCtx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logError("client.http.transport_error", "method", method, "path", path, "error", err)
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		c.logWarn("client.http.upstream_error", "method", method, "path", path, "status", resp.StatusCode)
		return nil, decodeErrorWithBody(resp, data)
	}
	c.logTrace("client.http.success", "method", method, "path", path, "status", resp.StatusCode)
	return data, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	data, err := c.do(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("dbmcp: decode response for %s: %w", path, err)
		}
	}
	return nil
}

func (c *Client) postJSONRaw(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("dbmcp: decode response for %s: %w", path, err)
		}
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (c *Client) delete(ctx context.Context, path string, query url.Values) error {
	_, err := c.do(ctx, http.MethodDelete, path, query, nil)
	return err
}

func decodeErrorWithBody(resp *http.Response, data []byte) error {
	var errResp api.ErrorResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &errResp); err != nil {
			// leave errResp empty, but keep body for diagnostics
			return &APIError{Status: resp.StatusCode, Body: data}
		}
	}
	return &APIError{
		Status:     resp.StatusCode,
		Response:   errResp,
		Body:       data,
		RetryAfter: parseRetryAfterHeader(resp.Header.Get("Retry-After")),
	}
}

func parseRetryAfterHeader(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds * float64(time.Second))
	}
	if ts, err := http.ParseTime(raw); err == nil {
		delay := time.Until(ts)
		if delay <= 0 {
			return 0
		}
		return delay
	}
	return 0
}

func (c *Client) logTrace(msg string, keyvals ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Trace(msg, keyvals...)
}

func (c *Client) logWarn(msg string, keyvals ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(msg, keyvals...)
}

func (c *Client) logError(msg string, keyvals ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Error(msg, keyvals...)
}
