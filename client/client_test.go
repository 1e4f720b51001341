package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pkt.systems/dbmcp/api"
)

const testProjectID = "1b4e28ba-2fa1-11d2-883f-b9a761bde3fb"

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cli, err := New(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return cli, srv
}

func recordingHandler(status int, body string, record *recordedRequest, mu *sync.Mutex) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		record.Method = r.Method
		record.Path = r.URL.Path
		record.Query = r.URL.RawQuery
		record.Header = r.Header.Clone()
		record.Body = data
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestNewNormalizesBaseURL(t *testing.T) {
	t.Parallel()

	cli, err := New("http://localhost:8080/api/")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if got := cli.BaseURL(); got != "http://localhost:8080/api" {
		t.Fatalf("expected trailing slash stripped, got %q", got)
	}
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := New("ftp://managed-db"); err == nil {
		t.Fatalf("expected scheme rejection")
	}
	if _, err := New("://broken"); err == nil {
		t.Fatalf("expected parse rejection")
	}
}

func TestNewFallsBackToEnvBaseURL(t *testing.T) {
	t.Setenv("MANAGED_DB_API_URL", "http://db.internal:9090/api")

	cli, err := New("")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if got := cli.BaseURL(); got != "http://db.internal:9090/api" {
		t.Fatalf("expected env base URL, got %q", got)
	}
}

func TestCreateProjectPostsToProjects(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var rec recordedRequest
	cli, _ := newTestClient(t, recordingHandler(http.StatusOK, `{
		"id": "`+testProjectID+`",
		"name": "My Analytics DB",
		"slug": "my-analytics-db",
		"mode": "db",
		"anon_key": "anon.jwt",
		"service_key": "service.jwt"
	}`, &rec, &mu))

	project, err := cli.CreateProject(context.Background(), api.CreateProjectRequest{
		Name: "My Analytics DB",
		Mode: api.ModeDB,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if project.ID != testProjectID {
		t.Fatalf("expected project id, got %q", project.ID)
	}
	if project.AnonKey != "anon.jwt" || project.ServiceKey != "service.jwt" {
		t.Fatalf("keys not decoded: %+v", project)
	}

	mu.Lock()
	defer mu.Unlock()
	if rec.Method != http.MethodPost || rec.Path != "/api/projects" {
		t.Fatalf("expected POST /api/projects, got %s %s", rec.Method, rec.Path)
	}
	if ct := rec.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}
	if rec.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected correlation header on request")
	}
	var payload api.CreateProjectRequest
	if err := json.Unmarshal(rec.Body, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Name != "My Analytics DB" || payload.Mode != api.ModeDB {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestCreateProjectValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	called := false
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	if _, err := cli.CreateProject(context.Background(), api.CreateProjectRequest{}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := cli.CreateProject(context.Background(), api.CreateProjectRequest{Name: "x", Mode: "tenant"}); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
	if called {
		t.Fatalf("expected no upstream request")
	}
}

func TestDeleteProjectSendsHardQuery(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var rec recordedRequest
	cli, _ := newTestClient(t, recordingHandler(http.StatusOK, `{}`, &rec, &mu))

	resp, err := cli.DeleteProject(context.Background(), testProjectID, true)
	if err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if !resp.Deleted || !resp.Hard || resp.ID != testProjectID {
		t.Fatalf("unexpected delete response: %+v", resp)
	}

	mu.Lock()
	defer mu.Unlock()
	if rec.Method != http.MethodDelete || rec.Path != "/api/projects/"+testProjectID {
		t.Fatalf("expected DELETE project path, got %s %s", rec.Method, rec.Path)
	}
	if rec.Query != "hard=true" {
		t.Fatalf("expected hard=true query, got %q", rec.Query)
	}
}

func TestDeleteProjectSoftOmitsNothing(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var rec recordedRequest
	cli, _ := newTestClient(t, recordingHandler(http.StatusOK, `{}`, &rec, &mu))

	resp, err := cli.DeleteProject(context.Background(), testProjectID, false)
	if err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if resp.Hard {
		t.Fatalf("expected soft delete response, got %+v", resp)
	}

	mu.Lock()
	defer mu.Unlock()
	if rec.Query != "hard=false" {
		t.Fatalf("expected hard=false query, got %q", rec.Query)
	}
}

func TestRunMigrationDefaultsStatementTimeout(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var rec recordedRequest
	cli, _ := newTestClient(t, recordingHandler(http.StatusOK, `{"applied":true}`, &rec, &mu))

	raw, err := cli.RunMigration(context.Background(), testProjectID, api.MigrationRequest{
		SQL: "create table t (id uuid primary key);",
	})
	if err != nil {
		t.Fatalf("run migration: %v", err)
	}
	if !strings.Contains(string(raw), `"applied":true`) {
		t.Fatalf("expected raw passthrough, got %s", raw)
	}

	mu.Lock()
	defer mu.Unlock()
	var payload api.MigrationRequest
	if err := json.Unmarshal(rec.Body, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.StatementTimeoutMS != api.DefaultStatementTimeoutMS {
		t.Fatalf("expected default statement timeout %d, got %d", api.DefaultStatementTimeoutMS, payload.StatementTimeoutMS)
	}
}

func TestCreateTableValidatesShape(t *testing.T) {
	t.Parallel()

	called := false
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	tests := []api.CreateTableRequest{
		{},
		{Name: "events"},
		{Name: "events", Columns: []api.Column{{Name: "id"}}},
		{Name: "events", Columns: []api.Column{{Name: "id", DataType: "uuid"}}, Indexes: []api.Index{{Name: "idx"}}},
		{Name: "events", Columns: []api.Column{{Name: "id", DataType: "uuid"}}, RLSPolicies: []api.RLSPolicy{{Name: "p", Command: "TRUNCATE", Expression: "true"}}},
	}
	for i, req := range tests {
		if _, err := cli.CreateTable(context.Background(), testProjectID, req); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, req)
		}
	}
	if called {
		t.Fatalf("expected no upstream request")
	}
}

func TestProjectHealthPreservesRawBody(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var rec recordedRequest
	body := `{"status":"degraded","postgres":"ok","postgrest":"down","container":"restarting"}`
	cli, _ := newTestClient(t, recordingHandler(http.StatusOK, body, &rec, &mu))

	health, err := cli.ProjectHealth(context.Background(), testProjectID)
	if err != nil {
		t.Fatalf("project health: %v", err)
	}
	if health.Status != "degraded" || health.Postgres != "ok" || health.PostgREST != "down" {
		t.Fatalf("unexpected decoded health: %+v", health)
	}
	var raw map[string]any
	if err := json.Unmarshal(health.Raw, &raw); err != nil {
		t.Fatalf("decode raw body: %v", err)
	}
	if raw["container"] != "restarting" {
		t.Fatalf("raw body lost fields: %#v", raw)
	}
}

func TestUpstreamErrorDecodesDetailAndRetryAfter(t *testing.T) {
	t.Parallel()

	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail":"rate limited"}`))
	})

	_, err := cli.ListProjects(context.Background())
	if err == nil {
		t.Fatalf("expected upstream error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", apiErr.Status)
	}
	if apiErr.Response.Detail != "rate limited" {
		t.Fatalf("expected detail decoded, got %+v", apiErr.Response)
	}
	if apiErr.RetryAfterDuration() != 3*time.Second {
		t.Fatalf("expected retry after 3s, got %s", apiErr.RetryAfterDuration())
	}
	if !strings.Contains(apiErr.Error(), "rate limited") {
		t.Fatalf("expected detail in error string, got %q", apiErr.Error())
	}
}

func TestUpstreamErrorKeepsUnparseableBody(t *testing.T) {
	t.Parallel()

	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := cli.GetProject(context.Background(), testProjectID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", apiErr.Status)
	}
	if !strings.Contains(string(apiErr.Body), "bad gateway") {
		t.Fatalf("expected raw body preserved, got %q", apiErr.Body)
	}
}

func TestRequestTimeoutHonored(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	WithHTTPTimeout(50 * time.Millisecond)(cli)

	start := time.Now()
	_, err := cli.ListProjects(context.Background())
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout took too long: %s", elapsed)
	}
}

func TestParseRetryAfterHeader(t *testing.T) {
	t.Parallel()

	if got := parseRetryAfterHeader("2.5"); got != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s, got %s", got)
	}
	if got := parseRetryAfterHeader("-1"); got != 0 {
		t.Fatalf("expected 0 for negative, got %s", got)
	}
	if got := parseRetryAfterHeader(""); got != 0 {
		t.Fatalf("expected 0 for empty, got %s", got)
	}
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	if got := parseRetryAfterHeader(future); got < 80*time.Second || got > 91*time.Second {
		t.Fatalf("expected roughly 90s for http date, got %s", got)
	}
}

func TestProjectIDRequiredOnEveryProjectCall(t *testing.T) {
	t.Parallel()

	called := false
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	ctx := context.Background()
	if _, err := cli.GetProject(ctx, " "); err == nil {
		t.Fatalf("expected error for blank project id")
	}
	if _, err := cli.RotateProjectKeys(ctx, ""); err == nil {
		t.Fatalf("expected error for empty project id")
	}
	if _, err := cli.BackupProject(ctx, ""); err == nil {
		t.Fatalf("expected error for empty project id")
	}
	if _, err := cli.RestoreProject(ctx, "", api.RestoreRequest{ArtifactPath: "/x"}); err == nil {
		t.Fatalf("expected error for empty project id")
	}
	if called {
		t.Fatalf("expected no upstream request")
	}
}
