package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pkt.systems/dbmcp/api"
)

type projectToolOutput struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Mode          string `json:"mode"`
	DBName        string `json:"db_name"`
	SchemaName    string `json:"schema_name,omitempty"`
	ConnectionURI string `json:"connection_uri"`
	RESTBaseURL   string `json:"rest_base_url"`
	DocsURL       string `json:"docs_url"`
	AnonKey       string `json:"anon_key,omitempty"`
	ServiceKey    string `json:"service_key,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at,omitempty"`
	DeletedAt     string `json:"deleted_at,omitempty"`
}

func projectOutput(p api.Project) projectToolOutput {
	return projectToolOutput{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Mode:          p.Mode,
		DBName:        p.DBName,
		SchemaName:    p.SchemaName,
		ConnectionURI: p.ConnectionURI,
		RESTBaseURL:   p.RESTBaseURL,
		DocsURL:       p.DocsURL,
		AnonKey:       p.AnonKey,
		ServiceKey:    p.ServiceKey,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		DeletedAt:     p.DeletedAt,
	}
}

func requireToolProjectID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", fmt.Errorf("project_id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("project_id must be a UUID")
	}
	return id, nil
}

type createProjectToolInput struct {
	Name        string `json:"name" jsonschema:"Human-readable project name, for example 'My Analytics DB'"`
	Mode        string `json:"mode,omitempty" jsonschema:"Isolation mode: db creates a separate database, schema creates a schema in a shared database (default db)"`
	Description string `json:"description,omitempty" jsonschema:"Optional project description"`
}

func (s *server) handleCreateProjectTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input createProjectToolInput) (*mcpsdk.CallToolResult, projectToolOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, projectToolOutput{}, fmt.Errorf("name is required")
	}
	mode := strings.TrimSpace(input.Mode)
	if mode == "" {
		mode = api.ModeDB
	}
	project, err := s.upstream.CreateProject(ctx, api.CreateProjectRequest{
		Name:        name,
		Mode:        mode,
		Description: strings.TrimSpace(input.Description),
	})
	if err != nil {
		return nil, projectToolOutput{}, err
	}
	s.toolLog.Info("project.created", "project_id", project.ID, "slug", project.Slug, "mode", project.Mode)
	return nil, projectOutput(*project), nil
}

type listProjectsToolInput struct{}

type listProjectsToolOutput struct {
	Count    int                 `json:"count"`
	Projects []projectToolOutput `json:"projects"`
}

func (s *server) handleListProjectsTool(ctx context.Context, _ *mcpsdk.CallToolRequest, _ listProjectsToolInput) (*mcpsdk.CallToolResult, listProjectsToolOutput, error) {
	resp, err := s.upstream.ListProjects(ctx)
	if err != nil {
		return nil, listProjectsToolOutput{}, err
	}
	out := listProjectsToolOutput{
		Count:    len(resp.Projects),
		Projects: make([]projectToolOutput, 0, len(resp.Projects)),
	}
	for _, p := range resp.Projects {
		out.Projects = append(out.Projects, projectOutput(p))
	}
	return nil, out, nil
}

type getProjectToolInput struct {
	ProjectID string `json:"project_id" jsonschema:"UUID of the project"`
}

func (s *server) handleGetProjectTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input getProjectToolInput) (*mcpsdk.CallToolResult, projectToolOutput, error) {
	projectID, err := requireToolProjectID(input.ProjectID)
	if err != nil {
		return nil, projectToolOutput{}, err
	}
	project, err := s.upstream.GetProject(ctx, projectID)
	if err != nil {
		return nil, projectToolOutput{}, err
	}
	return nil, projectOutput(*project), nil
}

type deleteProjectToolInput struct {
	ProjectID string `json:"project_id" jsonschema:"UUID of the project to delete"`
	Hard      bool   `json:"hard,omitempty" jsonschema:"If true, permanently deletes the database and PostgREST container; otherwise the project is marked deleted but data is kept"`
}

type deleteProjectToolOutput struct {
	ProjectID string `json:"project_id"`
	Hard      bool   `json:"hard"`
	Deleted   bool   `json:"deleted"`
}

func (s *server) handleDeleteProjectTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input deleteProjectToolInput) (*mcpsdk.CallToolResult, deleteProjectToolOutput, error) {
	projectID, err := requireToolProjectID(input.ProjectID)
	if err != nil {
		return nil, deleteProjectToolOutput{}, err
	}
	resp, err := s.upstream.DeleteProject(ctx, projectID, input.Hard)
	if err != nil {
		return nil, deleteProjectToolOutput{}, err
	}
	s.toolLog.Info("project.deleted", "project_id", projectID, "hard", input.Hard)
	return nil, deleteProjectToolOutput{
		ProjectID: resp.ID,
		Hard:      resp.Hard,
		Deleted:   resp.Deleted,
	}, nil
}

type rotateProjectKeysToolInput struct {
	ProjectID string `json:"project_id" jsonschema:"UUID of the project"`
}

type rotateProjectKeysToolOutput struct {
	ProjectID  string `json:"project_id"`
	AnonKey    string `json:"anon_key"`
	ServiceKey string `json:"service_key"`
	JWTSecret  string `json:"jwt_secret"`
	RotatedAt  string `json:"rotated_at"`
}

func (s *server) handleRotateProjectKeysTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input rotateProjectKeysToolInput) (*mcpsdk.CallToolResult, rotateProjectKeysToolOutput, error) {
	projectID, err := requireToolProjectID(input.ProjectID)
	if err != nil {
		return nil, rotateProjectKeysToolOutput{}, err
	}
	resp, err := s.upstream.RotateProjectKeys(ctx, projectID)
	if err != nil {
		return nil, rotateProjectKeysToolOutput{}, err
	}
	s.toolLog.Info("project.keys_rotated", "project_id", projectID)
	return nil, rotateProjectKeysToolOutput{
		ProjectID:  resp.ID,
		AnonKey:    resp.AnonKey,
		ServiceKey: resp.ServiceKey,
		JWTSecret:  resp.JWTSecret,
		RotatedAt:  resp.RotatedAt,
	}, nil
}

type getProjectHealthToolInput struct {
	ProjectID string `json:"project_id" jsonschema:"UUID of the project"`
}

type getProjectHealthToolOutput struct {
	ProjectID string          `json:"project_id"`
	Status    string          `json:"status"`
	Postgres  string          `json:"postgres,omitempty"`
	PostgREST string          `json:"postgrest,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

func (s *server) handleGetProjectHealthTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input getProjectHealthToolInput) (*mcpsdk.CallToolResult, getProjectHealthToolOutput, error) {
	projectID, err := requireToolProjectID(input.ProjectID)
	if err != nil {
		return nil, getProjectHealthToolOutput{}, err
	}
	health, err := s.upstream.ProjectHealth(ctx, projectID)
	if err != nil {
		return nil, getProjectHealthToolOutput{}, err
	}
	out := getProjectHealthToolOutput{
		ProjectID: projectID,
		Status:    health.Status,
		Postgres:  health.Postgres,
		PostgREST: health.PostgREST,
	}
	if len(health.Raw) > 0 {
		out.Details = json.RawMessage(append([]byte(nil), health.Raw...))
	}
	return nil, out, nil
}
