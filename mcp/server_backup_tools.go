package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pkt.systems/dbmcp/api"
)

type backupProjectToolInput struct {
	ProjectID string `json:"project_id" jsonschema:"UUID of the project to back up"`
}

type backupProjectToolOutput struct {
	ProjectID    string `json:"project_id"`
	ArtifactPath string `json:"artifact_path"`
	SizeBytes    int64  `json:"size_bytes,omitempty"`
	Size         string `json:"size,omitempty"`
	StartedAt    string `json:"started_at"`
	CompletedAt  string `json:"completed_at,omitempty"`
}

func (s *server) handleBackupProjectTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input backupProjectToolInput) (*mcpsdk.CallToolResult, backupProjectToolOutput, error) {
	projectID, err := requireToolProjectID(input.ProjectID)
	if err != nil {
		return nil, backupProjectToolOutput{}, err
	}
	resp, err := s.upstream.BackupProject(ctx, projectID)
	if err != nil {
		return nil, backupProjectToolOutput{}, err
	}
	out := backupProjectToolOutput{
		ProjectID:    projectID,
		ArtifactPath: resp.ArtifactPath,
		SizeBytes:    resp.SizeBytes,
		StartedAt:    resp.StartedAt,
		CompletedAt:  resp.CompletedAt,
	}
	if resp.SizeBytes > 0 {
		out.Size = humanize.IBytes(uint64(resp.SizeBytes))
	}
	s.toolLog.Info("backup.created", "project_id", projectID, "artifact_path", resp.ArtifactPath)
	return nil, out, nil
}

type restoreProjectToolInput struct {
	ProjectID    string `json:"project_id" jsonschema:"UUID of the project to restore"`
	ArtifactPath string `json:"artifact_path" jsonschema:"Path to the backup artifact file"`
}

type restoreProjectToolOutput struct {
	ProjectID    string          `json:"project_id"`
	ArtifactPath string          `json:"artifact_path"`
	Result       json.RawMessage `json:"result,omitempty"`
}

func (s *server) handleRestoreProjectTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input restoreProjectToolInput) (*mcpsdk.CallToolResult, restoreProjectToolOutput, error) {
	projectID, err := requireToolProjectID(input.ProjectID)
	if err != nil {
		return nil, restoreProjectToolOutput{}, err
	}
	artifactPath := strings.TrimSpace(input.ArtifactPath)
	if artifactPath == "" {
		return nil, restoreProjectToolOutput{}, fmt.Errorf("artifact_path is required")
	}
	result, err := s.upstream.RestoreProject(ctx, projectID, api.RestoreRequest{ArtifactPath: artifactPath})
	if err != nil {
		return nil, restoreProjectToolOutput{}, err
	}
	s.toolLog.Info("restore.initiated", "project_id", projectID, "artifact_path", artifactPath)
	return nil, restoreProjectToolOutput{
		ProjectID:    projectID,
		ArtifactPath: artifactPath,
		Result:       result,
	}, nil
}
