package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pkt.systems/dbmcp/api"
)

type tableColumnInput struct {
	Name     string `json:"name" jsonschema:"Column name"`
	DataType string `json:"data_type" jsonschema:"PostgreSQL data type, for example text, integer, timestamptz"`
	Nullable *bool  `json:"nullable,omitempty" jsonschema:"Whether the column accepts NULL (default true)"`
	Default  string `json:"default,omitempty" jsonschema:"Default value expression"`
}

type tableIndexInput struct {
	Name    string   `json:"name" jsonschema:"Index name"`
	Columns []string `json:"columns" jsonschema:"Indexed column names in order"`
	Unique  bool     `json:"unique,omitempty" jsonschema:"Create a unique index"`
}

type rlsPolicyInput struct {
	Name       string `json:"name" jsonschema:"Policy name"`
	Command    string `json:"command" jsonschema:"One of SELECT, INSERT, UPDATE, DELETE, ALL"`
	Expression string `json:"expression" jsonschema:"SQL expression that returns boolean"`
	WithCheck  string `json:"with_check,omitempty" jsonschema:"Optional WITH CHECK expression for INSERT/UPDATE"`
}

type createTableToolInput struct {
	ProjectID   string             `json:"project_id" jsonschema:"UUID of the project"`
	Name        string             `json:"name" jsonschema:"Table name"`
	Columns     []tableColumnInput `json:"columns" jsonschema:"Table columns; at least one is required"`
	Indexes     []tableIndexInput  `json:"indexes,omitempty" jsonschema:"Optional indexes"`
	RLSPolicies []rlsPolicyInput   `json:"rls_policies,omitempty" jsonschema:"Optional row-level-security policies"`
}

type createTableToolOutput struct {
	ProjectID string          `json:"project_id"`
	Table     string          `json:"table"`
	Result    json.RawMessage `json:"result,omitempty"`
}

func (s *server) handleCreateTableTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input createTableToolInput) (*mcpsdk.CallToolResult, createTableToolOutput, error) {
	projectID, err := requireToolProjectID(input.ProjectID)
	if err != nil {
		return nil, createTableToolOutput{}, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, createTableToolOutput{}, fmt.Errorf("name is required")
	}
	if len(input.Columns) == 0 {
		return nil, createTableToolOutput{}, fmt.Errorf("at least one column is required")
	}
	req := api.CreateTableRequest{Name: name}
	for i, col := range input.Columns {
		if strings.TrimSpace(col.Name) == "" || strings.TrimSpace(col.DataType) == "" {
			return nil, createTableToolOutput{}, fmt.Errorf("column %d requires name and data_type", i)
		}
		req.Columns = append(req.Columns, api.Column{
			Name:     strings.TrimSpace(col.Name),
			DataType: strings.TrimSpace(col.DataType),
			Nullable: col.Nullable,
			Default:  col.Default,
		})
	}
	for i, idx := range input.Indexes {
		if strings.TrimSpace(idx.Name) == "" || len(idx.Columns) == 0 {
			return nil, createTableToolOutput{}, fmt.Errorf("index %d requires name and columns", i)
		}
		req.Indexes = append(req.Indexes, api.Index{
			Name:    strings.TrimSpace(idx.Name),
			Columns: idx.Columns,
			Unique:  idx.Unique,
		})
	}
	for i, policy := range input.RLSPolicies {
		command := strings.ToUpper(strings.TrimSpace(policy.Command))
		switch command {
		case api.PolicySelect, api.PolicyInsert, api.PolicyUpdate, api.PolicyDelete, api.PolicyAll:
		default:
			return nil, createTableToolOutput{}, fmt.Errorf("rls policy %d has invalid command %q (expected SELECT|INSERT|UPDATE|DELETE|ALL)", i, policy.Command)
		}
		if strings.TrimSpace(policy.Name) == "" || strings.TrimSpace(policy.Expression) == "" {
			return nil, createTableToolOutput{}, fmt.Errorf("rls policy %d requires name and expression", i)
		}
		req.RLSPolicies = append(req.RLSPolicies, api.RLSPolicy{
			Name:       strings.TrimSpace(policy.Name),
			Command:    command,
			Expression: policy.Expression,
			WithCheck:  policy.WithCheck,
		})
	}
	result, err := s.upstream.CreateTable(ctx, projectID, req)
	if err != nil {
		return nil, createTableToolOutput{}, err
	}
	s.toolLog.Info("table.created", "project_id", projectID, "table", name)
	return nil, createTableToolOutput{
		ProjectID: projectID,
		Table:     name,
		Result:    result,
	}, nil
}

type runMigrationToolInput struct {
	ProjectID          string `json:"project_id" jsonschema:"UUID of the project"`
	SQL                string `json:"sql" jsonschema:"SQL statements to execute"`
	StatementTimeoutMS int64  `json:"statement_timeout_ms,omitempty" jsonschema:"Statement timeout in milliseconds (default 30000)"`
}

type runMigrationToolOutput struct {
	ProjectID string          `json:"project_id"`
	Result    json.RawMessage `json:"result,omitempty"`
}

func (s *server) handleRunMigrationTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input runMigrationToolInput) (*mcpsdk.CallToolResult, runMigrationToolOutput, error) {
	projectID, err := requireToolProjectID(input.ProjectID)
	if err != nil {
		return nil, runMigrationToolOutput{}, err
	}
	if strings.TrimSpace(input.SQL) == "" {
		return nil, runMigrationToolOutput{}, fmt.Errorf("sql is required")
	}
	result, err := s.upstream.RunMigration(ctx, projectID, api.MigrationRequest{
		SQL:                input.SQL,
		StatementTimeoutMS: input.StatementTimeoutMS,
	})
	if err != nil {
		return nil, runMigrationToolOutput{}, err
	}
	s.toolLog.Info("migration.executed", "project_id", projectID, "sql_bytes", len(input.SQL))
	return nil, runMigrationToolOutput{
		ProjectID: projectID,
		Result:    result,
	}, nil
}
