package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pkt.systems/pslog"

	"pkt.systems/dbmcp/api"
)

func newProjectCommand(baseLogger pslog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage Managed DB projects",
	}
	cmd.AddCommand(
		newProjectCreateCommand(baseLogger),
		newProjectListCommand(baseLogger),
		newProjectGetCommand(baseLogger),
		newProjectDeleteCommand(baseLogger),
		newProjectRotateKeysCommand(baseLogger),
		newProjectHealthCommand(baseLogger),
	)
	return cmd
}

func newProjectCreateCommand(baseLogger pslog.Logger) *cobra.Command {
	var mode string
	var description string
	cmd := &cobra.Command{
		Use:           "create NAME",
		Short:         "Create a new project",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := newUpstreamCLIClient(baseLogger)
			if err != nil {
				return err
			}
			project, err := cli.CreateProject(commandContextWithCorrelation(cmd), api.CreateProjectRequest{
				Name:        args[0],
				Mode:        mode,
				Description: description,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), project)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", api.ModeDB, "isolation mode (db or schema)")
	cmd.Flags().StringVar(&description, "description", "", "optional project description")
	return cmd
}

func newProjectListCommand(baseLogger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all projects",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := newUpstreamCLIClient(baseLogger)
			if err != nil {
				return err
			}
			resp, err := cli.ListProjects(commandContextWithCorrelation(cmd))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newProjectGetCommand(baseLogger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:           "get PROJECT_ID",
		Short:         "Show project details including connection info and keys",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := newUpstreamCLIClient(baseLogger)
			if err != nil {
				return err
			}
			project, err := cli.GetProject(commandContextWithCorrelation(cmd), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), project)
		},
	}
}

func newProjectDeleteCommand(baseLogger pslog.Logger) *cobra.Command {
	var hard bool
	cmd := &cobra.Command{
		Use:           "delete PROJECT_ID",
		Short:         "Delete a project (soft delete unless --hard)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := newUpstreamCLIClient(baseLogger)
			if err != nil {
				return err
			}
			resp, err := cli.DeleteProject(commandContextWithCorrelation(cmd), args[0], hard)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().BoolVar(&hard, "hard", false, "permanently remove the database and PostgREST container")
	return cmd
}

func newProjectRotateKeysCommand(baseLogger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:           "rotate-keys PROJECT_ID",
		Short:         "Rotate the project's JWT secret and API keys",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := newUpstreamCLIClient(baseLogger)
			if err != nil {
				return err
			}
			resp, err := cli.RotateProjectKeys(commandContextWithCorrelation(cmd), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newProjectHealthCommand(baseLogger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:           "health PROJECT_ID",
		Short:         "Check health of the project's database and PostgREST API",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := newUpstreamCLIClient(baseLogger)
			if err != nil {
				return err
			}
			health, err := cli.ProjectHealth(commandContextWithCorrelation(cmd), args[0])
			if err != nil {
				return err
			}
			if len(health.Raw) > 0 {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", health.Raw)
				return err
			}
			return writeJSON(cmd.OutOrStdout(), health)
		},
	}
}

func newTableCommand(baseLogger pslog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage tables in a project database",
	}
	cmd.AddCommand(newTableCreateCommand(baseLogger))
	return cmd
}

func newTableCreateCommand(baseLogger pslog.Logger) *cobra.Command {
	var specPath string
	cmd := &cobra.Command{
		Use:   "create PROJECT_ID",
		Short: "Create a table from a JSON definition",
		Example: `  # Definition file: {"name":"events","columns":[{"name":"id","data_type":"uuid"}]}
  dbmcp table create 1b4e28ba-2fa1-11d2-883f-b9a761bde3fb --definition events.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readTableDefinition(specPath)
			if err != nil {
				return err
			}
			cli, err := newUpstreamCLIClient(baseLogger)
			if err != nil {
				return err
			}
			raw, err := cli.CreateTable(commandContextWithCorrelation(cmd), args[0], req)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", raw)
			return err
		},
	}
	cmd.Flags().StringVarP(&specPath, "definition", "d", "-", "path to JSON table definition ('-' reads stdin)")
	return cmd
}

func readTableDefinition(path string) (api.CreateTableRequest, error) {
	data, err := readInput(path)
	if err != nil {
		return api.CreateTableRequest{}, err
	}
	var req api.CreateTableRequest
	if err := unmarshalStrictJSON(data, &req); err != nil {
		return api.CreateTableRequest{}, fmt.Errorf("parse table definition: %w", err)
	}
	return req, nil
}

func newMigrateCommand(baseLogger pslog.Logger) *cobra.Command {
	var sqlPath string
	var statementTimeoutMS int64
	cmd := &cobra.Command{
		Use:   "migrate PROJECT_ID [SQL]",
		Short: "Execute SQL against a project database",
		Example: `  dbmcp migrate 1b4e28ba-2fa1-11d2-883f-b9a761bde3fb "create index on events (id);"
  cat migration.sql | dbmcp migrate 1b4e28ba-2fa1-11d2-883f-b9a761bde3fb --file -`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var sql string
			switch {
			case len(args) == 2:
				sql = args[1]
			case sqlPath != "":
				data, err := readInput(sqlPath)
				if err != nil {
					return err
				}
				sql = string(data)
			default:
				return fmt.Errorf("sql required (pass as argument or via --file)")
			}
			cli, err := newUpstreamCLIClient(baseLogger)
			if err != nil {
				return err
			}
			raw, err := cli.RunMigration(commandContextWithCorrelation(cmd), args[0], api.MigrationRequest{
				SQL:                sql,
				StatementTimeoutMS: statementTimeoutMS,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", raw)
			return err
		},
	}
	cmd.Flags().StringVarP(&sqlPath, "file", "f", "", "path to SQL file ('-' reads stdin)")
	cmd.Flags().Int64Var(&statementTimeoutMS, "statement-timeout-ms", api.DefaultStatementTimeoutMS, "per-statement timeout in milliseconds")
	return cmd
}

func newBackupCommand(baseLogger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:           "backup PROJECT_ID",
		Short:         "Create a pg_dump backup of a project database",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := newUpstreamCLIClient(baseLogger)
			if err != nil {
				return err
			}
			resp, err := cli.BackupProject(commandContextWithCorrelation(cmd), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := writeJSON(out, resp); err != nil {
				return err
			}
			if resp.SizeBytes > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "backup size: %s\n", humanize.IBytes(uint64(resp.SizeBytes)))
			}
			return nil
		},
	}
}

func newRestoreCommand(baseLogger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:           "restore PROJECT_ID ARTIFACT_PATH",
		Short:         "Restore a project database from a backup artifact",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := newUpstreamCLIClient(baseLogger)
			if err != nil {
				return err
			}
			raw, err := cli.RestoreProject(commandContextWithCorrelation(cmd), args[0], api.RestoreRequest{
				ArtifactPath: args[1],
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", raw)
			return err
		},
	}
}

func unmarshalStrictJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("input path required")
	}
	return os.ReadFile(path)
}
