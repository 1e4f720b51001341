package main

import (
	"context"

	"github.com/spf13/cobra"

	"pkt.systems/dbmcp/mcp"
)

func newToolsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "tools-list",
		Short:         "Print the MCP tools/list registry as JSON",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out, err := mcp.BuildToolsListResponseJSON(ctx, mcpConfigFromViper())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
