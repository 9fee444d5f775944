package main

import (
	"github.com/spf13/cobra"

	"github.com/comigor/movieagent/internal/mcpserver"
)

func newMCPCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the movie tools to MCP clients over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := ctx.build()
			if err != nil {
				return err
			}
			defer comps.store.Close()
			return mcpserver.ServeStdio(mcpserver.New(comps.toolManager(), version))
		},
	}
}
