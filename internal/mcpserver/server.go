// Package mcpserver exposes the movie tools to MCP clients over stdio.
package mcpserver

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/comigor/movieagent/internal/logger"
	"github.com/comigor/movieagent/pkg/tools"
)

const serverName = "movieagent"

// New builds an MCP server with every tool registered in manager.
func New(manager *tools.ToolManager, version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))
	for _, t := range manager.List() {
		s.AddTool(Definition(t), Handler(t))
		logger.L.Info("Registered tool for MCP clients", "tool", t.Name())
	}
	return s
}

// Definition converts a tool into its MCP schema.
func Definition(t tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description())}
	for _, p := range t.Params() {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		opts = append(opts, mcp.WithString(p.Name, propOpts...))
	}
	return mcp.NewTool(t.Name(), opts...)
}

// Handler adapts a tool to an MCP call handler. Tool failures are reported as
// error results rather than protocol errors.
func Handler(t tools.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError("could not encode arguments: " + err.Error()), nil
		}
		logger.L.Debug("MCP tool call", "tool", t.Name(), "arguments", string(args))

		out, err := t.Run(ctx, string(args))
		if err != nil {
			logger.L.Warn("MCP tool call failed", "tool", t.Name(), "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

// ServeStdio blocks serving s on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
