package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/Rabahbelksier/Offers365/internal/aliexpress"
)

// Serve starts the MCP stdio server with the pipeline tools registered.
// defaults supplies credentials for callers that do not pass their own.
func Serve(pipe *aliexpress.Pipeline, defaults aliexpress.Credentials) error {
	s := server.NewMCPServer(
		"offers365",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	registerTools(s, pipe, defaults)

	return server.ServeStdio(s)
}
