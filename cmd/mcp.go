package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rabahbelksier/Offers365/internal/aliexpress"
	mcpserver "github.com/Rabahbelksier/Offers365/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long:  "Expose resolve_product and extract_product_id as MCP tools over stdio.",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "Starting Offers365 MCP server on stdio...")

	defaults := aliexpress.Credentials{
		AppKey:     cfg.AppKey,
		AppSecret:  cfg.AppSecret,
		TrackingID: cfg.TrackingID,
	}
	return mcpserver.Serve(newPipeline(), defaults)
}
