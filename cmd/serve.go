package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rabahbelksier/Offers365/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Serve POST /api/product for resolving AliExpress URLs into affiliate link sets.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP port (default from $PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	port := cfg.HTTPPort
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}

	addr := fmt.Sprintf(":%s", port)
	return server.Serve(addr, cfg.APIKey, newPipeline())
}
