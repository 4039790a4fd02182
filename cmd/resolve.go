package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Rabahbelksier/Offers365/internal/aliexpress"
	"github.com/Rabahbelksier/Offers365/internal/models"
	"github.com/Rabahbelksier/Offers365/internal/ui"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [url...]",
	Short: "Resolve product URLs into metadata and affiliate links",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().String("app-key", "", "Affiliate API app key (default from $AE_APP_KEY)")
	resolveCmd.Flags().String("app-secret", "", "Affiliate API app secret (default from $AE_APP_SECRET)")
	resolveCmd.Flags().String("tracking-id", "", "Affiliate tracking id (default from $AE_TRACKING_ID)")
	resolveCmd.Flags().String("format", "json", "Output format: json, table")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	creds := credentialsFromFlags(cmd)
	pipe := newPipeline()

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Resolving %d link(s)...", len(args)))
	ctx := aliexpress.WithProgress(context.Background(), spin.Update)

	// Each pipeline run is sequential internally; only distinct URLs are
	// resolved concurrently.
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrent)

	responses := make([]*models.ProductResponse, len(args))
	for i, rawURL := range args {
		g.Go(func() error {
			resp, err := pipe.Run(ctx, rawURL, creds)
			if err != nil {
				return fmt.Errorf("%s: %w", rawURL, err)
			}
			responses[i] = resp
			return nil
		})
	}
	err := g.Wait()
	spin.Stop()
	if err != nil {
		return err
	}

	switch format {
	case "table":
		for i, resp := range responses {
			if i > 0 {
				fmt.Println()
			}
			printResponseTable(resp)
		}
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if len(responses) == 1 {
			return enc.Encode(responses[0])
		}
		return enc.Encode(responses)
	}

	return nil
}
