package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/Rabahbelksier/Offers365/config"
	"github.com/Rabahbelksier/Offers365/internal/aliexpress"
	"github.com/Rabahbelksier/Offers365/internal/httputil"
	"github.com/Rabahbelksier/Offers365/internal/stealth"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "offers365",
	Short: "Offers365 - AliExpress affiliate link generator",
	Long:  "Resolve AliExpress product URLs and generate affiliate tracking links, as a CLI, REST API or MCP server.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("delay-profile", "normal", "Scrape delay profile: cautious, normal, aggressive")
	rootCmd.PersistentFlags().Bool("respect-robots", true, "Respect robots.txt rules when scraping")
	rootCmd.PersistentFlags().Bool("headless", false, "Enable headless-browser scrape fallback")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("delay-profile"); v != "" {
		cfg.DelayProfile = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("respect-robots"); !v {
		cfg.RespectRobots = false
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("headless"); v {
		cfg.Headless = true
	}
}

// buildScrapeClient creates the stealth-wrapped HTTP client used for page
// fetches and redirect resolution.
func buildScrapeClient() *http.Client {
	baseTransport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}

	robots := stealth.NewRobotsChecker(&http.Client{}, cfg.RespectRobots)

	transport := &stealth.Transport{
		Base:        baseTransport,
		Robots:      robots,
		Fingerprint: stealth.NewFingerprintPool(),
		Delay:       stealth.NewHumanDelay(stealth.DelayProfile(cfg.DelayProfile)),
		RateLimiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
	}

	return &http.Client{Transport: transport}
}

// newPipeline wires the full resolution pipeline from config.
func newPipeline() *aliexpress.Pipeline {
	return aliexpress.NewPipeline(aliexpress.PipelineOptions{
		APIClient:    httputil.NewHTTPClient(nil),
		ScrapeClient: buildScrapeClient(),
		APIEndpoint:  cfg.APIEndpoint,
		PageBase:     cfg.PageBase,
		Headless:     cfg.Headless,
	})
}

// credentialsFromFlags merges per-command credential flags over config
// defaults.
func credentialsFromFlags(cmd *cobra.Command) aliexpress.Credentials {
	creds := aliexpress.Credentials{
		AppKey:     cfg.AppKey,
		AppSecret:  cfg.AppSecret,
		TrackingID: cfg.TrackingID,
	}
	if v, _ := cmd.Flags().GetString("app-key"); v != "" {
		creds.AppKey = v
	}
	if v, _ := cmd.Flags().GetString("app-secret"); v != "" {
		creds.AppSecret = v
	}
	if v, _ := cmd.Flags().GetString("tracking-id"); v != "" {
		creds.TrackingID = v
	}
	return creds
}
