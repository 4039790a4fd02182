package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. API credentials configured
// here are only CLI/server defaults; credentials carried on a request
// always win, keeping the pipeline itself stateless.
type Config struct {
	// Affiliate API credential defaults
	AppKey     string
	AppSecret  string
	TrackingID string

	// Scrape behavior
	DelayProfile  string // "cautious", "normal", "aggressive"
	RespectRobots bool
	Headless      bool // enable the headless-browser scrape fallback

	// Rate limiting for page fetches
	RatePerSecond float64
	RateBurst     int

	// CLI batch resolution
	MaxConcurrent int

	// HTTP server
	HTTPPort string
	APIKey   string

	// Endpoint overrides (tests, staging gateways)
	APIEndpoint string
	PageBase    string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DelayProfile:  "normal",
		RespectRobots: true,
		RatePerSecond: 2.0,
		RateBurst:     3,
		MaxConcurrent: 3,
		HTTPPort:      "8080",
	}
}

// LoadFromEnv loads .env (if present) then overrides config from
// environment variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	if v := os.Getenv("AE_APP_KEY"); v != "" {
		c.AppKey = v
	}
	if v := os.Getenv("AE_APP_SECRET"); v != "" {
		c.AppSecret = v
	}
	if v := os.Getenv("AE_TRACKING_ID"); v != "" {
		c.TrackingID = v
	}
	if v := os.Getenv("OFFERS365_DELAY_PROFILE"); v != "" {
		c.DelayProfile = v
	}
	if v := os.Getenv("OFFERS365_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv("OFFERS365_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateBurst = n
		}
	}
	if v := os.Getenv("OFFERS365_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrent = n
		}
	}
	if v := os.Getenv("OFFERS365_RESPECT_ROBOTS"); v == "false" {
		c.RespectRobots = false
	}
	if v := os.Getenv("OFFERS365_HEADLESS"); v == "true" {
		c.Headless = true
	}
	if v := os.Getenv("OFFERS365_API_ENDPOINT"); v != "" {
		c.APIEndpoint = v
	}
	if v := os.Getenv("OFFERS365_PAGE_BASE"); v != "" {
		c.PageBase = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.HTTPPort = v
	}
	if v := os.Getenv("OFFERS365_API_KEY"); v != "" {
		c.APIKey = v
	}
}
