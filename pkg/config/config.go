package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from yaml strings like
// "12h" or "2.5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ScraperConfig holds headless-browser settings for the page fetcher.
type ScraperConfig struct {
	Headless    bool     `yaml:"headless"`
	NavTimeout  Duration `yaml:"nav_timeout"`
	LoadTimeout Duration `yaml:"load_timeout"`
}

// MarketplaceConfig holds settings for the crawl target.
type MarketplaceConfig struct {
	BaseURL string `yaml:"base_url"`
}

// MonitorConfig paces the monitoring cycle and the crawl itself.
type MonitorConfig struct {
	Interval       Duration `yaml:"interval"`         // periodic cycle interval
	TriggerDelay   Duration `yaml:"trigger_delay"`    // debounce for on-change runs
	ItemSpacing    Duration `yaml:"item_spacing"`     // minimum gap between webhook sends
	SellerPause    Duration `yaml:"seller_pause"`     // pause between sellers
	SoldWindowDays int      `yaml:"sold_window_days"` // recency window for sales
	MaxPages       int      `yaml:"max_pages"`        // hard cap on sales pagination
	CrawlAttempts  int      `yaml:"crawl_attempts"`
	CrawlRetryWait Duration `yaml:"crawl_retry_wait"`
}

// WebhookConfig holds one destination URL per monitor kind. The URLs
// are secrets, so the environment overlay below takes precedence over
// whatever is in the yaml file.
type WebhookConfig struct {
	Listings string `yaml:"listings" envconfig:"WEBHOOK_LISTINGS"`
	Sales    string `yaml:"sales" envconfig:"WEBHOOK_SALES"`
}

// ServerConfig holds the admin API listen address.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the complete structure of the config.yml file.
type Config struct {
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Scraper     ScraperConfig     `yaml:"scraper"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Webhooks    WebhookConfig     `yaml:"webhooks"`
	Server      ServerConfig      `yaml:"server"`
	Database    struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
}

// LoadConfig reads config.yml, fills in defaults, and overlays webhook
// secrets from the environment (a .env file is honored if present).
func LoadConfig(filepath string) *Config {
	data, err := os.ReadFile(filepath)
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Error unmarshalling config YAML: %v", err)
	}

	_ = godotenv.Load()
	if err := envconfig.Process("", &cfg.Webhooks); err != nil {
		log.Fatalf("Error reading webhook environment overrides: %v", err)
	}

	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Scraper.NavTimeout <= 0 {
		c.Scraper.NavTimeout = Duration(40 * time.Second)
	}
	if c.Scraper.LoadTimeout <= 0 {
		c.Scraper.LoadTimeout = Duration(15 * time.Second)
	}
	if c.Monitor.Interval <= 0 {
		c.Monitor.Interval = Duration(12 * time.Hour)
	}
	if c.Monitor.TriggerDelay <= 0 {
		c.Monitor.TriggerDelay = Duration(2 * time.Second)
	}
	if c.Monitor.ItemSpacing <= 0 {
		c.Monitor.ItemSpacing = Duration(2500 * time.Millisecond)
	}
	if c.Monitor.SellerPause <= 0 {
		c.Monitor.SellerPause = Duration(5 * time.Second)
	}
	if c.Monitor.SoldWindowDays <= 0 {
		c.Monitor.SoldWindowDays = 2
	}
	if c.Monitor.MaxPages <= 0 {
		c.Monitor.MaxPages = 10
	}
	if c.Monitor.CrawlAttempts <= 0 {
		c.Monitor.CrawlAttempts = 3
	}
	if c.Monitor.CrawlRetryWait <= 0 {
		c.Monitor.CrawlRetryWait = Duration(5 * time.Second)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "sellers.db"
	}
}
