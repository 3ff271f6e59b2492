package config

import (
	"time"

	crerr "github.com/cockroachdb/errors"
)

// Config holds runtime settings for the profilesync CLI.
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	LaunchURL           string
	OnlineCheckInterval time.Duration
	LogLevel            string
	LogFormat           string

	SeedItemID        string
	SplashMinDuration time.Duration
	DeferredStart     time.Duration
	SafetyTimeout     time.Duration
	SignOutTimeout    time.Duration
	RequestTimeout    time.Duration

	LoaderTimeout     time.Duration
	LoaderMaxRetries  int
	LoaderBackoffBase time.Duration
	LoaderWorkers     int

	BreakerFailureThreshold int
	BreakerOpenTimeout      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "profilesync.db"
	c.LaunchURL = ""
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "json"

	c.SeedItemID = "c1"
	c.SplashMinDuration = 600 * time.Millisecond
	c.DeferredStart = 50 * time.Millisecond
	c.SafetyTimeout = 8 * time.Second
	c.SignOutTimeout = 2 * time.Second
	c.RequestTimeout = 12 * time.Second

	c.LoaderTimeout = 5 * time.Second
	c.LoaderMaxRetries = 2
	c.LoaderBackoffBase = time.Second
	c.LoaderWorkers = 3

	c.BreakerFailureThreshold = 5
	c.BreakerOpenTimeout = 15 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if given) and command-line flags. Later sources take
// precedence over earlier ones. A merged result that fails Validate panics.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects settings the session manager and loader cannot run with.
func (c *Config) Validate() error {
	if c.SeedItemID == "" {
		return crerr.New("config: seed_item_id must not be empty")
	}
	if c.LoaderTimeout <= 0 {
		return crerr.Newf("config: loader_timeout must be positive, got %s", c.LoaderTimeout)
	}
	if c.LoaderMaxRetries < 0 {
		return crerr.Newf("config: loader_max_retries must not be negative, got %d", c.LoaderMaxRetries)
	}
	return nil
}
