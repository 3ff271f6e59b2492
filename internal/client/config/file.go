package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dmitrijs2005/profilesync/internal/flagx"
	"github.com/dmitrijs2005/profilesync/internal/timex"
	"github.com/pelletier/go-toml/v2"
)

// fileConfig is the on-disk shape of Config. Pointer fields tell apart keys
// that are absent from keys set to their zero value.
type fileConfig struct {
	ServerEndpointAddr  *string         `json:"server_endpoint_addr" toml:"server_endpoint_addr"`
	DatabasePath        *string         `json:"database_path" toml:"database_path"`
	LaunchURL           *string         `json:"launch_url" toml:"launch_url"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval" toml:"online_check_interval"`
	LogLevel            *string         `json:"log_level" toml:"log_level"`
	LogFormat           *string         `json:"log_format" toml:"log_format"`

	SeedItemID        *string         `json:"seed_item_id" toml:"seed_item_id"`
	SplashMinDuration *timex.Duration `json:"splash_min_duration" toml:"splash_min_duration"`
	DeferredStart     *timex.Duration `json:"deferred_start" toml:"deferred_start"`
	SafetyTimeout     *timex.Duration `json:"safety_timeout" toml:"safety_timeout"`
	SignOutTimeout    *timex.Duration `json:"sign_out_timeout" toml:"sign_out_timeout"`
	RequestTimeout    *timex.Duration `json:"request_timeout" toml:"request_timeout"`

	LoaderTimeout     *timex.Duration `json:"loader_timeout" toml:"loader_timeout"`
	LoaderMaxRetries  *int            `json:"loader_max_retries" toml:"loader_max_retries"`
	LoaderBackoffBase *timex.Duration `json:"loader_backoff_base" toml:"loader_backoff_base"`
	LoaderWorkers     *int            `json:"loader_workers" toml:"loader_workers"`

	BreakerFailureThreshold *int            `json:"breaker_failure_threshold" toml:"breaker_failure_threshold"`
	BreakerOpenTimeout      *timex.Duration `json:"breaker_open_timeout" toml:"breaker_open_timeout"`
}

// parseFile overlays cfg with the file named by -c/-config. Files ending in
// .toml are decoded as TOML, anything else as JSON. Read and decode errors
// panic.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc fileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = sonic.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.ServerEndpointAddr, fc.ServerEndpointAddr)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	setString(&cfg.LaunchURL, fc.LaunchURL)
	setDuration(&cfg.OnlineCheckInterval, fc.OnlineCheckInterval)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)

	setString(&cfg.SeedItemID, fc.SeedItemID)
	setDuration(&cfg.SplashMinDuration, fc.SplashMinDuration)
	setDuration(&cfg.DeferredStart, fc.DeferredStart)
	setDuration(&cfg.SafetyTimeout, fc.SafetyTimeout)
	setDuration(&cfg.SignOutTimeout, fc.SignOutTimeout)
	setDuration(&cfg.RequestTimeout, fc.RequestTimeout)

	setDuration(&cfg.LoaderTimeout, fc.LoaderTimeout)
	setInt(&cfg.LoaderMaxRetries, fc.LoaderMaxRetries)
	setDuration(&cfg.LoaderBackoffBase, fc.LoaderBackoffBase)
	setInt(&cfg.LoaderWorkers, fc.LoaderWorkers)

	setInt(&cfg.BreakerFailureThreshold, fc.BreakerFailureThreshold)
	setDuration(&cfg.BreakerOpenTimeout, fc.BreakerOpenTimeout)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
