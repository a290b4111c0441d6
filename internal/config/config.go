// Package config loads kestrel's configuration from file, environment,
// and defaults, in that order of increasing precedence for env over file.
//
// Sources:
//   - $KESTREL_CONFIG or ./kestrel.yaml or $HOME/.config/kestrel/kestrel.yaml
//   - KESTREL_* environment variables (KESTREL_BASE_URL, KESTREL_TOKEN, ...)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the resolved kestrel configuration.
type Config struct {
	// BaseURL is the splunkd management endpoint.
	BaseURL string `mapstructure:"base_url"`

	// Token is the bearer token for authentication.
	Token string `mapstructure:"token"`

	// Insecure disables TLS verification for self-signed dev instances.
	Insecure bool `mapstructure:"insecure"`

	// Timeout is the per-request transport timeout.
	Timeout time.Duration `mapstructure:"timeout"`

	// SearchTimeout is the transport timeout for blocking job creation,
	// which holds the request open until the search completes.
	SearchTimeout time.Duration `mapstructure:"search_timeout"`

	// PollInterval is the cadence for job waits.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// PollTimeout is the default budget for job waits.
	PollTimeout time.Duration `mapstructure:"poll_timeout"`

	// RequestsPerSecond caps outbound request rate when > 0.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// LogLevel selects the CLI log level.
	LogLevel string `mapstructure:"log_level"`

	Search SearchConfig `mapstructure:"search"`
}

// SearchConfig holds defaults applied to created searches.
type SearchConfig struct {
	EarliestTime string `mapstructure:"earliest_time"`
	LatestTime   string `mapstructure:"latest_time"`
}

// setDefaults registers every key, including zero-valued ones: AutomaticEnv
// only surfaces env values through Unmarshal for keys viper already knows.
func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "https://localhost:8089")
	v.SetDefault("token", "")
	v.SetDefault("insecure", false)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("search_timeout", 300*time.Second)
	v.SetDefault("poll_interval", 1*time.Second)
	v.SetDefault("poll_timeout", 300*time.Second)
	v.SetDefault("requests_per_second", 0.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("search.earliest_time", "-24h@h")
	v.SetDefault("search.latest_time", "now")
}

// Load reads configuration. path overrides file discovery when non-empty;
// a missing discovered file is fine, a missing explicit file is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KESTREL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv("KESTREL_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("kestrel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "kestrel"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll_interval must be positive")
	}
	if cfg.PollTimeout <= 0 {
		return nil, fmt.Errorf("poll_timeout must be positive")
	}
	return &cfg, nil
}
