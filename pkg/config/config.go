package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrInvalidVisitedBackend = errors.New("VISITED_BACKEND must be 'memory' or 'redis'")
	ErrInvalidTimeout        = errors.New("timeouts must be positive")
)

// Config stores all configuration for the application.
type Config struct {
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Stage directories and files.
	DataDir     string `mapstructure:"DATA_DIR"`
	CleanDir    string `mapstructure:"CLEAN_DIR"`
	EnrichedDir string `mapstructure:"ENRICHED_DIR"`
	EPCIDir     string `mapstructure:"EPCI_DIR"`
	ReportPath  string `mapstructure:"REPORT_PATH"`
	TargetsFile string `mapstructure:"TARGETS_FILE"`

	// Browser and crawl pacing.
	Headless          bool          `mapstructure:"HEADLESS"`
	PageLoadTimeout   time.Duration `mapstructure:"PAGE_LOAD_TIMEOUT"`
	PaginationTimeout time.Duration `mapstructure:"PAGINATION_TIMEOUT"`
	ClickTimeout      time.Duration `mapstructure:"CLICK_TIMEOUT"`
	VisitDelay        time.Duration `mapstructure:"VISIT_DELAY"`
	SettleDelay       time.Duration `mapstructure:"SETTLE_DELAY"`
	BrowserProxy      string        `mapstructure:"BROWSER_PROXY"`

	// Geographic reference API.
	GeoAPIURL      string        `mapstructure:"GEO_API_URL"`
	GeoAPIInterval time.Duration `mapstructure:"GEO_API_INTERVAL"`
	GeoAPITimeout  time.Duration `mapstructure:"GEO_API_TIMEOUT"`

	VisitedBackend string `mapstructure:"VISITED_BACKEND"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	PostgresURL    string `mapstructure:"POSTGRES_URL"`

	ServerPort         string        `mapstructure:"SERVER_PORT"`
	WorkerPollInterval time.Duration `mapstructure:"WORKER_POLL_INTERVAL"`
}

// Load reads configuration from an optional env file and environment variables.
// An empty path means ".env" in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = ".env"
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// The env file is optional; plain environment variables are enough.
	_ = v.ReadInConfig()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("CLEAN_DIR", "data_clean")
	v.SetDefault("ENRICHED_DIR", "data_enriched")
	v.SetDefault("EPCI_DIR", "data/epci")
	v.SetDefault("REPORT_PATH", "report.md")
	v.SetDefault("TARGETS_FILE", "")

	v.SetDefault("HEADLESS", true)
	v.SetDefault("PAGE_LOAD_TIMEOUT", 15*time.Second)
	v.SetDefault("PAGINATION_TIMEOUT", 8*time.Second)
	v.SetDefault("CLICK_TIMEOUT", 5*time.Second)
	v.SetDefault("VISIT_DELAY", 200*time.Millisecond)
	v.SetDefault("SETTLE_DELAY", 500*time.Millisecond)
	v.SetDefault("BROWSER_PROXY", "")

	v.SetDefault("GEO_API_URL", "https://geo.api.gouv.fr")
	v.SetDefault("GEO_API_INTERVAL", 150*time.Millisecond)
	v.SetDefault("GEO_API_TIMEOUT", 15*time.Second)

	v.SetDefault("VISITED_BACKEND", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("POSTGRES_URL", "")

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("WORKER_POLL_INTERVAL", 2*time.Second)
}

// Validate checks the values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.VisitedBackend != "memory" && c.VisitedBackend != "redis" {
		return ErrInvalidVisitedBackend
	}
	for _, d := range []time.Duration{c.PageLoadTimeout, c.PaginationTimeout, c.ClickTimeout, c.GeoAPITimeout} {
		if d <= 0 {
			return ErrInvalidTimeout
		}
	}
	return nil
}
