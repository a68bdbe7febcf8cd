// Package config handles configuration loading for InvestScout.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/seenimoa/investscout/internal/screener"
)

// EnvPrefix prefixes every environment override, e.g. INVESTSCOUT_FETCH_WORKERS.
const EnvPrefix = "INVESTSCOUT"

// Config represents the complete application configuration.
type Config struct {
	Screening ScreeningConfig `mapstructure:"screening" json:"screening" yaml:"screening"`
	Fetch     FetchConfig     `mapstructure:"fetch"     json:"fetch"     yaml:"fetch"`
	API       APIConfig       `mapstructure:"api"       json:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   json:"logging"   yaml:"logging"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-" json:"-" yaml:"-"`
}

// ScreeningConfig holds the default screen used when a request leaves a field unset.
type ScreeningConfig struct {
	Market         string   `mapstructure:"market"           json:"market"           yaml:"market"           validate:"oneof=both us ca"`
	Style          string   `mapstructure:"style"            json:"style"            yaml:"style"            validate:"oneof=blend growth value dividend"`
	TopN           int      `mapstructure:"top_n"            json:"top_n"            yaml:"top_n"            validate:"gte=1,lte=500"`
	Risk           string   `mapstructure:"risk"             json:"risk"             yaml:"risk"             validate:"oneof=large mid small"`
	Sectors        []string `mapstructure:"sectors"          json:"sectors"          yaml:"sectors"`
	MinAnalysts    int      `mapstructure:"min_analysts"     json:"min_analysts"     yaml:"min_analysts"     validate:"gte=0"`
	MinUpside      float64  `mapstructure:"min_upside"       json:"min_upside"       yaml:"min_upside"` // percent
	MaxMarketCap   float64  `mapstructure:"max_market_cap"   json:"max_market_cap"   yaml:"max_market_cap"   validate:"gte=0"`
	BuyRatingsOnly bool     `mapstructure:"buy_ratings_only" json:"buy_ratings_only" yaml:"buy_ratings_only"`
}

// FetchConfig holds metric-source settings.
type FetchConfig struct {
	Source            string  `mapstructure:"source"              json:"source"              yaml:"source"              validate:"oneof=yahoo financego auto"`
	Workers           int     `mapstructure:"workers"             json:"workers"             yaml:"workers"             validate:"gte=1,lte=64"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"` // 0 = unlimited
	Burst             int     `mapstructure:"burst"               json:"burst"               yaml:"burst"               validate:"gte=0"`
	TimeoutSec        int     `mapstructure:"timeout_sec"         json:"timeout_sec"         yaml:"timeout_sec"         validate:"gte=1"`
	YahooBaseURL      string  `mapstructure:"yahoo_base_url"      json:"yahoo_base_url"      yaml:"yahoo_base_url"      validate:"required,url"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         json:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         json:"port"         yaml:"port"         validate:"gte=1,lte=65535"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  json:"level"  yaml:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" json:"format" yaml:"format" validate:"oneof=text console json"`
}

var validate = validator.New()

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Request builds the default screening request from the screening section.
func (s ScreeningConfig) Request() screener.Request {
	criteria := screener.Criteria{
		Sectors:        s.Sectors,
		MaxMarketCap:   s.MaxMarketCap,
		MinAnalysts:    s.MinAnalysts,
		MinUpside:      s.MinUpside,
		BuyRatingsOnly: s.BuyRatingsOnly,
	}.WithRisk(screener.ParseRiskTolerance(s.Risk))

	return screener.Request{
		Criteria: criteria,
		Style:    screener.ParseStyle(s.Style),
		TopN:     s.TopN,
	}
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.investscout/config.yaml (home directory)
//  3. /etc/investscout/config.yaml (system)
//
// Environment variables override config file values.
// Format: INVESTSCOUT_<SECTION>_<KEY>, e.g., INVESTSCOUT_FETCH_WORKERS
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".investscout"))
	v.AddConfigPath("/etc/investscout")

	// Environment variable settings
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; use defaults and env vars
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.File = v.ConfigFileUsed()
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Screening defaults
	v.SetDefault("screening.market", "both")
	v.SetDefault("screening.style", "blend")
	v.SetDefault("screening.top_n", 20)
	v.SetDefault("screening.risk", "mid")
	v.SetDefault("screening.sectors", []string{})
	v.SetDefault("screening.min_analysts", 5)
	v.SetDefault("screening.min_upside", 10.0)
	v.SetDefault("screening.max_market_cap", 0.0)
	v.SetDefault("screening.buy_ratings_only", false)

	// Fetch defaults
	v.SetDefault("fetch.source", "yahoo")
	v.SetDefault("fetch.workers", 10)
	v.SetDefault("fetch.requests_per_second", 8.0)
	v.SetDefault("fetch.burst", 4)
	v.SetDefault("fetch.timeout_sec", 15)
	v.SetDefault("fetch.yahoo_base_url", "https://query2.finance.yahoo.com")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
