// Package config handles configuration loading for deepscreen.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	FMP      FMPConfig      `mapstructure:"fmp"      yaml:"fmp"`
	Screener ScreenerConfig `mapstructure:"screener" yaml:"screener"`
	Data     DataConfig     `mapstructure:"data"     yaml:"data"`
	LLM      LLMConfig      `mapstructure:"llm"      yaml:"llm"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// FMPConfig holds Financial Modeling Prep settings.
type FMPConfig struct {
	APIKey         string `mapstructure:"api_key"          yaml:"api_key"`
	CacheTTLSec    int    `mapstructure:"cache_ttl_sec"    yaml:"cache_ttl_sec"`
	RequestsPerSec int    `mapstructure:"requests_per_sec" yaml:"requests_per_sec"`
}

// ScreenerConfig holds universe and refresh settings.
type ScreenerConfig struct {
	UniverseSize    int    `mapstructure:"universe_size"    yaml:"universe_size"`
	RefreshSchedule string `mapstructure:"refresh_schedule" yaml:"refresh_schedule"` // cron spec, empty disables
	DefaultPerPage  int    `mapstructure:"default_per_page" yaml:"default_per_page"`
}

// DataConfig holds paths and URLs for the auxiliary data sets.
type DataConfig struct {
	RegShoFile    string   `mapstructure:"regsho_file"    yaml:"regsho_file"`
	SP500File     string   `mapstructure:"sp500_file"     yaml:"sp500_file"`
	CatalystFeeds []string `mapstructure:"catalyst_feeds" yaml:"catalyst_feeds"`
}

// LLMConfig holds settings for investment thesis generation.
type LLMConfig struct {
	GeminiKey   string  `mapstructure:"gemini_key"  yaml:"gemini_key"`
	Model       string  `mapstructure:"model"       yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.deepscreen/config.yaml (home directory)
//  3. /etc/deepscreen/config.yaml (system)
//
// Environment variables override config file values.
// Format: DEEPSCREEN_<SECTION>_<KEY>, e.g., DEEPSCREEN_FMP_API_KEY
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".deepscreen"))
	v.AddConfigPath("/etc/deepscreen")

	// Environment variable settings
	v.SetEnvPrefix("DEEPSCREEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override sensitive values from environment
	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("DEEPSCREEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// FMP defaults
	v.SetDefault("fmp.cache_ttl_sec", 600) // 10 minutes
	v.SetDefault("fmp.requests_per_sec", 10)

	// Screener defaults
	v.SetDefault("screener.universe_size", 40)
	v.SetDefault("screener.refresh_schedule", "") // manual refresh only
	v.SetDefault("screener.default_per_page", 25)

	// Data set defaults
	v.SetDefault("data.regsho_file", "./data/regsho.json")
	v.SetDefault("data.sp500_file", "./data/sp500.json")
	v.SetDefault("data.catalyst_feeds", []string{})

	// LLM defaults
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 1024)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("DEEPSCREEN_FMP_API_KEY"); key != "" {
		cfg.FMP.APIKey = key
	}
	if key := os.Getenv("DEEPSCREEN_LLM_GEMINI_KEY"); key != "" {
		cfg.LLM.GeminiKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
