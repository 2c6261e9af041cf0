package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mmcdole/moviesearch/internal/store"
	"github.com/spf13/viper"
)

const appName = "moviesearch"

// Config holds all application configuration
type Config struct {
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Cache   CacheConfig   `mapstructure:"cache"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
	Debug   DebugConfig   `mapstructure:"debug"`
}

// TMDBConfig holds movie API configuration
type TMDBConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url" validate:"required,url"`
	ImageBaseURL string        `mapstructure:"image_base_url" validate:"required,url"`
	Language     string        `mapstructure:"language"` // e.g. "en-US", empty = API default
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RateLimit    float64       `mapstructure:"rate_limit" validate:"gt=0"` // requests per second
	RateBurst    int           `mapstructure:"rate_burst" validate:"gte=1"`
}

// CacheConfig holds query cache configuration
type CacheConfig struct {
	Persist          bool          `mapstructure:"persist"` // keep query results on disk between runs
	Path             string        `mapstructure:"path"`
	SearchStaleTime  time.Duration `mapstructure:"search_stale_time" validate:"gte=0"`
	DetailsStaleTime time.Duration `mapstructure:"details_stale_time" validate:"gte=0"`
	PopularStaleTime time.Duration `mapstructure:"popular_stale_time" validate:"gte=0"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	GridColumns   int           `mapstructure:"grid_columns" validate:"gte=1,lte=8"`
	DebounceDelay time.Duration `mapstructure:"debounce" validate:"gte=0"`
	PosterSize    string        `mapstructure:"poster_size" validate:"oneof=small medium large original"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File   string `mapstructure:"file" validate:"required"`
	Level  string `mapstructure:"level" validate:"oneof=DEBUG INFO WARN WARNING ERROR"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// DebugConfig holds the optional local debug server
type DebugConfig struct {
	Listen string `mapstructure:"listen" validate:"omitempty,hostname_port"` // empty = disabled
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TMDB: TMDBConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p",
			Timeout:      15 * time.Second,
			RateLimit:    40,
			RateBurst:    10,
		},
		Cache: CacheConfig{
			Persist:          false,
			Path:             defaultCachePath(),
			SearchStaleTime:  5 * time.Minute,
			DetailsStaleTime: 10 * time.Minute,
			PopularStaleTime: 30 * time.Minute,
		},
		UI: UIConfig{
			GridColumns:   3,
			DebounceDelay: 500 * time.Millisecond,
			PosterSize:    "medium",
		},
		Logging: LoggingConfig{
			File:   defaultLogPath(),
			Level:  "INFO",
			Format: "json",
		},
	}
}

// setDefaults registers every default with viper so env overrides bind
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("tmdb.api_key", cfg.TMDB.APIKey)
	v.SetDefault("tmdb.base_url", cfg.TMDB.BaseURL)
	v.SetDefault("tmdb.image_base_url", cfg.TMDB.ImageBaseURL)
	v.SetDefault("tmdb.language", cfg.TMDB.Language)
	v.SetDefault("tmdb.timeout", cfg.TMDB.Timeout)
	v.SetDefault("tmdb.rate_limit", cfg.TMDB.RateLimit)
	v.SetDefault("tmdb.rate_burst", cfg.TMDB.RateBurst)

	v.SetDefault("cache.persist", cfg.Cache.Persist)
	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("cache.search_stale_time", cfg.Cache.SearchStaleTime)
	v.SetDefault("cache.details_stale_time", cfg.Cache.DetailsStaleTime)
	v.SetDefault("cache.popular_stale_time", cfg.Cache.PopularStaleTime)

	v.SetDefault("ui.grid_columns", cfg.UI.GridColumns)
	v.SetDefault("ui.debounce", cfg.UI.DebounceDelay)
	v.SetDefault("ui.poster_size", cfg.UI.PosterSize)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("debug.listen", cfg.Debug.Listen)
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName, appName+".log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, appName+".log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName, "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, "cache")
	}
}

// LoadConfig loads configuration from file and environment.
// An empty path searches the default config directory and the working
// directory; a missing file there is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides: MOVIESEARCH_TMDB_API_KEY etc.
	v.SetEnvPrefix("MOVIESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional TMDB variable works too
	_ = v.BindEnv("tmdb.api_key", "MOVIESEARCH_TMDB_API_KEY", "TMDB_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	cfg.Cache.Path = expandHome(cfg.Cache.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}

// HasAPIKey returns true if an API key is configured
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.TMDB.APIKey) != ""
}

// SaveAPIKey stores key as tmdb.api_key in the config file at path, or the
// default location when path is empty. Other settings already in the file
// are kept; nothing from defaults or the environment is written.
func SaveAPIKey(path, key string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.Set("tmdb.api_key", key)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ClearCache removes the query databases kept under dir, or under the
// default cache directory when dir is empty. It returns how many were
// removed.
func ClearCache(dir string) (int, error) {
	if dir == "" {
		dir = GetCachePath()
	}
	n, err := store.Purge(dir)
	if err != nil {
		return n, fmt.Errorf("failed to clear cache: %w", err)
	}
	return n, nil
}

// GetCachePath returns the default cache directory path
func GetCachePath() string {
	return defaultCachePath()
}

// ConfigPath returns the default config file location
func ConfigPath() string {
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
