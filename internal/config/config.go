package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Media server
	PlexURL   string
	PlexToken string

	// Target libraries; at least one must be configured
	SeriesLibrary string
	MovieLibrary  string

	// Collection management
	CollectionName    string
	MaxCollectionSize int // collection capacity (default: 100)
	MaxDateDiff       int // recency window in days (default: 4)

	// Server
	ServerPort string

	// Workers
	WorkerCount int

	// Paths
	LedgerFile   string // $CONFIG_DIR/deleted_media_ids.txt
	DatabaseFile string // $CONFIG_DIR/dubsarr.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file.
// Validation problems are accumulated and returned together, so operators
// see every missing setting at once instead of one per restart.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	viper.SetDefault("MAX_COLLECTION_SIZE", 100)
	viper.SetDefault("MAX_DATE_DIFF", 4)
	viper.SetDefault("COLLECTION_NAME", "Latest Dubs")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("WORKER_COUNT", 4)
	viper.SetDefault("LOG_LEVEL", "info")

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "dubsarr")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		PlexURL:   viper.GetString("PLEX_URL"),
		PlexToken: viper.GetString("PLEX_TOKEN"),

		SeriesLibrary: viper.GetString("PLEX_ANIME_SERIES"),
		MovieLibrary:  viper.GetString("PLEX_ANIME_MOVIES"),

		CollectionName:    viper.GetString("COLLECTION_NAME"),
		MaxCollectionSize: viper.GetInt("MAX_COLLECTION_SIZE"),
		MaxDateDiff:       viper.GetInt("MAX_DATE_DIFF"),

		ServerPort:  viper.GetString("SERVER_PORT"),
		WorkerCount: viper.GetInt("WORKER_COUNT"),

		LedgerFile:   filepath.Join(configDir, "deleted_media_ids.txt"),
		DatabaseFile: filepath.Join(configDir, "dubsarr.db"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate collects every configuration problem before failing
func (c *Config) validate() error {
	var errs []error

	if c.PlexURL == "" {
		errs = append(errs, errors.New("the PLEX_URL environment variable is required"))
	} else if !isValidURL(c.PlexURL) {
		errs = append(errs, fmt.Errorf("%s is not a valid URL", c.PlexURL))
	}

	if c.PlexToken == "" {
		errs = append(errs, errors.New("the PLEX_TOKEN environment variable is required"))
	}

	if c.SeriesLibrary == "" && c.MovieLibrary == "" {
		errs = append(errs, errors.New("at least one of PLEX_ANIME_SERIES or PLEX_ANIME_MOVIES is required"))
	}

	if c.MaxCollectionSize <= 0 {
		errs = append(errs, errors.New("MAX_COLLECTION_SIZE must be positive"))
	}
	if c.MaxDateDiff < 0 {
		errs = append(errs, errors.New("MAX_DATE_DIFF must not be negative"))
	}

	return errors.Join(errs...)
}

func isValidURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}
