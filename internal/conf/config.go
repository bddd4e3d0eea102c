// Package conf provides configuration management for artifact-explorer.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/artifact-explorer/artifact-explorer/internal/logger"
	"github.com/artifact-explorer/artifact-explorer/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// HarvardSettings contains settings for the Harvard Art Museums object API.
type HarvardSettings struct {
	APIKey       string        // API key sent as the apikey query parameter, ${VAR} is expanded
	APIKeyFile   string        // file holding the API key, wins over APIKey
	BaseURL      string        // API root, /object is appended
	DefaultPages int           // pages fetched per import when not specified
	Timeout      time.Duration // per-request timeout
	RateLimitMS  int           // minimum delay between page requests in milliseconds
	CacheTTL     time.Duration // how long successful fetches are cached, 0 disables
}

// ImportSettings contains settings for the ingestion pipeline.
type ImportSettings struct {
	Classifications []string // preset classifications offered by the CLI and API
}

// SentrySettings contains settings for error telemetry.
type SentrySettings struct {
	Enabled bool   // true to report enhanced errors to Sentry
	DSN     string // Sentry DSN
}

// WebServerSettings contains settings for the HTTP API.
type WebServerSettings struct {
	Debug        bool          // true to enable request debug logging
	Port         string        // port for web server
	ReadTimeout  time.Duration // server read timeout
	WriteTimeout time.Duration // server write timeout
}

// Settings holds the complete application configuration.
type Settings struct {
	Debug bool // true to enable debug mode

	Version string `yaml:"-"` // Version from build

	Harvard HarvardSettings // remote catalog settings
	Import  ImportSettings  // import pipeline settings

	Output struct {
		SQLite struct {
			Enabled bool   // true to store artifacts in sqlite
			Path    string // path to sqlite database
		}

		MySQL struct {
			Enabled      bool   // true to store artifacts in mysql
			Username     string // username for mysql database
			Password     string // password for mysql database, ${VAR} is expanded
			PasswordFile string // file holding the password, wins over Password
			Database     string // database name for mysql database
			Host         string // host for mysql database
			Port         string // port for mysql database
		}
	}

	Logging   logger.LoggingConfig // logging configuration
	Sentry    SentrySettings       // telemetry configuration
	WebServer WebServerSettings    // HTTP API configuration
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads configuration from configFile, or from the default search
// paths when configFile is empty, and validates it.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// resolveSecrets replaces credential settings with their resolved values.
func resolveSecrets(settings *Settings) error {
	apiKey, err := secrets.Resolve("harvard.apikey", settings.Harvard.APIKeyFile, settings.Harvard.APIKey)
	if err != nil {
		return err
	}
	settings.Harvard.APIKey = apiKey

	password, err := secrets.Resolve("output.mysql.password", settings.Output.MySQL.PasswordFile, settings.Output.MySQL.Password)
	if err != nil {
		return err
	}
	settings.Output.MySQL.Password = password
	return nil
}

// initViper registers defaults and environment bindings, then reads the config file.
func initViper(configFile string) error {
	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		GetLogger().Warn("environment configuration problems", logger.Error(err))
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("fatal error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths[len(configPaths)-1])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config into dir and reads it.
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

// GetSettings returns the most recently loaded settings, or nil.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error getting home directory: %w", err)
	}

	return []string{
		".",
		filepath.Join(homeDir, ".config", "artifact-explorer"),
	}, nil
}

// GetLogger returns the config package logger scoped to the config module.
// It is fetched from the global logger on each call because the central
// logger is installed after configuration has been read.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
