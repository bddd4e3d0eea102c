// env.go - environment variable configuration and validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"harvard.apikey", "ARTIFACT_HARVARD_APIKEY", nil},
		{"harvard.baseurl", "ARTIFACT_HARVARD_BASEURL", validateEnvURL},

		{"output.mysql.enabled", "ARTIFACT_MYSQL_ENABLED", validateEnvBool},
		{"output.mysql.host", "ARTIFACT_MYSQL_HOST", nil},
		{"output.mysql.port", "ARTIFACT_MYSQL_PORT", validateEnvPort},
		{"output.mysql.username", "ARTIFACT_MYSQL_USERNAME", nil},
		{"output.mysql.password", "ARTIFACT_MYSQL_PASSWORD", nil},
		{"output.mysql.database", "ARTIFACT_MYSQL_DATABASE", nil},

		{"output.sqlite.enabled", "ARTIFACT_SQLITE_ENABLED", validateEnvBool},
		{"output.sqlite.path", "ARTIFACT_SQLITE_PATH", nil},

		{"sentry.dsn", "ARTIFACT_SENTRY_DSN", validateEnvURL},
		{"logging.level", "ARTIFACT_LOG_LEVEL", validateEnvLogLevel},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value: %v", binding.EnvVar, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("URL must include scheme and host")
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "trace", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log level must be one of trace, debug, info, warn, error, got '%s'", value)
}
