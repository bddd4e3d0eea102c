// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateHarvardSettings(&settings.Harvard); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOutputSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry is enabled but no DSN is configured")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateHarvardSettings checks pagination and endpoint settings. The API
// key is not required here so that schema and query commands run without one.
func validateHarvardSettings(settings *HarvardSettings) error {
	var errs []string

	if settings.DefaultPages < 1 {
		errs = append(errs, fmt.Sprintf("harvard.defaultpages must be at least 1, got %d", settings.DefaultPages))
	}
	if settings.RateLimitMS < 0 {
		errs = append(errs, "harvard.ratelimitms must not be negative")
	}
	if settings.Timeout <= 0 {
		errs = append(errs, "harvard.timeout must be positive")
	}
	if u, err := url.Parse(settings.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("harvard.baseurl is not a valid URL: %q", settings.BaseURL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("harvard settings: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validateOutputSettings requires exactly one enabled store
func validateOutputSettings(settings *Settings) error {
	sqliteEnabled := settings.Output.SQLite.Enabled
	mysqlEnabled := settings.Output.MySQL.Enabled

	switch {
	case sqliteEnabled && mysqlEnabled:
		return fmt.Errorf("output: enable either sqlite or mysql, not both")
	case !sqliteEnabled && !mysqlEnabled:
		return fmt.Errorf("output: no database enabled, enable sqlite or mysql")
	case sqliteEnabled && settings.Output.SQLite.Path == "":
		return fmt.Errorf("output.sqlite.path must be set")
	case mysqlEnabled:
		m := settings.Output.MySQL
		if m.Host == "" || m.Database == "" || m.Username == "" {
			return fmt.Errorf("output.mysql requires host, database and username")
		}
		if err := validateEnvPort(m.Port); err != nil {
			return fmt.Errorf("output.mysql.port: %w", err)
		}
	}
	return nil
}

func validateWebServerSettings(settings *WebServerSettings) error {
	if settings.Port == "" {
		return nil
	}
	port, err := strconv.Atoi(settings.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("webserver.port must be a number between 1 and 65535, got %q", settings.Port)
	}
	return nil
}
