// Package secrets resolves credentials that may be given literally, as
// ${VAR} references, or as files mounted by a container runtime.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/artifact-explorer/artifact-explorer/internal/errors"
	"github.com/artifact-explorer/artifact-explorer/internal/logger"
)

// maxSecretFileSize bounds secret file reads; credentials are small.
const maxSecretFileSize = 64 * 1024

func getLogger() logger.Logger {
	return logger.Global().Module("secrets")
}

func secretError(err error, field string) error {
	return errors.New(err).
		Component("secrets").
		Category(errors.CategoryConfiguration).
		Context("field", field).
		Build()
}

// Resolve returns the credential for field. A non-empty filePath wins over
// value; value is expanded with ${VAR} and ${VAR:-default} syntax.
func Resolve(field, filePath, value string) (string, error) {
	if filePath != "" {
		secret, err := readFile(filePath)
		if err != nil {
			return "", secretError(err, field)
		}
		return secret, nil
	}

	expanded, err := expand(value)
	if err != nil {
		return "", secretError(err, field)
	}
	return expanded, nil
}

func expand(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if v := os.Getenv(name); v != "" {
			return v
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing environment variable(s): %s", strings.Join(missing, ", "))
	}
	return expanded, nil
}

// readFile reads a secret file, trimming trailing newlines. Files readable
// by group or others are accepted with a warning.
func readFile(path string) (string, error) {
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return "", fmt.Errorf("secret file %s: %w", cleanPath, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", cleanPath)
	}
	if info.Size() > maxSecretFileSize {
		return "", fmt.Errorf("secret file too large (max %d bytes): %s", maxSecretFileSize, cleanPath)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		getLogger().Warn("secret file is readable by group or others",
			logger.String("path", cleanPath),
			logger.String("perm", fmt.Sprintf("%04o", perm)))
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", cleanPath, err)
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fmt.Errorf("secret file is empty: %s", cleanPath)
	}
	return secret, nil
}
