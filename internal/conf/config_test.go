package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file into a temp dir and resets viper state.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "harvard:\n  apikey: test-key\n")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-key", settings.Harvard.APIKey)
	assert.Equal(t, "https://api.harvardartmuseums.org", settings.Harvard.BaseURL)
	assert.Equal(t, 25, settings.Harvard.DefaultPages)
	assert.Equal(t, 30*time.Second, settings.Harvard.Timeout)
	assert.Equal(t, time.Hour, settings.Harvard.CacheTTL)
	assert.Equal(t, DefaultClassifications, settings.Import.Classifications)
	assert.True(t, settings.Output.SQLite.Enabled)
	assert.Equal(t, "artifacts.db", settings.Output.SQLite.Path)
	assert.False(t, settings.Output.MySQL.Enabled)
	assert.Equal(t, "info", settings.Logging.DefaultLevel)
	assert.Equal(t, "8080", settings.WebServer.Port)
	assert.Same(t, settings, GetSettings())
}

func TestLoadReadsMySQLAndDurations(t *testing.T) {
	path := writeConfig(t, `
harvard:
  timeout: 5s
  cachettl: 0s
  ratelimitms: 0
output:
  sqlite:
    enabled: false
  mysql:
    enabled: true
    host: db.internal
    port: "3307"
    username: museum
    password: secret
    database: artifacts
logging:
  modules:
    datastore: trace
`)

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, settings.Harvard.Timeout)
	assert.Zero(t, settings.Harvard.CacheTTL)
	assert.Zero(t, settings.Harvard.RateLimitMS)
	assert.True(t, settings.Output.MySQL.Enabled)
	assert.Equal(t, "db.internal", settings.Output.MySQL.Host)
	assert.Equal(t, "3307", settings.Output.MySQL.Port)
	assert.Equal(t, "trace", settings.Logging.ModuleLevels["datastore"])
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "harvard:\n  apikey: from-file\n")
	t.Setenv("ARTIFACT_HARVARD_APIKEY", "from-env")
	t.Setenv("ARTIFACT_SQLITE_PATH", "/tmp/env.db")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", settings.Harvard.APIKey)
	assert.Equal(t, "/tmp/env.db", settings.Output.SQLite.Path)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	path := writeConfig(t, `
harvard:
  defaultpages: 0
output:
  mysql:
    enabled: true
    host: localhost
    username: root
    database: artifacts
`)

	_, err := Load(path)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
	assert.Contains(t, ve.Errors[0], "harvard.defaultpages")
	assert.Contains(t, ve.Errors[1], "not both")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateOutputSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"sqlite only", func(s *Settings) {}, ""},
		{"neither", func(s *Settings) { s.Output.SQLite.Enabled = false }, "no database enabled"},
		{"sqlite without path", func(s *Settings) { s.Output.SQLite.Path = "" }, "output.sqlite.path"},
		{"mysql bad port", func(s *Settings) {
			s.Output.SQLite.Enabled = false
			s.Output.MySQL.Enabled = true
			s.Output.MySQL.Host = "localhost"
			s.Output.MySQL.Username = "root"
			s.Output.MySQL.Database = "artifacts"
			s.Output.MySQL.Port = "99999"
		}, "output.mysql.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &Settings{}
			s.Output.SQLite.Enabled = true
			s.Output.SQLite.Path = "artifacts.db"
			tt.mutate(s)

			err := validateOutputSettings(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvValidators(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvPort("3306"))
	assert.Error(t, validateEnvPort("0"))
	assert.Error(t, validateEnvPort("abc"))
	assert.NoError(t, validateEnvURL("https://api.harvardartmuseums.org"))
	assert.Error(t, validateEnvURL("not a url"))
	assert.NoError(t, validateEnvLogLevel("DEBUG"))
	assert.Error(t, validateEnvLogLevel("verbose"))
	assert.NoError(t, validateEnvBool("true"))
	assert.Error(t, validateEnvBool("maybe"))
}

func TestLoadResolvesSecretFiles(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "apikey")
	require.NoError(t, os.WriteFile(keyFile, []byte("file-key\n"), 0o600))
	t.Setenv("MUSEUM_DB_PASSWORD", "env-password")

	path := writeConfig(t, `
harvard:
  apikey: ignored
  apikeyfile: `+keyFile+`
output:
  mysql:
    password: ${MUSEUM_DB_PASSWORD}
`)

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", settings.Harvard.APIKey)
	assert.Equal(t, "env-password", settings.Output.MySQL.Password)
}
