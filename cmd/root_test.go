package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artifact-explorer/artifact-explorer/internal/conf"
)

// execute runs the root command against a config pointing at a temp SQLite file.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	config := "output:\n  sqlite:\n    enabled: true\n    path: " + filepath.Join(dir, "artifacts.db") + "\n" +
		"logging:\n  console:\n    enabled: false\n"
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o600))

	var out bytes.Buffer
	root := RootCommand(&conf.Settings{Version: "test"})
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", configPath}, args...))

	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := RootCommand(&conf.Settings{})

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"schema", "import", "query", "queries", "browse", "serve"} {
		assert.Contains(t, names, want)
	}
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema ready (sqlite)")
}

func TestQueryCommand_AdHoc(t *testing.T) {
	out, err := execute(t, "query", "SELECT COUNT(*) AS n FROM artifact_colors")
	require.NoError(t, err)
	assert.Equal(t, "n\n0\n(1 row)\n", out)
}

func TestQueryCommand_Canned(t *testing.T) {
	out, err := execute(t, "query", "--name", "total-color-entries")
	require.NoError(t, err)
	assert.Contains(t, out, "total_color_entries")

	_, err = execute(t, "query", "--name", "colors-of-artifact")
	assert.Error(t, err, "missing parameter")

	_, err = execute(t, "query")
	assert.Error(t, err)
}

func TestQueryCommand_RefusesWrites(t *testing.T) {
	_, err := execute(t, "query", "DROP TABLE artifact_metadata")
	assert.Error(t, err)
}

func TestQueriesCommand(t *testing.T) {
	out, err := execute(t, "queries")
	require.NoError(t, err)
	assert.Contains(t, out, "colors-of-artifact")
	assert.Contains(t, out, "artifact_id")
}

func TestBrowseCommand(t *testing.T) {
	out, err := execute(t, "browse", "artifact_media", "--classification", "Paintings")
	require.NoError(t, err)
	assert.Contains(t, out, "objectid")
	assert.Contains(t, out, "(0 rows)")

	_, err = execute(t, "browse", "users")
	assert.Error(t, err)
}

func TestImportCommand_RequiresAPIKey(t *testing.T) {
	t.Setenv("ARTIFACT_HARVARD_APIKEY", "")
	_, err := execute(t, "import", "--classification", "Paintings", "--pages", "1")
	assert.Error(t, err)
}
