package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every SIFT_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MERGE_COLUMNS", "MERGE_INCLUDE_EMPTY_SHEETS", "MERGE_OUTPUT_DIR", "MERGE_OUTPUT_NAME",
		"MERGE_WORKERS", "CSV_SEPARATOR", "CSV_ENCODING", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
	} {
		name := EnvPrefix + "_" + key
		if old, ok := os.LookupEnv(name); ok {
			t.Cleanup(func() { os.Setenv(name, old) })
		}
		os.Unsetenv(name)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sift.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "merged.xlsx", cfg.OutputPath())
	assert.Equal(t, rune(0), cfg.Separator())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
merge:
  columns: ["Email", " Phone ", ""]
  include_empty_sheets: true
  output_dir: /tmp/out
  output_name: result.xlsx
  workers: 4
csv:
  separator: ";"
  encoding: windows-1252
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Email", "Phone"}, cfg.Merge.Columns)
	assert.True(t, cfg.Merge.IncludeEmptySheets)
	assert.Equal(t, filepath.Join("/tmp/out", "result.xlsx"), cfg.OutputPath())
	assert.Equal(t, 4, cfg.Merge.Workers)
	assert.Equal(t, ';', cfg.Separator())
	assert.Equal(t, "windows-1252", cfg.CSV.Encoding)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
merge:
  columns: [Email]
  output_name: from-file.xlsx
csv:
  separator: ";"
`)
	t.Setenv("SIFT_MERGE_COLUMNS", "Phone,Fax")
	t.Setenv("SIFT_CSV_SEPARATOR", "|")
	t.Setenv("SIFT_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Phone", "Fax"}, cfg.Merge.Columns)
	assert.Equal(t, '|', cfg.Separator())
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "from-file.xlsx", cfg.Merge.OutputName, "unset variables keep file values")
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
	}{
		{"Long separator", "csv:\n  separator: ';;'\n"},
		{"Negative workers", "merge:\n  workers: -1\n"},
		{"Unknown log format", "logging:\n  format: xml\n"},
		{"Malformed yaml", "merge: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	t.Run("Missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Bad env value", func(t *testing.T) {
		t.Setenv("SIFT_MERGE_WORKERS", "many")
		_, err := Load(writeConfig(t, ""))
		assert.Error(t, err)
	})
}
