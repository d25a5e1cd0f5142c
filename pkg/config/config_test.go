package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/ajitpratap0/reshape/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultIDColumns, cfg.Reshape.IDColumns)
	assert.Equal(t, DefaultCategoryColumns, cfg.Reshape.CategoryColumns)
	assert.Equal(t, ";", cfg.Reshape.CellDelimiter)
	assert.Equal(t, "Emocao", cfg.Reshape.CategoryColumn)
	assert.Equal(t, "T_", cfg.Reshape.PositionPrefix)
	assert.Equal(t, 5, cfg.Observability.PreviewRows)

	// Default must hand out copies of the shared column lists
	cfg.Reshape.IDColumns[0] = "changed"
	assert.Equal(t, "Id", DefaultIDColumns[0])
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty input", func(c *Config) { c.Input.Path = " " }},
		{"empty output", func(c *Config) { c.Output.Path = "" }},
		{"multi-char input separator", func(c *Config) { c.Input.Separator = ";;" }},
		{"quote separator", func(c *Config) { c.Output.Separator = `"` }},
		{"unknown format", func(c *Config) { c.Output.Format = "xlsx" }},
		{"unknown compression", func(c *Config) { c.Output.Compression = "brotli" }},
		{"bad level", func(c *Config) { c.Output.Level = 12 }},
		{"bad avro codec", func(c *Config) { c.Output.Avro.Codec = "zstandard" }},
		{"bad parquet codec", func(c *Config) { c.Output.Parquet.Compression = "lzo" }},
		{"no id columns", func(c *Config) { c.Reshape.IDColumns = nil }},
		{"no category columns", func(c *Config) { c.Reshape.CategoryColumns = []string{} }},
		{"empty delimiter", func(c *Config) { c.Reshape.CellDelimiter = "" }},
		{"overlap", func(c *Config) { c.Reshape.CategoryColumns = []string{"Id", "Happy"} }},
		{"duplicate", func(c *Config) { c.Reshape.CategoryColumns = []string{"Happy", "Happy"} }},
		{"negative preview", func(c *Config) { c.Observability.PreviewRows = -1 }},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, rerrors.IsType(err, rerrors.ErrorTypeConfig), err.Error())
			assert.Equal(t, rerrors.ExitConfig, rerrors.ExitCode(err))
		})
	}
}

func TestSeparatorRune(t *testing.T) {
	r, err := SeparatorRune(";")
	require.NoError(t, err)
	assert.Equal(t, ';', r)

	r, err = SeparatorRune(`\t`)
	require.NoError(t, err)
	assert.Equal(t, '\t', r)

	_, err = SeparatorRune("")
	assert.Error(t, err)
	_, err = SeparatorRune("\n")
	assert.Error(t, err)
}

func TestReadFileWithEnvSubstitution(t *testing.T) {
	t.Setenv("RESHAPE_TEST_TABLE", "emotions")

	dir := t.TempDir()
	path := filepath.Join(dir, "reshape.yaml")
	content := `
input:
  path: exports/wide.csv
output:
  path: out.jsonl
  postgres:
    table: ${RESHAPE_TEST_TABLE}
reshape:
  category_columns: [Neutral, Happy]
  cell_delimiter: "|"
timeout: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := NewViper()
	require.NoError(t, ReadFile(v, path))
	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "exports/wide.csv", cfg.Input.Path)
	assert.Equal(t, ",", cfg.Input.Separator, "unset keys keep defaults")
	assert.Equal(t, "out.jsonl", cfg.Output.Path)
	assert.Equal(t, "emotions", cfg.Output.Postgres.Table)
	assert.Equal(t, []string{"Neutral", "Happy"}, cfg.Reshape.CategoryColumns)
	assert.Equal(t, DefaultIDColumns, cfg.Reshape.IDColumns)
	assert.Equal(t, "|", cfg.Reshape.CellDelimiter)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestReadFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	v := NewViper()
	require.NoError(t, ReadFile(v, path))
	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("A", "1")
	assert.Equal(t, "x=1 y= z", substituteEnvVars("x=${A} y=${RESHAPE_UNSET_VAR} z"))
	assert.Equal(t, "open ${A", substituteEnvVars("open ${A"))
}

func TestCleanList(t *testing.T) {
	assert.Equal(t, []string{"Id", "Nome"}, CleanList([]string{"Id", " Nome ", "", "  "}))
	assert.Empty(t, CleanList(nil))
}
