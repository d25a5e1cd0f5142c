package config

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ajitpratap0/reshape/pkg/compression"
	rerrors "github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/reshape"
)

// Defaults mirror the layout of the emotion-recognition exports reshape was
// written for.
var (
	DefaultIDColumns = reshape.DefaultOptions().IDColumns

	DefaultCategoryColumns = reshape.DefaultOptions().CategoryColumns
)

const (
	DefaultInputPath       = "resultado.csv"
	DefaultOutputPath      = "resultado_c.csv"
	DefaultInputSeparator  = ","
	DefaultOutputSeparator = ";"
	DefaultCellDelimiter   = ";"
	DefaultCategoryColumn  = "Emocao"
	DefaultPositionPrefix  = "T_"
	DefaultPreviewRows     = 5
	DefaultTimeout         = 30 * time.Minute
)

// Config is the complete configuration of a reshape run. It is assembled by
// the CLI from defaults, an optional YAML file, RESHAPE_* environment
// variables and flags, in increasing order of precedence.
type Config struct {
	// Input describes where the wide table is read from
	Input InputConfig `yaml:"input" mapstructure:"input"`

	// Output describes the encoding and destination of the long table
	Output OutputConfig `yaml:"output" mapstructure:"output"`

	// Reshape holds the column layout of the transform
	Reshape ReshapeConfig `yaml:"reshape" mapstructure:"reshape"`

	// Observability controls logging, tracing, metrics and the summary
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`

	// Timeout bounds the whole run
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// DryRun transforms and summarises without writing anything
	DryRun bool `yaml:"dry_run" mapstructure:"dry_run"`
}

// InputConfig contains settings for reading the source table.
type InputConfig struct {
	// Path to the delimited text file, or "-" for stdin
	Path string `yaml:"path" mapstructure:"path"`
	// Separator is the single-character field separator
	Separator string `yaml:"separator" mapstructure:"separator"`
	// LazyQuotes tolerates bare quotes inside unquoted fields
	LazyQuotes bool `yaml:"lazy_quotes" mapstructure:"lazy_quotes"`
	// Compression overrides suffix detection (auto, none, gzip, zstd, lz4, snappy, s2)
	Compression string `yaml:"compression" mapstructure:"compression"`
}

// ReshapeConfig names the identifier and category columns and how category
// cells are split.
type ReshapeConfig struct {
	IDColumns       []string `yaml:"id_columns" mapstructure:"id_columns"`
	CategoryColumns []string `yaml:"category_columns" mapstructure:"category_columns"`
	CellDelimiter   string   `yaml:"cell_delimiter" mapstructure:"cell_delimiter"`
	CategoryColumn  string   `yaml:"category_column" mapstructure:"category_column"`
	PositionPrefix  string   `yaml:"position_prefix" mapstructure:"position_prefix"`
}

// ObservabilityConfig contains logging and diagnostics settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// LogEncoding is console or json
	LogEncoding string `yaml:"log_encoding" mapstructure:"log_encoding"`
	// Trace prints one span per stage to stderr
	Trace bool `yaml:"trace" mapstructure:"trace"`
	// MetricsFile receives a Prometheus text exposition after the run
	MetricsFile string `yaml:"metrics_file" mapstructure:"metrics_file"`
	// PreviewRows is the number of output rows shown in the summary; 0 disables it
	PreviewRows int `yaml:"preview_rows" mapstructure:"preview_rows"`
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path:        DefaultInputPath,
			Separator:   DefaultInputSeparator,
			Compression: "auto",
		},
		Output: OutputConfig{
			Path:        DefaultOutputPath,
			Format:      "auto",
			Separator:   DefaultOutputSeparator,
			Compression: "auto",
			Level:       int(compression.Default),
			Avro:        AvroConfig{Codec: "deflate"},
			Parquet:     ParquetConfig{Compression: "snappy"},
		},
		Reshape: ReshapeConfig{
			IDColumns:       append([]string(nil), DefaultIDColumns...),
			CategoryColumns: append([]string(nil), DefaultCategoryColumns...),
			CellDelimiter:   DefaultCellDelimiter,
			CategoryColumn:  DefaultCategoryColumn,
			PositionPrefix:  DefaultPositionPrefix,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "warn",
			LogEncoding: "console",
			PreviewRows: DefaultPreviewRows,
		},
		Timeout: DefaultTimeout,
	}
}

// Validate checks the configuration and returns an ErrorTypeConfig error
// describing the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input.Path) == "" {
		return configErr("input.path is required")
	}
	if _, err := SeparatorRune(c.Input.Separator); err != nil {
		return rerrors.Wrap(err, rerrors.ErrorTypeConfig, "input.separator")
	}
	if _, err := compression.ParseAlgorithm(c.Input.Compression); err != nil {
		return rerrors.Wrap(err, rerrors.ErrorTypeConfig, "input.compression")
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if err := c.Reshape.Validate(); err != nil {
		return err
	}
	if c.Observability.PreviewRows < 0 {
		return configErr("observability.preview_rows cannot be negative")
	}
	if c.Timeout < 0 {
		return configErr("timeout cannot be negative")
	}
	return nil
}

// Options converts the section into transform options.
func (r *ReshapeConfig) Options() reshape.Options {
	return reshape.Options{
		IDColumns:       r.IDColumns,
		CategoryColumns: r.CategoryColumns,
		CellDelimiter:   r.CellDelimiter,
		CategoryColumn:  r.CategoryColumn,
		PositionPrefix:  r.PositionPrefix,
	}
}

// Validate checks the column lists, delimiter and output column names.
func (r *ReshapeConfig) Validate() error {
	return r.Options().Validate()
}

// SeparatorRune converts a separator setting into the rune encoding/csv
// expects. "\t" and "tab" both mean a tab character.
func SeparatorRune(s string) (rune, error) {
	switch s {
	case `\t`, "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("separator must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid separator %q", s)
	}
	return r, nil
}

// CleanList trims blanks around every entry of a column list and drops
// empty entries. Flags and environment values split on commas only.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func configErr(msg string) error {
	return rerrors.New(rerrors.ErrorTypeConfig, msg)
}
