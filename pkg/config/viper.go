package config

import (
	"strings"

	"github.com/spf13/viper"

	rerrors "github.com/ajitpratap0/reshape/pkg/errors"
)

// EnvPrefix is prepended to every environment override, so output.path is
// read from RESHAPE_OUTPUT_PATH.
const EnvPrefix = "RESHAPE"

// SetDefaults registers every key of Default() with v. Environment overrides
// only apply to keys viper knows about.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("input.path", d.Input.Path)
	v.SetDefault("input.separator", d.Input.Separator)
	v.SetDefault("input.lazy_quotes", d.Input.LazyQuotes)
	v.SetDefault("input.compression", d.Input.Compression)

	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.separator", d.Output.Separator)
	v.SetDefault("output.missing", d.Output.Missing)
	v.SetDefault("output.compression", d.Output.Compression)
	v.SetDefault("output.level", d.Output.Level)
	v.SetDefault("output.avro.codec", d.Output.Avro.Codec)
	v.SetDefault("output.parquet.compression", d.Output.Parquet.Compression)
	v.SetDefault("output.postgres.table", d.Output.Postgres.Table)
	v.SetDefault("output.postgres.truncate", d.Output.Postgres.Truncate)
	v.SetDefault("output.s3.region", d.Output.S3.Region)
	v.SetDefault("output.s3.endpoint", d.Output.S3.Endpoint)
	v.SetDefault("output.s3.use_path_style", d.Output.S3.UsePathStyle)
	v.SetDefault("output.gcs.credentials_file", d.Output.GCS.CredentialsFile)

	v.SetDefault("reshape.id_columns", d.Reshape.IDColumns)
	v.SetDefault("reshape.category_columns", d.Reshape.CategoryColumns)
	v.SetDefault("reshape.cell_delimiter", d.Reshape.CellDelimiter)
	v.SetDefault("reshape.category_column", d.Reshape.CategoryColumn)
	v.SetDefault("reshape.position_prefix", d.Reshape.PositionPrefix)

	v.SetDefault("observability.log_level", d.Observability.LogLevel)
	v.SetDefault("observability.log_encoding", d.Observability.LogEncoding)
	v.SetDefault("observability.trace", d.Observability.Trace)
	v.SetDefault("observability.metrics_file", d.Observability.MetricsFile)
	v.SetDefault("observability.preview_rows", d.Observability.PreviewRows)

	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("dry_run", d.DryRun)
}

// NewViper returns a viper instance with defaults registered and RESHAPE_*
// environment overrides enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges a YAML file into v after ${VAR} substitution. Keys the
// file omits keep their defaults; flags and environment still win.
func ReadFile(v *viper.Viper, filePath string) error {
	settings, err := readYAML(filePath)
	if err != nil {
		return rerrors.Wrap(err, rerrors.ErrorTypeConfig, "config file "+filePath)
	}
	if err := v.MergeConfigMap(settings); err != nil {
		return rerrors.Wrap(err, rerrors.ErrorTypeConfig, "failed to merge config file "+filePath)
	}
	return nil
}

// FromViper decodes the merged settings of v. Every key has a default, so
// decoding starts from a zero Config and lists are replaced, not merged.
// Comma separated strings from the environment become column lists and
// durations accept "30m" syntax. Column names are trimmed, so "Id, Nome"
// names the columns Id and Nome.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, rerrors.Wrap(err, rerrors.ErrorTypeConfig, "failed to decode configuration")
	}
	cfg.Reshape.IDColumns = CleanList(cfg.Reshape.IDColumns)
	cfg.Reshape.CategoryColumns = CleanList(cfg.Reshape.CategoryColumns)
	return cfg, nil
}
