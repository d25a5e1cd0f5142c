package config

import (
	"strings"

	"github.com/ajitpratap0/reshape/pkg/compression"
	rerrors "github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/formats"
)

// OutputConfig contains the encoding and destination of the long table.
type OutputConfig struct {
	// Path is a local file, s3://bucket/key, gs://bucket/object or a postgres:// URL
	Path string `yaml:"path" mapstructure:"path"`
	// Format is auto, csv, jsonl, avro or parquet
	Format string `yaml:"format" mapstructure:"format"`
	// Separator is the csv field separator
	Separator string `yaml:"separator" mapstructure:"separator"`
	// Missing is written by the csv encoder for absent positional values
	Missing string `yaml:"missing" mapstructure:"missing"`
	// Compression overrides suffix detection for csv and jsonl payloads
	Compression string `yaml:"compression" mapstructure:"compression"`
	// Level is the compression level (1 fastest, 5 default, 7 better, 9 best)
	Level int `yaml:"level" mapstructure:"level"`

	Avro     AvroConfig     `yaml:"avro" mapstructure:"avro"`
	Parquet  ParquetConfig  `yaml:"parquet" mapstructure:"parquet"`
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
	S3       S3Config       `yaml:"s3" mapstructure:"s3"`
	GCS      GCSConfig      `yaml:"gcs" mapstructure:"gcs"`
}

// AvroConfig contains settings for the avro container writer.
type AvroConfig struct {
	// Codec is null, deflate or snappy
	Codec string `yaml:"codec" mapstructure:"codec"`
}

// ParquetConfig contains settings for the parquet writer.
type ParquetConfig struct {
	// Compression is none, snappy, gzip or zstd
	Compression string `yaml:"compression" mapstructure:"compression"`
}

// PostgresConfig contains settings for postgres:// outputs.
type PostgresConfig struct {
	// Table receives the rows; the ?table= query parameter takes precedence
	Table string `yaml:"table" mapstructure:"table"`
	// Truncate empties the table inside the load transaction
	Truncate bool `yaml:"truncate" mapstructure:"truncate"`
}

// S3Config contains settings for s3:// outputs. Credentials come from the
// default AWS chain.
type S3Config struct {
	Region       string `yaml:"region" mapstructure:"region"`
	Endpoint     string `yaml:"endpoint" mapstructure:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style" mapstructure:"use_path_style"`
}

// GCSConfig contains settings for gs:// outputs.
type GCSConfig struct {
	// CredentialsFile is a service account key; empty uses application default credentials
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
}

var (
	avroCodecs    = map[string]bool{"null": true, "deflate": true, "snappy": true}
	parquetCodecs = map[string]bool{"none": true, "snappy": true, "gzip": true, "zstd": true}
)

// Validate checks the output section.
func (o *OutputConfig) Validate() error {
	if strings.TrimSpace(o.Path) == "" {
		return configErr("output.path is required")
	}
	if o.Format != "" && o.Format != "auto" && !formats.IsRegistered(o.Format) {
		return rerrors.Newf(rerrors.ErrorTypeConfig, "unknown output format %q (known: %s)",
			o.Format, strings.Join(formats.Names(), ", "))
	}
	if _, err := SeparatorRune(o.Separator); err != nil {
		return rerrors.Wrap(err, rerrors.ErrorTypeConfig, "output.separator")
	}
	if _, err := compression.ParseAlgorithm(o.Compression); err != nil {
		return rerrors.Wrap(err, rerrors.ErrorTypeConfig, "output.compression")
	}
	if o.Level < 0 || o.Level > int(compression.Best) {
		return rerrors.Newf(rerrors.ErrorTypeConfig, "output.level must be between 1 and %d", compression.Best)
	}
	if o.Avro.Codec != "" && !avroCodecs[o.Avro.Codec] {
		return rerrors.Newf(rerrors.ErrorTypeConfig, "unsupported avro codec %q", o.Avro.Codec)
	}
	if o.Parquet.Compression != "" && !parquetCodecs[o.Parquet.Compression] {
		return rerrors.Newf(rerrors.ErrorTypeConfig, "unsupported parquet compression %q", o.Parquet.Compression)
	}
	return nil
}
