package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/reshape/pkg/compression"
	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/formats"
	"github.com/ajitpratap0/reshape/pkg/logger"
	"github.com/ajitpratap0/reshape/pkg/sink"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and maps the outcome to an exit status.
// Errors are reported here and nowhere else.
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return errors.ExitOK
	}

	fields := []zap.Field{zap.Error(err)}
	if col, ok := errors.MissingColumnName(err); ok {
		fields = append(fields, zap.String("column", col))
	}
	logger.Get().Error("reshape failed", fields...)
	_ = logger.Sync()

	fmt.Fprintf(stderr, "reshape: %v\n", err)
	return errors.ExitCode(err)
}

type app struct {
	stdout io.Writer
	stderr io.Writer

	v          *viper.Viper
	configFile string
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, v: config.NewViper()}

	root := &cobra.Command{
		Use:   "reshape",
		Short: "Reshape wide time-series tables into long format",
		Long: `reshape reads a table with one column per category, each cell holding a
delimited series of values, and writes one row per record and category with
the series spread over positional columns T_1..T_N.

Settings come from flags, RESHAPE_* environment variables, an optional YAML
file given with --config, and built-in defaults, in that order.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          a.runE,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid flags")
	})

	a.bindFlags(root.PersistentFlags())

	// Main run command; the root runs it too when no subcommand is given
	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Reshape the input table and write the result",
		Example: `  reshape run --input resultado.csv --output resultado_c.csv
  reshape run -i wide.csv.gz -o s3://bucket/long.parquet
  reshape run -i wide.csv -o "postgres://localhost/db?table=emotions" --truncate`,
		Args: cobra.NoArgs,
		RunE: a.runE,
	})

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "reshape v%s\n", version)
			fmt.Fprintf(stdout, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(stdout, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// Formats command to show what the writer supports
	root.AddCommand(&cobra.Command{
		Use:   "formats",
		Short: "List output formats, compression algorithms and destinations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFormats(stdout)
		},
	})

	return root
}

// bindFlags declares every run flag and binds it to its configuration key.
func (a *app) bindFlags(fs *pflag.FlagSet) {
	d := config.Default()

	fs.StringVarP(&a.configFile, "config", "c", "", "YAML configuration file (or RESHAPE_CONFIG)")
	fs.BoolVarP(&a.verbose, "verbose", "v", false, "Log stage progress to stderr")

	fs.StringP("input", "i", d.Input.Path, "Input table, \"-\" for stdin")
	fs.String("input-separator", d.Input.Separator, "Input field separator")
	fs.String("input-compression", d.Input.Compression, "Input compression (auto, none, gzip, zstd, lz4, snappy, s2)")
	fs.Bool("lazy-quotes", d.Input.LazyQuotes, "Tolerate bare quotes in unquoted input fields")

	fs.StringP("output", "o", d.Output.Path, "Output file, s3://bucket/key, gs://bucket/object or postgres:// URL")
	fs.StringP("format", "f", d.Output.Format, "Output format (auto, "+strings.Join(formats.Names(), ", ")+")")
	fs.String("separator", d.Output.Separator, "Output field separator for csv")
	fs.String("missing", d.Output.Missing, "Marker written for missing values in csv")
	fs.String("compression", d.Output.Compression, "Output compression (auto, none, gzip, zstd, lz4, snappy, s2)")
	fs.Int("level", d.Output.Level, "Compression level (1 fastest, 5 default, 7 better, 9 best)")
	fs.String("avro-codec", d.Output.Avro.Codec, "Avro block codec (null, deflate, snappy)")
	fs.String("parquet-compression", d.Output.Parquet.Compression, "Parquet compression (none, snappy, gzip, zstd)")
	fs.String("table", d.Output.Postgres.Table, "Destination table for postgres outputs")
	fs.Bool("truncate", d.Output.Postgres.Truncate, "Empty the postgres table before loading")
	fs.String("s3-region", d.Output.S3.Region, "AWS region for s3 outputs")
	fs.String("s3-endpoint", d.Output.S3.Endpoint, "Custom S3 endpoint")
	fs.Bool("s3-path-style", d.Output.S3.UsePathStyle, "Use path-style S3 addressing")
	fs.String("gcs-credentials", d.Output.GCS.CredentialsFile, "Service account key for gs outputs")

	fs.StringSlice("id-columns", d.Reshape.IDColumns, "Identifier columns copied to every output row")
	fs.StringSlice("category-columns", d.Reshape.CategoryColumns, "Category columns holding delimited series")
	fs.String("delimiter", d.Reshape.CellDelimiter, "Delimiter inside category cells")
	fs.String("category-column", d.Reshape.CategoryColumn, "Name of the output category column")
	fs.String("position-prefix", d.Reshape.PositionPrefix, "Prefix of the positional output columns")

	fs.String("log-level", d.Observability.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", d.Observability.LogEncoding, "Log encoding (console, json)")
	fs.Bool("trace", d.Observability.Trace, "Print a trace span per stage to stderr")
	fs.String("metrics-file", d.Observability.MetricsFile, "Write Prometheus metrics to this file after the run")
	fs.Int("preview", d.Observability.PreviewRows, "Output rows shown in the summary, 0 to disable")

	fs.Duration("timeout", d.Timeout, "Overall run timeout")
	fs.Bool("dry-run", d.DryRun, "Transform and summarise without writing output")

	for key, flag := range map[string]string{
		"input.path":                  "input",
		"input.separator":             "input-separator",
		"input.compression":           "input-compression",
		"input.lazy_quotes":           "lazy-quotes",
		"output.path":                 "output",
		"output.format":               "format",
		"output.separator":            "separator",
		"output.missing":              "missing",
		"output.compression":          "compression",
		"output.level":                "level",
		"output.avro.codec":           "avro-codec",
		"output.parquet.compression":  "parquet-compression",
		"output.postgres.table":       "table",
		"output.postgres.truncate":    "truncate",
		"output.s3.region":            "s3-region",
		"output.s3.endpoint":          "s3-endpoint",
		"output.s3.use_path_style":    "s3-path-style",
		"output.gcs.credentials_file": "gcs-credentials",
		"reshape.id_columns":          "id-columns",
		"reshape.category_columns":    "category-columns",
		"reshape.cell_delimiter":      "delimiter",
		"reshape.category_column":     "category-column",
		"reshape.position_prefix":     "position-prefix",
		"observability.log_level":     "log-level",
		"observability.log_encoding":  "log-format",
		"observability.trace":         "trace",
		"observability.metrics_file":  "metrics-file",
		"observability.preview_rows":  "preview",
		"timeout":                     "timeout",
		"dry_run":                     "dry-run",
	} {
		_ = a.v.BindPFlag(key, fs.Lookup(flag))
	}
}

// loadConfig merges the config file into the flag and environment layers
// and validates the result.
func (a *app) loadConfig() (*config.Config, error) {
	path := a.configFile
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "_CONFIG")
	}
	if path != "" {
		if err := config.ReadFile(a.v, path); err != nil {
			return nil, err
		}
	}

	cfg, err := config.FromViper(a.v)
	if err != nil {
		return nil, err
	}
	if a.verbose && cfg.Observability.LogLevel == "warn" {
		cfg.Observability.LogLevel = "info"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func listFormats(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "Output formats:")
	for _, name := range formats.Names() {
		info := formats.GetFormatInfo(formats.Format(name))
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", name, info.FileExtension, info.Description)
	}

	fmt.Fprintln(tw, "\nCompression:")
	for _, alg := range compression.Algorithms() {
		fmt.Fprintf(tw, "  %s\t%s\n", alg, compression.Extension(alg))
	}

	fmt.Fprintln(tw, "\nDestinations:")
	for _, s := range sink.Schemes() {
		fmt.Fprintf(tw, "  %s\n", s)
	}
	return tw.Flush()
}
