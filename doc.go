// Package reshape converts wide time-series tables into long format.
//
// The input has one row per record and one column per measured category,
// each category cell holding a delimited series such as "0.1;0.2;0.3;". The
// output has one row per record and category: the identifier columns, a
// category-name column and the series spread over positional columns
// T_1..T_N, where N is the longest series in the file. Shorter series leave
// their trailing positions missing.
//
// # Quick Start
//
//	reshape run --input resultado.csv --output resultado_c.csv
//
// or, from Go:
//
//	in, err := table.Read(ctx, "resultado.csv", table.Options{})
//	res, err := reshape.Reshape(ctx, in, reshape.DefaultOptions())
//	enc, err := formats.New(formats.CSV, formats.DefaultWriterConfig())
//	err = enc.Encode(os.Stdout, res)
//
// # Key Packages
//
//	pkg/reshape       - The transform: validate, melt, split, assemble
//	pkg/table         - Delimited input, with transparent decompression
//	pkg/formats       - csv, jsonl, avro and parquet encoders
//	pkg/sink          - All-or-nothing commit to files, S3, GCS and PostgreSQL
//	pkg/compression   - gzip, zstd, lz4, snappy and s2 codecs
//	pkg/config        - Configuration struct, YAML loading, viper binding
//	pkg/errors        - Structured errors and exit codes
//	pkg/logger        - Structured logging
//	pkg/metrics       - Prometheus metrics for a run
//	pkg/observability - OpenTelemetry spans per stage
//	pkg/summary       - Operator summary and preview
//	internal/pipeline - Read, reshape, write orchestration
//
// # Exit Codes
//
//	0  success
//	1  transform or write failure
//	2  configuration error
//	3  input not found or unreadable
//	4  configured column missing from the input
package reshape
