// Package formats encodes a reshaped table into the payload a sink commits.
// Encoders write the whole table in one call; nothing is streamed.
package formats

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ajitpratap0/reshape/pkg/compression"
	"github.com/ajitpratap0/reshape/pkg/reshape"
)

// Format represents an output format
type Format string

const (
	// CSV is delimited text with a header row
	CSV Format = "csv"
	// JSONL is one JSON object per line
	JSONL Format = "jsonl"
	// Avro is an Avro object container file
	Avro Format = "avro"
	// Parquet is Apache Parquet
	Parquet Format = "parquet"
)

// Encoder writes a complete result to w.
type Encoder interface {
	// Encode writes header (where the format has one) and every row
	Encode(w io.Writer, res *reshape.Result) error
	// Format returns the format written
	Format() Format
}

// WriterConfig configures encoders. Each encoder reads the fields it needs.
type WriterConfig struct {
	// Comma is the csv field separator; zero means ';'
	Comma rune
	// Missing is written by csv for absent positional values
	Missing string
	// Compression is the container codec for avro (null, deflate, snappy)
	// and parquet (none, snappy, gzip, zstd)
	Compression string
}

// DefaultWriterConfig returns default writer configuration
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{Comma: ';'}
}

// Factory builds an encoder from configuration.
type Factory func(cfg *WriterConfig) (Encoder, error)

// FormatInfo provides information about a format
type FormatInfo struct {
	Format        Format
	Name          string
	Description   string
	FileExtension string
	MIMEType      string
	// Compressible is false for formats that carry their own block codec
	Compressible bool
}

type registration struct {
	info    FormatInfo
	factory Factory
}

var (
	mu       sync.RWMutex
	registry = make(map[Format]registration)
)

// Register makes a format available by name. It fails on duplicates.
func Register(info FormatInfo, factory Factory) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[info.Format]; exists {
		return fmt.Errorf("format %s already registered", info.Format)
	}
	registry[info.Format] = registration{info: info, factory: factory}
	return nil
}

func init() {
	for _, r := range []struct {
		info    FormatInfo
		factory Factory
	}{
		{FormatInfo{CSV, "CSV", "Delimited text with a header row", ".csv", "text/csv", true}, newCSVEncoder},
		{FormatInfo{JSONL, "JSON Lines", "One object per row, keys in column order", ".jsonl", "application/x-ndjson", true}, newJSONLEncoder},
		{FormatInfo{Avro, "Apache Avro", "Object container file, one record per row", ".avro", "application/avro", false}, newAvroEncoder},
		{FormatInfo{Parquet, "Apache Parquet", "Columnar file, string columns", ".parquet", "application/vnd.apache.parquet", false}, newParquetEncoder},
	} {
		if err := Register(r.info, r.factory); err != nil {
			panic(err)
		}
	}
}

// New creates the encoder registered for format.
func New(format Format, cfg *WriterConfig) (Encoder, error) {
	if cfg == nil {
		cfg = DefaultWriterConfig()
	}

	mu.RLock()
	r, ok := registry[format]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return r.factory(cfg)
}

// GetFormatInfo returns information about a registered format, or nil.
func GetFormatInfo(format Format) *FormatInfo {
	mu.RLock()
	defer mu.RUnlock()
	if r, ok := registry[format]; ok {
		info := r.info
		return &info
	}
	return nil
}

// Names lists registered formats in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for f := range registry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether name is a known format.
func IsRegistered(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[Format(name)]
	return ok
}

// FromPath infers the format from an output path, ignoring any compression
// suffix. Unknown suffixes mean CSV.
func FromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(compression.StripExtension(path))) {
	case ".jsonl", ".ndjson", ".json":
		return JSONL
	case ".avro":
		return Avro
	case ".parquet", ".pq":
		return Parquet
	default:
		return CSV
	}
}

// Resolve returns the explicit format when set, or the one inferred from path.
func Resolve(name, path string) (Format, error) {
	if name == "" || name == "auto" {
		return FromPath(path), nil
	}
	if !IsRegistered(name) {
		return "", fmt.Errorf("unsupported output format: %s", name)
	}
	return Format(name), nil
}
