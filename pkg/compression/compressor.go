// Package compression wraps the codecs reshape can read input from and write
// output to. Every algorithm produces a standard framed stream, so a file
// written here can be read back by the matching command-line tool (gzip,
// zstd, lz4, snzip) as well as by NewReader.
//
// # Basic Usage
//
//	comp, err := compression.NewCompressor(&compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Default,
//	})
//	compressed, err := comp.Compress(payload)
//
// The algorithm for a path is usually derived from its suffix:
//
//	alg := compression.FromPath("resultado_c.csv.gz") // compression.Gzip
package compression

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
)

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

var extensions = map[string]Algorithm{
	".gz":     Gzip,
	".gzip":   Gzip,
	".zst":    Zstd,
	".zstd":   Zstd,
	".lz4":    LZ4,
	".sz":     Snappy,
	".snappy": Snappy,
	".s2":     S2,
}

// Algorithms lists every supported algorithm, None first.
func Algorithms() []Algorithm {
	return []Algorithm{None, Gzip, Zstd, LZ4, Snappy, S2}
}

// ParseAlgorithm parses a user supplied algorithm name. The empty string and
// "auto" return ("", nil) so that callers can fall back to FromPath.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", "auto":
		return "", nil
	case "none", "off":
		return None, nil
	case "gz":
		return Gzip, nil
	case "zst":
		return Zstd, nil
	case "sz":
		return Snappy, nil
	default:
		for _, alg := range Algorithms() {
			if string(alg) == n {
				return alg, nil
			}
		}
		return "", fmt.Errorf("unsupported compression algorithm: %s", name)
	}
}

// FromPath derives the algorithm from a file suffix; unknown suffixes mean None.
func FromPath(path string) Algorithm {
	if alg, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return alg
	}
	return None
}

// StripExtension removes a recognised compression suffix, so "out.csv.gz"
// becomes "out.csv". Format detection runs on the result.
func StripExtension(path string) string {
	ext := filepath.Ext(path)
	if _, ok := extensions[strings.ToLower(ext)]; ok {
		return strings.TrimSuffix(path, ext)
	}
	return path
}

// Extension returns the conventional file suffix for an algorithm.
func Extension(alg Algorithm) string {
	switch alg {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	case LZ4:
		return ".lz4"
	case Snappy:
		return ".sz"
	case S2:
		return ".s2"
	default:
		return ""
	}
}

// ContentEncoding returns the HTTP Content-Encoding used when uploading
// objects compressed with alg.
func ContentEncoding(alg Algorithm) string {
	switch alg {
	case None, "":
		return ""
	default:
		return string(alg)
	}
}

// Compressor provides compression and decompression functionality.
type Compressor interface {
	// Compress compresses data and returns the compressed bytes.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data and returns the original bytes.
	Decompress(data []byte) ([]byte, error)

	// CompressStream compresses from reader to writer.
	CompressStream(dst io.Writer, src io.Reader) error

	// DecompressStream decompresses from reader to writer.
	DecompressStream(dst io.Writer, src io.Reader) error

	// Algorithm returns the compression algorithm used.
	Algorithm() Algorithm

	// Level returns the compression level configured.
	Level() Level
}

// Config represents compressor configuration.
type Config struct {
	Algorithm Algorithm // Compression algorithm to use
	Level     Level     // Compression level
}

// DefaultConfig returns the configuration used when none is given: no compression.
func DefaultConfig() *Config {
	return &Config{
		Algorithm: None,
		Level:     Default,
	}
}

// NewCompressor creates a new compressor based on the provided configuration.
// If config is nil, default configuration is used.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	level := config.Level
	if level == 0 {
		level = Default
	}

	base := baseCompressor{algorithm: config.Algorithm, level: level}

	switch config.Algorithm {
	case None, "":
		base.algorithm = None
		return &streamCompressor{baseCompressor: base, newWriter: nopWriter, newReader: nopReader}, nil
	case Gzip:
		return &streamCompressor{
			baseCompressor: base,
			newWriter: func(w io.Writer) (io.WriteCloser, error) {
				return gzip.NewWriterLevel(w, mapGzipLevel(level))
			},
			newReader: func(r io.Reader) (io.ReadCloser, error) {
				return gzip.NewReader(r)
			},
		}, nil
	case Snappy:
		return &streamCompressor{
			baseCompressor: base,
			newWriter: func(w io.Writer) (io.WriteCloser, error) {
				return snappy.NewBufferedWriter(w), nil
			},
			newReader: func(r io.Reader) (io.ReadCloser, error) {
				return io.NopCloser(snappy.NewReader(r)), nil
			},
		}, nil
	case LZ4:
		return &streamCompressor{
			baseCompressor: base,
			newWriter: func(w io.Writer) (io.WriteCloser, error) {
				zw := lz4.NewWriter(w)
				if err := zw.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
					return nil, err
				}
				return zw, nil
			},
			newReader: func(r io.Reader) (io.ReadCloser, error) {
				return io.NopCloser(lz4.NewReader(r)), nil
			},
		}, nil
	case Zstd:
		return &streamCompressor{
			baseCompressor: base,
			newWriter: func(w io.Writer) (io.WriteCloser, error) {
				return zstd.NewWriter(w, zstd.WithEncoderLevel(mapZstdLevel(level)))
			},
			newReader: func(r io.Reader) (io.ReadCloser, error) {
				dec, err := zstd.NewReader(r)
				if err != nil {
					return nil, err
				}
				return dec.IOReadCloser(), nil
			},
		}, nil
	case S2:
		return &streamCompressor{
			baseCompressor: base,
			newWriter: func(w io.Writer) (io.WriteCloser, error) {
				return s2.NewWriter(w, mapS2Level(level)...), nil
			},
			newReader: func(r io.Reader) (io.ReadCloser, error) {
				return io.NopCloser(s2.NewReader(r)), nil
			},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", config.Algorithm)
	}
}

// NewReader wraps r with a decompressor for alg. None returns r unchanged.
func NewReader(r io.Reader, alg Algorithm) (io.ReadCloser, error) {
	c, err := NewCompressor(&Config{Algorithm: alg})
	if err != nil {
		return nil, err
	}
	return c.(*streamCompressor).newReader(r)
}

// Base compressor implementation
type baseCompressor struct {
	algorithm Algorithm
	level     Level
}

// Algorithm returns the compression algorithm
func (bc *baseCompressor) Algorithm() Algorithm {
	return bc.algorithm
}

// Level returns the compression level
func (bc *baseCompressor) Level() Level {
	return bc.level
}

// streamCompressor adapts a writer/reader pair to the Compressor interface.
type streamCompressor struct {
	baseCompressor
	newWriter func(io.Writer) (io.WriteCloser, error)
	newReader func(io.Reader) (io.ReadCloser, error)
}

func (sc *streamCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data) / 2)
	if err := sc.CompressStream(&buf, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (sc *streamCompressor) Decompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data) * 2)
	if err := sc.DecompressStream(&buf, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (sc *streamCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	w, err := sc.newWriter(dst)
	if err != nil {
		return fmt.Errorf("%s writer: %w", sc.algorithm, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (sc *streamCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	r, err := sc.newReader(src)
	if err != nil {
		return fmt.Errorf("%s reader: %w", sc.algorithm, err)
	}
	defer r.Close()

	_, err = io.Copy(dst, r) //nolint:gosec // G110: input files are operator supplied
	return err
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func nopWriter(w io.Writer) (io.WriteCloser, error) { return nopWriteCloser{w}, nil }

func nopReader(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(r), nil }

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapS2Level(level Level) []s2.WriterOption {
	switch level {
	case Better:
		return []s2.WriterOption{s2.WriterBetterCompression()}
	case Best:
		return []s2.WriterOption{s2.WriterBestCompression()}
	default:
		return nil
	}
}
