// Package sink commits a reshaped table to its destination in one step.
// A sink either stores the complete output or stores nothing: payloads are
// encoded in memory before any destination is touched.
package sink

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/ajitpratap0/reshape/pkg/compression"
	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/formats"
	"github.com/ajitpratap0/reshape/pkg/reshape"
)

// Scheme identifies a destination kind.
type Scheme string

const (
	SchemeFile     Scheme = "file"
	SchemeS3       Scheme = "s3"
	SchemeGCS      Scheme = "gs"
	SchemePostgres Scheme = "postgres"
)

// Schemes lists the supported destination kinds.
func Schemes() []Scheme {
	return []Scheme{SchemeFile, SchemeS3, SchemeGCS, SchemePostgres}
}

// Output is everything a sink needs to commit a result.
type Output struct {
	Result     *reshape.Result
	Encoder    formats.Encoder
	Compressor compression.Compressor
}

// Payload encodes and compresses the result into memory.
func (o *Output) Payload() ([]byte, error) {
	var buf bytes.Buffer
	if err := o.Encoder.Encode(&buf, o.Result); err != nil {
		return nil, errors.Unexpected(err, "failed to encode "+string(o.Encoder.Format())+" output")
	}
	if o.Compressor == nil || o.Compressor.Algorithm() == compression.None {
		return buf.Bytes(), nil
	}
	data, err := o.Compressor.Compress(buf.Bytes())
	if err != nil {
		return nil, errors.Unexpected(err, "failed to compress output")
	}
	return data, nil
}

// ContentType returns the MIME type of the payload.
func (o *Output) ContentType() string {
	if info := formats.GetFormatInfo(o.Encoder.Format()); info != nil {
		return info.MIMEType
	}
	return "application/octet-stream"
}

// ContentEncoding returns the HTTP content encoding of the payload.
func (o *Output) ContentEncoding() string {
	if o.Compressor == nil {
		return ""
	}
	return compression.ContentEncoding(o.Compressor.Algorithm())
}

// Receipt describes a committed output.
type Receipt struct {
	// Location is where the output landed: a path, an object URL or a table name
	Location string
	Bytes    int64
	Rows     int
}

// Sink commits an output exactly once.
type Sink interface {
	// Write commits out. On error nothing is left at the destination.
	Write(ctx context.Context, out *Output) (*Receipt, error)
	// Scheme returns the destination kind
	Scheme() Scheme
	// Close releases clients held by the sink
	Close() error
}

// SchemeOf classifies an output path.
func SchemeOf(path string) Scheme {
	i := strings.Index(path, "://")
	if i <= 0 {
		return SchemeFile
	}
	switch strings.ToLower(path[:i]) {
	case "s3":
		return SchemeS3
	case "gs", "gcs":
		return SchemeGCS
	case "postgres", "postgresql":
		return SchemePostgres
	case "file":
		return SchemeFile
	default:
		return Scheme(strings.ToLower(path[:i]))
	}
}

// New creates the sink for cfg.Path. Remote clients connect here; postgres
// sinks open their connection immediately.
func New(ctx context.Context, cfg *config.OutputConfig) (Sink, error) {
	switch scheme := SchemeOf(cfg.Path); scheme {
	case SchemeFile:
		return newFileSink(strings.TrimPrefix(cfg.Path, "file://")), nil
	case SchemeS3:
		bucket, key, err := splitObjectURL(cfg.Path)
		if err != nil {
			return nil, err
		}
		return newS3Sink(ctx, bucket, key, cfg.S3)
	case SchemeGCS:
		bucket, key, err := splitObjectURL(cfg.Path)
		if err != nil {
			return nil, err
		}
		return newGCSSink(ctx, bucket, key, cfg.GCS)
	case SchemePostgres:
		return newPostgresSink(ctx, cfg.Path, cfg.Postgres)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported output scheme %q", scheme)
	}
}

// splitObjectURL parses scheme://bucket/key.
func splitObjectURL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", errors.Wrap(err, errors.ErrorTypeConfig, "invalid output URL")
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", errors.Newf(errors.ErrorTypeConfig, "output URL %q must name a bucket and an object key", raw)
	}
	return bucket, key, nil
}
