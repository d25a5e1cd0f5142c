package sink

import (
	"context"
	"strconv"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/logger"
)

// gcsSink writes the payload through a single object writer. GCS only
// publishes an object when its writer closes successfully; cancelling the
// writer's context abandons the upload.
type gcsSink struct {
	bucket string
	key    string
	client *storage.Client
}

func newGCSSink(ctx context.Context, bucket, key string, cfg config.GCSConfig) (*gcsSink, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create GCS client")
	}
	return &gcsSink{bucket: bucket, key: key, client: client}, nil
}

func (s *gcsSink) Scheme() Scheme { return SchemeGCS }

func (s *gcsSink) Close() error { return s.client.Close() }

func (s *gcsSink) Write(ctx context.Context, out *Output) (*Receipt, error) {
	data, err := out.Payload()
	if err != nil {
		return nil, err
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := s.client.Bucket(s.bucket).Object(s.key).NewWriter(wctx)
	writer.ContentType = out.ContentType()
	writer.ContentEncoding = out.ContentEncoding()
	writer.Metadata = map[string]string{
		"rows":      strconv.Itoa(out.Result.Len()),
		"positions": strconv.Itoa(out.Result.N()),
		"format":    string(out.Encoder.Format()),
	}

	if _, err := writer.Write(data); err != nil {
		cancel()
		_ = writer.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to write to GCS").
			WithDetail("bucket", s.bucket).
			WithDetail("object", s.key)
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to finalize GCS object").
			WithDetail("bucket", s.bucket).
			WithDetail("object", s.key)
	}

	location := "gs://" + s.bucket + "/" + s.key
	logger.WithContext(ctx).Info("output committed",
		zap.String("location", location),
		zap.Int("bytes", len(data)))

	return &Receipt{Location: location, Bytes: int64(len(data)), Rows: out.Result.Len()}, nil
}
