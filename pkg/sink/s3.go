package sink

import (
	"bytes"
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/logger"
)

// s3Uploader is the part of manager.Uploader the sink uses.
type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// s3Sink uploads the payload as a single object. The uploader aborts a
// failed multipart upload, so no partial object becomes visible.
type s3Sink struct {
	bucket   string
	key      string
	uploader s3Uploader
}

func newS3Sink(ctx context.Context, bucket, key string, cfg config.S3Config) (*s3Sink, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &s3Sink{
		bucket:   bucket,
		key:      key,
		uploader: manager.NewUploader(client),
	}, nil
}

func (s *s3Sink) Scheme() Scheme { return SchemeS3 }

func (s *s3Sink) Close() error { return nil }

func (s *s3Sink) Write(ctx context.Context, out *Output) (*Receipt, error) {
	data, err := out.Payload()
	if err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(out.ContentType()),
		Metadata: map[string]string{
			"rows":      strconv.Itoa(out.Result.Len()),
			"positions": strconv.Itoa(out.Result.N()),
			"format":    string(out.Encoder.Format()),
		},
	}
	if enc := out.ContentEncoding(); enc != "" {
		input.ContentEncoding = aws.String(enc)
	}

	result, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to upload to S3").
			WithDetail("bucket", s.bucket).
			WithDetail("key", s.key)
	}

	location := "s3://" + s.bucket + "/" + s.key
	logger.WithContext(ctx).Info("output committed",
		zap.String("location", result.Location),
		zap.Int("bytes", len(data)))

	return &Receipt{Location: location, Bytes: int64(len(data)), Rows: out.Result.Len()}, nil
}
