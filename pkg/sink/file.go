package sink

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/logger"
)

// fileSink writes a local file through a temporary sibling and a rename, so
// readers see either the previous file or the complete new one.
type fileSink struct {
	path string
}

func newFileSink(path string) *fileSink {
	return &fileSink{path: path}
}

func (s *fileSink) Scheme() Scheme { return SchemeFile }

func (s *fileSink) Close() error { return nil }

func (s *fileSink) Write(ctx context.Context, out *Output) (*Receipt, error) {
	data, err := out.Payload()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "write cancelled")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to create output directory").
			WithDetail("path", s.path)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to create temp file").
			WithDetail("path", s.path)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName) // best-effort cleanup
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to sync temp file")
	}
	if err := tmp.Chmod(0o644); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to set file mode")
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to move output into place").
			WithDetail("path", s.path)
	}
	committed = true

	logger.WithContext(ctx).Info("output committed",
		zap.String("path", s.path),
		zap.Int("bytes", len(data)))

	return &Receipt{Location: s.path, Bytes: int64(len(data)), Rows: out.Result.Len()}, nil
}
