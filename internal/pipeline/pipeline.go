// Package pipeline runs one reshape job end to end: read the wide table,
// reshape it, and commit the long table to its sink.
//
// Each stage runs inside a traced span and reports its duration to the
// metrics collector. Output settings are resolved before the input is read,
// and the sink is only opened once the transform has succeeded, so a failed
// run never touches the destination.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/reshape/pkg/compression"
	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/formats"
	"github.com/ajitpratap0/reshape/pkg/logger"
	"github.com/ajitpratap0/reshape/pkg/metrics"
	"github.com/ajitpratap0/reshape/pkg/observability"
	"github.com/ajitpratap0/reshape/pkg/reshape"
	"github.com/ajitpratap0/reshape/pkg/sink"
	"github.com/ajitpratap0/reshape/pkg/summary"
	"github.com/ajitpratap0/reshape/pkg/table"
)

// Stage names used for spans, logs and metrics.
const (
	StageRead    = "read"
	StageReshape = "reshape"
	StageWrite   = "write"
)

// Pipeline drives a single read, reshape, write cycle.
type Pipeline struct {
	cfg       *config.Config
	tracer    *observability.StageTracer
	collector *metrics.Collector

	// newSink is replaced in tests
	newSink func(ctx context.Context, cfg *config.OutputConfig) (sink.Sink, error)
}

// New creates a pipeline for a validated configuration. tracer and
// collector may be nil.
func New(cfg *config.Config, tracer *observability.StageTracer, collector *metrics.Collector) *Pipeline {
	if tracer == nil {
		tracer = observability.NewStageTracer("", nil)
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Pipeline{
		cfg:       cfg,
		tracer:    tracer,
		collector: collector,
		newSink:   sink.New,
	}
}

// Run executes the pipeline and returns the summary to show the operator.
// Nothing is written when an error is returned or when the run is a dry run.
func (p *Pipeline) Run(ctx context.Context) (*summary.Summary, error) {
	timer := metrics.NewTimer()

	w, err := NewWriter(p.cfg.Output)
	if err != nil {
		return nil, err
	}

	var in *table.Table
	err = p.tracer.Trace(ctx, StageRead, func(ctx context.Context) error {
		in, err = table.Read(logger.WithStage(ctx, StageRead), p.cfg.Input.Path, ReadOptions(p.cfg.Input))
		return err
	})
	if err != nil {
		return nil, err
	}

	var res *reshape.Result
	err = p.tracer.Trace(ctx, StageReshape, func(ctx context.Context) error {
		res, err = reshape.Reshape(logger.WithStage(ctx, StageReshape), in, p.cfg.Reshape.Options())
		return err
	})
	if err != nil {
		return nil, err
	}
	p.collector.RecordResult(res)

	sum := summary.New(p.cfg.Input.Path, res, p.cfg.Observability.PreviewRows)
	if p.cfg.DryRun {
		logger.WithContext(ctx).Info("dry run, skipping write")
		sum.DryRun = true
		sum.Elapsed = timer.Stop()
		return sum, nil
	}

	var receipt *sink.Receipt
	written := string(w.Format)
	err = p.tracer.Trace(ctx, StageWrite, func(ctx context.Context) error {
		ctx = logger.WithStage(ctx, StageWrite)
		snk, err := p.newSink(ctx, &p.cfg.Output)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := snk.Close(); cerr != nil {
				logger.WithContext(ctx).Warn("failed to close sink", zap.Error(cerr))
			}
		}()
		if snk.Scheme() == sink.SchemePostgres {
			written = string(sink.SchemePostgres)
		}
		receipt, err = snk.Write(ctx, w.Output(res))
		return err
	})
	if err != nil {
		return nil, err
	}
	p.collector.OutputBytes.Set(float64(receipt.Bytes))

	sum.Saved(receipt.Location, written, string(w.Compressor.Algorithm()), receipt.Bytes)
	sum.Elapsed = timer.Stop()
	return sum, nil
}

// ReadOptions converts the input section into table options. The section
// must already be validated.
func ReadOptions(in config.InputConfig) table.Options {
	comma, _ := config.SeparatorRune(in.Separator)
	alg, _ := compression.ParseAlgorithm(in.Compression)
	return table.Options{
		Comma:       comma,
		LazyQuotes:  in.LazyQuotes,
		Compression: alg,
	}
}

// Writer is the resolved encoding of an output.
type Writer struct {
	Format     formats.Format
	Encoder    formats.Encoder
	Compressor compression.Compressor
}

// Output pairs a result with the writer's encoder and compressor.
func (w *Writer) Output(res *reshape.Result) *sink.Output {
	return &sink.Output{Result: res, Encoder: w.Encoder, Compressor: w.Compressor}
}

// NewWriter resolves the format, encoder and payload compression of out.
// "auto" settings are inferred from the path suffix. Avro, parquet and
// postgres outputs are never compressed; asking for it is a config error.
func NewWriter(out config.OutputConfig) (*Writer, error) {
	format, err := formats.Resolve(out.Format, out.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "output.format")
	}

	wc := formats.DefaultWriterConfig()
	wc.Missing = out.Missing
	if wc.Comma, err = config.SeparatorRune(out.Separator); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "output.separator")
	}
	switch format {
	case formats.Avro:
		wc.Compression = out.Avro.Codec
	case formats.Parquet:
		wc.Compression = out.Parquet.Compression
	}
	enc, err := formats.New(format, wc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "output encoder")
	}

	alg, err := compression.ParseAlgorithm(out.Compression)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "output.compression")
	}
	scheme := sink.SchemeOf(out.Path)
	compressible := formats.GetFormatInfo(format).Compressible && scheme != sink.SchemePostgres
	switch {
	case alg == "" && compressible:
		alg = compression.FromPath(out.Path)
	case alg == "" || alg == compression.None:
		alg = compression.None
	case !compressible:
		return nil, errors.Newf(errors.ErrorTypeConfig,
			"compression %s cannot be applied to %s output at a %s destination", alg, format, scheme)
	}

	comp, err := compression.NewCompressor(&compression.Config{
		Algorithm: alg,
		Level:     compression.Level(out.Level),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "output compression")
	}
	return &Writer{Format: format, Encoder: enc, Compressor: comp}, nil
}
