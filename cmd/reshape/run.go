package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/reshape/internal/pipeline"
	"github.com/ajitpratap0/reshape/pkg/config"
	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/logger"
	"github.com/ajitpratap0/reshape/pkg/metrics"
	"github.com/ajitpratap0/reshape/pkg/observability"
)

func (a *app) runE(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogEncoding,
	}); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}

	tc := observability.DefaultConfig()
	tc.ServiceVersion = version
	tc.Enabled = cfg.Observability.Trace
	tc.Writer = a.stderr
	if err := observability.Initialize(tc); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.Shutdown(shutdownCtx); err != nil {
			logger.Get().Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	runID := uuid.New().String()
	ctx = logger.WithRun(ctx, runID, cfg.Input.Path)
	logger.WithContext(ctx).Info("starting run",
		zap.String("output", cfg.Output.Path),
		zap.Bool("dry_run", cfg.DryRun))

	collector := metrics.NewCollector()
	p := pipeline.New(cfg, observability.NewStageTracer(runID, collector.ObserveStage), collector)

	sum, err := p.Run(ctx)
	a.finish(ctx, cfg, collector, err)
	if err != nil {
		return err
	}
	return sum.Write(a.stdout)
}

// finish records the run outcome and writes the metrics file when asked.
// Failures here are logged, never returned.
func (a *app) finish(ctx context.Context, cfg *config.Config, c *metrics.Collector, err error) {
	log := logger.WithContext(ctx)

	c.RecordRun(err)
	if err := c.SampleProcess(); err != nil {
		log.Debug("process sampling failed", zap.Error(err))
	}
	if cfg.Observability.MetricsFile != "" {
		if err := c.WriteTextfile(cfg.Observability.MetricsFile); err != nil {
			log.Warn("failed to write metrics file",
				zap.String("path", cfg.Observability.MetricsFile),
				zap.Error(err))
		}
	}
	log.Info("run finished",
		zap.String("status", metrics.Status(err)),
		zap.Duration("duration", time.Since(c.StartTime())))
}
