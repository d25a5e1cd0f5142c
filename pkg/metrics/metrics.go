// Package metrics records what a reshape run did as Prometheus metrics.
//
// Each run owns a Collector with a private registry, so nothing leaks between
// runs or tests. The registry can be dumped in the text exposition format for
// node_exporter's textfile collector:
//
//	collector := metrics.NewCollector()
//	timer := metrics.NewTimer()
//	...
//	collector.ObserveStage("reshape", timer.Stop(), err)
//	collector.RecordResult(res)
//	_ = collector.WriteTextfile("/var/lib/node_exporter/reshape.prom")
package metrics

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ajitpratap0/reshape/pkg/errors"
	"github.com/ajitpratap0/reshape/pkg/reshape"
)

const namespace = "reshape"

// Collector holds the metrics of a single run.
type Collector struct {
	registry *prometheus.Registry

	InputRows     prometheus.Gauge
	InputColumns  prometheus.Gauge
	OutputRows    prometheus.Gauge
	Categories    prometheus.Gauge
	Positions     prometheus.Gauge
	OutputBytes   prometheus.Gauge
	MissingValues prometheus.Gauge
	ProcessRSS    prometheus.Gauge
	StageDuration *prometheus.HistogramVec
	Runs          *prometheus.CounterVec

	startTime time.Time
}

// NewCollector creates a collector with its own registry, including the Go
// runtime collector.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}

	return &Collector{
		registry:      reg,
		InputRows:     gauge("input_rows", "Data rows read from the input table"),
		InputColumns:  gauge("input_columns", "Columns in the input header"),
		OutputRows:    gauge("output_rows", "Rows in the reshaped table"),
		Categories:    gauge("categories", "Category columns melted"),
		Positions:     gauge("positions", "Positional columns in the output (N)"),
		OutputBytes:   gauge("output_bytes", "Size of the committed payload in bytes"),
		MissingValues: gauge("missing_values", "Positional cells with no value"),
		ProcessRSS:    gauge("process_resident_memory_bytes", "Resident set size sampled after the run"),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
			},
			[]string{"stage", "status"},
		),
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Runs by outcome",
			},
			[]string{"status"},
		),
		startTime: time.Now(),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// ObserveStage records the duration and outcome of a stage.
func (c *Collector) ObserveStage(stage string, d time.Duration, err error) {
	c.StageDuration.WithLabelValues(stage, Status(err)).Observe(d.Seconds())
}

// RecordResult records the shape of a reshaped table.
func (c *Collector) RecordResult(res *reshape.Result) {
	c.InputRows.Set(float64(res.InputRows))
	c.InputColumns.Set(float64(res.InputColumns))
	c.OutputRows.Set(float64(res.Len()))
	c.Positions.Set(float64(res.N()))
	c.Categories.Set(float64(len(res.CategoryColumns)))

	missing := 0
	for _, row := range res.Rows {
		for _, v := range row.Values {
			if !v.Valid {
				missing++
			}
		}
	}
	c.MissingValues.Set(float64(missing))
}

// RecordRun counts a finished run under its outcome.
func (c *Collector) RecordRun(err error) {
	c.Runs.WithLabelValues(Status(err)).Inc()
}

// SampleProcess records the current resident set size of this process.
func (c *Collector) SampleProcess() error {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return err
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return err
	}
	c.ProcessRSS.Set(float64(mem.RSS))
	return nil
}

// WriteTextfile writes every metric to path in the Prometheus text format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// Status labels an outcome: "success", or the error type for failures.
func Status(err error) string {
	if err == nil {
		return "success"
	}
	for _, t := range []errors.ErrorType{
		errors.ErrorTypeMissingColumn,
		errors.ErrorTypeSourceNotFound,
		errors.ErrorTypeConfig,
		errors.ErrorTypeWrite,
		errors.ErrorTypeTransform,
	} {
		if errors.IsType(err, t) {
			return string(t)
		}
	}
	return "error"
}

// Timer measures the wall time of a whole run.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. It can be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
