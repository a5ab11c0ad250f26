package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"io"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/benz9527/xavl/lib/infra"
)

type MetricsExporterType uint8

const (
	ConsoleExporter MetricsExporterType = iota
	PrometheusExporter
)

var ErrUnknownMetricsExporter = errors.New("[observability] unknown metrics exporter type")

type exporterConfig struct {
	interval   time.Duration
	timeout    time.Duration
	writer     io.Writer
	registerer promclient.Registerer
}

type MetricsExporterOption func(*exporterConfig)

// WithExportInterval works for the console exporter only.
func WithExportInterval(interval time.Duration) MetricsExporterOption {
	return func(cfg *exporterConfig) {
		if interval > 0 {
			cfg.interval = interval
		}
	}
}

// WithExportTimeout works for the console exporter only.
func WithExportTimeout(timeout time.Duration) MetricsExporterOption {
	return func(cfg *exporterConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithExportWriter redirects the console exporter output, os.Stdout by default.
func WithExportWriter(w io.Writer) MetricsExporterOption {
	return func(cfg *exporterConfig) {
		cfg.writer = w
	}
}

// WithPrometheusRegisterer replaces the prometheus default registerer.
func WithPrometheusRegisterer(reg promclient.Registerer) MetricsExporterOption {
	return func(cfg *exporterConfig) {
		cfg.registerer = reg
	}
}

// InitMetricsExporter installs the global meter provider, so the trees
// created with stats afterwards report through it.
// The provider is shut down once ctx is done, or by the returned callback.
func InitMetricsExporter(ctx context.Context, typ MetricsExporterType, opts ...MetricsExporterOption) (func(ctx context.Context) error, error) {
	cfg := &exporterConfig{
		interval: time.Minute,
		timeout:  30 * time.Second,
	}
	for _, o := range opts {
		o(cfg)
	}

	var (
		shutdown func(ctx context.Context) error
		err      error
	)
	switch typ {
	case ConsoleExporter:
		stdoutOpts := make([]stdoutmetric.Option, 0, 1)
		if cfg.writer != nil {
			stdoutOpts = append(stdoutOpts, stdoutmetric.WithWriter(cfg.writer))
		}
		shutdown, err = newConsoleMetricsExporter(cfg.interval, cfg.timeout, stdoutOpts...)
	case PrometheusExporter:
		promOpts := make([]prometheus.Option, 0, 1)
		if cfg.registerer != nil {
			promOpts = append(promOpts, prometheus.WithRegisterer(cfg.registerer))
		}
		shutdown, err = newPrometheusMetricsExporter(promOpts...)
	default:
		return nil, infra.WrapErrorStack(ErrUnknownMetricsExporter)
	}
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[observability] init metrics exporter failed")
	}
	waitForShutdown(ctx, shutdown)
	return shutdown, nil
}

func waitForShutdown(ctx context.Context, shutdown func(ctx context.Context) error) {
	if ctx == nil || ctx.Done() == nil {
		return
	}
	go func() {
		<-ctx.Done()
		_ = shutdown(context.Background())
	}()
}

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (func(ctx context.Context) error, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
func newPrometheusMetricsExporter(opts ...prometheus.Option) (func(ctx context.Context) error, error) {
	exporter, err := prometheus.New(opts...)
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}
