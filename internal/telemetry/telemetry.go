package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "event-ingest"

var tracer trace.Tracer

type Option func(*config)

type config struct {
	exporter sdktrace.SpanExporter
	endpoint string
}

func WithTestExporter() Option {
	return func(c *config) {
		c.exporter = noopExporter{}
	}
}

func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(c *config) {
		c.exporter = exp
	}
}

func WithEndpoint(endpoint string) Option {
	return func(c *config) {
		c.endpoint = endpoint
	}
}

const defaultEndpoint = "localhost:4317"

func newConfig(opts ...Option) *config {
	cfg := &config{endpoint: defaultEndpoint}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// Init installs a provider that exports each span synchronously when it ends,
// so nothing is left buffered if the process is frozen between invocations.
func Init(opts ...Option) (*sdktrace.TracerProvider, error) {
	cfg := newConfig(opts...)

	if cfg.exporter == nil {
		exp, err := otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpoint(cfg.endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create OTLP exporter: %w", err)
		}
		cfg.exporter = exp
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(cfg.exporter),
	)
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(serviceName)
	return tp, nil
}

// Tracer falls back to the global provider, which is a no-op until Init runs.
func Tracer() trace.Tracer {
	if tracer == nil {
		return otel.Tracer(serviceName)
	}
	return tracer
}

func StartInvokeSpan(ctx context.Context, requestID string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "event.ingest",
		trace.WithAttributes(
			attribute.String("invocation.request_id", requestID),
		),
	)
}

func StartWriteSpan(ctx context.Context, bucket, key string, size int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "blob.put",
		trace.WithAttributes(
			attribute.String("blob.bucket", bucket),
			attribute.String("blob.key", key),
			attribute.Int64("blob.size", int64(size)),
		),
	)
}

func StartPollSpan(ctx context.Context, batchSize int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "kafka.poll",
		trace.WithAttributes(
			attribute.Int64("batch.size", int64(batchSize)),
		),
	)
}

func StartCommitSpan(ctx context.Context) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "kafka.commit")
}

func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

type noopExporter struct{}

func (noopExporter) ExportSpans(_ context.Context, _ []sdktrace.ReadOnlySpan) error {
	return nil
}

func (noopExporter) Shutdown(_ context.Context) error { return nil }
