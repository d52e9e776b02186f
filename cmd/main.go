package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jdiitm/event-ingest/internal/blobstore"
	"github.com/jdiitm/event-ingest/internal/config"
	"github.com/jdiitm/event-ingest/internal/consumer"
	"github.com/jdiitm/event-ingest/internal/healthz"
	"github.com/jdiitm/event-ingest/internal/ingest"
	"github.com/jdiitm/event-ingest/internal/metrics"
	"github.com/jdiitm/event-ingest/internal/server"
	"github.com/jdiitm/event-ingest/internal/telemetry"
)

// buildHandler creates the single per-process handler. A missing bucket is
// not fatal: the handler is built without a store and reports the missing
// configuration on every invocation.
func buildHandler(ctx context.Context, cfg config.Config, obs metrics.InvocationObserver) (*ingest.Handler, error) {
	opts := []ingest.Option{ingest.WithObserver(obs)}
	if !cfg.HasBucket() {
		log.Printf("WARNING: %s is not set; every invocation will fail", config.BucketEnvVar)
		return ingest.New(nil, "", opts...), nil
	}
	store, err := blobstore.NewBlobStoreFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return ingest.New(store, cfg.BucketName, opts...), nil
}

// initTracing returns a flush for the end of each Lambda invocation and a
// shutdown for process exit. Both are no-ops when tracing is disabled.
func initTracing(cfg config.Config) (flush func(context.Context), shutdown func()) {
	noop := func() {}
	noFlush := func(context.Context) {}
	if cfg.OTLPEndpoint == "" {
		return noFlush, noop
	}
	tp, err := telemetry.Init(telemetry.WithEndpoint(cfg.OTLPEndpoint))
	if err != nil {
		log.Printf("tracing disabled: %v", err)
		return noFlush, noop
	}
	log.Printf("tracing: exporting to %s", cfg.OTLPEndpoint)
	flush = func(ctx context.Context) {
		if err := tp.ForceFlush(ctx); err != nil {
			log.Printf("tracer flush: %v", err)
		}
	}
	shutdown = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}
	return flush, shutdown
}

// lambdaHandler flushes spans before each invocation returns. lambda.Start
// never returns, so deferred shutdown does not run in Lambda mode and the
// execution environment may be frozen or reclaimed right after the response.
func lambdaHandler(h *ingest.Handler, flush func(context.Context)) func(context.Context, ingest.Event) (ingest.Response, error) {
	return func(ctx context.Context, event ingest.Event) (ingest.Response, error) {
		resp, err := h.Invoke(ctx, event)
		flush(ctx)
		return resp, err
	}
}

func newHealthChecker(cfg config.Config, m *metrics.Metrics) *healthz.Checker {
	return healthz.NewChecker(m, healthz.WithBucketConfigured(cfg.HasBucket()))
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration check failed: %v", err)
	}

	log.Printf("starting event ingest: host=%s store=%s bucket=%q region=%s",
		cfg.HostMode, cfg.BlobStoreType, cfg.BucketName, cfg.Region)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	flushTracing, shutdownTracing := initTracing(cfg)
	defer shutdownTracing()

	m := metrics.New()
	h, err := buildHandler(ctx, cfg, m)
	if err != nil {
		log.Fatalf("create handler: %v", err)
	}

	switch cfg.HostMode {
	case config.HostLambda:
		lambda.Start(lambdaHandler(h, flushTracing))
	case config.HostHTTP:
		srv := server.New(h,
			server.WithMetrics(m.Handler()),
			server.WithHealth(newHealthChecker(cfg, m)),
		)
		if err := srv.Run(ctx, cfg.ListenAddr); err != nil {
			log.Printf("http host stopped: %v", err)
		}
	case config.HostKafka:
		runKafka(ctx, cfg, h, m)
	}
	log.Println("shutdown complete")
}

func runKafka(ctx context.Context, cfg config.Config, h *ingest.Handler, m *metrics.Metrics) {
	source, err := NewKafkaEventSource(cfg)
	if err != nil {
		log.Printf("FATAL: create kafka source: %v", err)
		return
	}
	defer source.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/healthz", newHealthChecker(cfg, m))
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("metrics server listening on %s", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	defer func() { _ = metricsSrv.Close() }()

	log.Printf("kafka host: brokers=%v topic=%s group=%s",
		cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaConsumerGroup)
	if err := consumer.New(source, h).Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("consumer stopped: %v", err)
	}
	log.Println("shutting down...")
}
