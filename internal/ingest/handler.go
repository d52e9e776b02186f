package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jdiitm/event-ingest/internal/blobstore"
	"github.com/jdiitm/event-ingest/internal/config"
	"github.com/jdiitm/event-ingest/internal/metrics"
	"github.com/jdiitm/event-ingest/internal/telemetry"
)

// Invoker is implemented by Handler and consumed by the non-Lambda hosts.
type Invoker interface {
	Handle(ctx context.Context, event Event) Response
}

// Handler stores each event it receives as one JSON object. It is built once
// per process and is safe for concurrent invocations; nothing is mutated
// after New returns.
type Handler struct {
	store    blobstore.BlobStore
	bucket   string
	now      func() time.Time
	logger   *slog.Logger
	observer metrics.InvocationObserver
}

type Option func(*Handler)

func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithObserver(obs metrics.InvocationObserver) Option {
	return func(h *Handler) {
		h.observer = obs
	}
}

// New returns a Handler writing to store. An empty bucket makes every
// invocation fail with the missing configuration error; store may be nil in
// that case.
func New(store blobstore.BlobStore, bucket string, opts ...Option) *Handler {
	h := &Handler{
		store:    store,
		bucket:   bucket,
		now:      time.Now,
		logger:   slog.Default(),
		observer: metrics.NoopObserver{},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Handler) Handle(ctx context.Context, event Event) Response {
	reqID := RequestID(ctx)
	ctx, span := telemetry.StartInvokeSpan(ctx, reqID)
	defer span.End()

	logger := h.logger
	if reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	logger.Info("invocation received")

	if h.bucket == "" || h.store == nil {
		logger.Error("bucket is not configured", "env", config.BucketEnvVar)
		telemetry.RecordError(span, config.ErrMissingBucket)
		h.observer.RecordInvocation(metrics.OutcomeConfigMissing)
		return errorResponse(config.MissingBucketMessage)
	}
	logger.Info("using bucket", "bucket", h.bucket)

	body, err := marshalCompact(event)
	if err != nil {
		// Unreachable for decoded JSON; only Go callers can pass unencodable values.
		err = fmt.Errorf("encode event: %w", err)
		logger.Error("event encode failed", "error", err)
		telemetry.RecordError(span, err)
		h.observer.RecordInvocation(metrics.OutcomeWriteFailed)
		return errorResponse(err.Error())
	}
	logger.Info("received event", "event", string(body))
	h.observer.RecordEventSize(len(body))

	key := ObjectKey(h.now())
	if err := h.write(ctx, key, body); err != nil {
		logger.Error("event write failed",
			"bucket", h.bucket,
			"key", key,
			"error", err,
			"error_code", blobstore.ErrorCode(err),
		)
		telemetry.RecordError(span, err)
		h.observer.RecordInvocation(metrics.OutcomeWriteFailed)
		return errorResponse(writeFailureMessage(err))
	}

	logger.Info("event stored", "bucket", h.bucket, "key", key)
	h.observer.RecordInvocation(metrics.OutcomeStored)
	return storedResponse(key)
}

// Invoke has the shape lambda.Start expects. Failures are already encoded in
// the Response, so the error is always nil.
func (h *Handler) Invoke(ctx context.Context, event Event) (Response, error) {
	return h.Handle(ctx, event), nil
}

// writeFailureMessage is the text returned to the invoker for a failed write:
// the storage client's own message, without the bucket/key prefix that the
// log line already carries.
func writeFailureMessage(err error) string {
	var we *blobstore.WriteError
	if errors.As(err, &we) && we.Err != nil {
		return we.Err.Error()
	}
	return err.Error()
}

func (h *Handler) write(ctx context.Context, key string, body []byte) error {
	ctx, span := telemetry.StartWriteSpan(ctx, h.bucket, key, len(body))
	defer span.End()

	start := time.Now()
	_, err := h.store.Put(ctx, key, body)
	h.observer.RecordWriteDuration(time.Since(start).Seconds())
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}
