package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jdiitm/event-ingest/internal/domain"
	"github.com/jdiitm/event-ingest/internal/ingest"
	"github.com/jdiitm/event-ingest/internal/telemetry"
)

var ErrSourceClosed = errors.New("source closed")

type EventSource interface {
	Poll(ctx context.Context) ([]domain.Record, error)
	Commit(ctx context.Context) error
	Close()
}

// Consumer feeds queued records to the handler one at a time. Each record is
// one invocation: a failed write is logged and its offset is still committed.
type Consumer struct {
	source  EventSource
	invoker ingest.Invoker
	logger  *slog.Logger
}

type ConsumerOption func(*Consumer)

func WithLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		c.logger = logger
	}
}

func New(source EventSource, invoker ingest.Invoker, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		source:  source,
		invoker: invoker,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Consumer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		batch, err := c.source.Poll(ctx)
		if errors.Is(err, ErrSourceClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			continue
		}

		pollCtx, pollSpan := telemetry.StartPollSpan(ctx, len(batch))
		for _, rec := range batch {
			if ctx.Err() != nil {
				pollSpan.End()
				return ctx.Err()
			}
			c.invoke(pollCtx, rec)
		}

		commitCtx, commitSpan := telemetry.StartCommitSpan(pollCtx)
		if err := c.source.Commit(commitCtx); err != nil {
			telemetry.RecordError(commitSpan, err)
			commitSpan.End()
			pollSpan.End()
			return fmt.Errorf("offset commit: %w", err)
		}
		commitSpan.End()
		pollSpan.End()
	}
}

func (c *Consumer) invoke(ctx context.Context, rec domain.Record) {
	logger := c.logger.With("record", rec.ID())

	var event ingest.Event
	if err := json.Unmarshal(rec.Value, &event); err != nil {
		logger.Warn("skipping record: value is not a JSON object", "error", err)
		return
	}

	resp := c.invoker.Handle(ingest.WithRequestID(ctx, rec.ID()), event)
	if resp.StatusCode != 200 {
		logger.Warn("invocation failed", "status", resp.StatusCode, "body", resp.Body)
		return
	}
	logger.Debug("invocation succeeded", "body", resp.Body)
}
