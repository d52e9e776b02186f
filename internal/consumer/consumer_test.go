package consumer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jdiitm/event-ingest/internal/consumer"
	"github.com/jdiitm/event-ingest/internal/domain"
	"github.com/jdiitm/event-ingest/internal/ingest"
)

type stubSource struct {
	batches   [][]domain.Record
	err       error
	commitErr error
	index     int
	commits   int
}

func (s *stubSource) Poll(_ context.Context) ([]domain.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.index >= len(s.batches) {
		return nil, consumer.ErrSourceClosed
	}
	batch := s.batches[s.index]
	s.index++
	return batch, nil
}

func (s *stubSource) Commit(_ context.Context) error {
	s.commits++
	return s.commitErr
}

func (s *stubSource) Close() {}

type stubInvoker struct {
	mu         sync.Mutex
	events     []ingest.Event
	requestIDs []string
	status     int
}

func (s *stubInvoker) Handle(ctx context.Context, event ingest.Event) ingest.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	s.requestIDs = append(s.requestIDs, ingest.RequestID(ctx))
	status := s.status
	if status == 0 {
		status = 200
	}
	return ingest.Response{StatusCode: status, Body: "{}"}
}

func sampleRecord(offset int64, value string) domain.Record {
	return domain.Record{
		Value:     []byte(value),
		Topic:     "events",
		Partition: 0,
		Offset:    offset,
		Timestamp: time.Now(),
	}
}

func quiet() consumer.ConsumerOption {
	return consumer.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestConsumer_InvokesOncePerRecord(t *testing.T) {
	src := &stubSource{
		batches: [][]domain.Record{
			{sampleRecord(1, `{"n":"a"}`), sampleRecord(2, `{"n":"b"}`)},
			{sampleRecord(3, `{"n":"c"}`)},
		},
	}
	inv := &stubInvoker{}

	if err := consumer.New(src, inv, quiet()).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inv.events) != 3 {
		t.Fatalf("invocations = %d, want 3", len(inv.events))
	}
	for i, want := range []string{"a", "b", "c"} {
		if inv.events[i]["n"] != want {
			t.Errorf("event %d = %v, want n=%s", i, inv.events[i], want)
		}
	}
	if src.commits != 2 {
		t.Errorf("commits = %d, want one per batch (2)", src.commits)
	}
}

func TestConsumer_PassesRecordIDAsRequestID(t *testing.T) {
	src := &stubSource{batches: [][]domain.Record{{sampleRecord(7, `{}`)}}}
	inv := &stubInvoker{}

	if err := consumer.New(src, inv, quiet()).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inv.requestIDs) != 1 || inv.requestIDs[0] != "events/0/7" {
		t.Errorf("request ids = %v, want [events/0/7]", inv.requestIDs)
	}
}

func TestConsumer_SkipsUndecodableRecords(t *testing.T) {
	src := &stubSource{
		batches: [][]domain.Record{
			{sampleRecord(1, `not json`), sampleRecord(2, `[1,2]`), sampleRecord(3, `{"ok":true}`)},
		},
	}
	inv := &stubInvoker{}

	if err := consumer.New(src, inv, quiet()).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inv.events) != 1 {
		t.Fatalf("invocations = %d, want 1", len(inv.events))
	}
	if src.commits != 1 {
		t.Errorf("commits = %d, want 1", src.commits)
	}
}

func TestConsumer_FailedInvocationIsNotRetried(t *testing.T) {
	src := &stubSource{batches: [][]domain.Record{{sampleRecord(1, `{}`)}}}
	inv := &stubInvoker{status: 500}

	if err := consumer.New(src, inv, quiet()).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inv.events) != 1 {
		t.Errorf("invocations = %d, want 1", len(inv.events))
	}
	if src.commits != 1 {
		t.Errorf("commits = %d, want 1", src.commits)
	}
}

func TestConsumer_PollErrorStops(t *testing.T) {
	pollErr := errors.New("broker unreachable")
	src := &stubSource{err: pollErr}

	err := consumer.New(src, &stubInvoker{}, quiet()).Run(context.Background())
	if !errors.Is(err, pollErr) {
		t.Fatalf("Run() error = %v, want %v", err, pollErr)
	}
}

func TestConsumer_CommitErrorStops(t *testing.T) {
	commitErr := errors.New("rebalance in progress")
	src := &stubSource{
		batches:   [][]domain.Record{{sampleRecord(1, `{}`)}},
		commitErr: commitErr,
	}

	err := consumer.New(src, &stubInvoker{}, quiet()).Run(context.Background())
	if !errors.Is(err, commitErr) {
		t.Fatalf("Run() error = %v, want wrapped %v", err, commitErr)
	}
}

func TestConsumer_StopsOnCancelledContext(t *testing.T) {
	src := &stubSource{batches: [][]domain.Record{{sampleRecord(1, `{}`)}}}
	inv := &stubInvoker{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := consumer.New(src, inv, quiet()).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if len(inv.events) != 0 {
		t.Errorf("invocations = %d, want 0", len(inv.events))
	}
}

func TestConsumer_EmptyBatchSkipsCommit(t *testing.T) {
	src := &stubSource{batches: [][]domain.Record{{}, {sampleRecord(1, `{}`)}}}

	if err := consumer.New(src, &stubInvoker{}, quiet()).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.commits != 1 {
		t.Errorf("commits = %d, want 1", src.commits)
	}
}
