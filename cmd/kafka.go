package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/jdiitm/event-ingest/internal/config"
	"github.com/jdiitm/event-ingest/internal/consumer"
	"github.com/jdiitm/event-ingest/internal/domain"
)

type KafkaEventSource struct {
	client         *kgo.Client
	maxPollRecords int
}

func kafkaConsumerOpts(cfg config.Config) []kgo.Opt {
	return []kgo.Opt{
		kgo.SeedBrokers(cfg.KafkaBrokers...),
		kgo.ConsumerGroup(cfg.KafkaConsumerGroup),
		kgo.ConsumeTopics(cfg.KafkaTopic),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
	}
}

func NewKafkaEventSource(cfg config.Config) (*KafkaEventSource, error) {
	client, err := kgo.NewClient(kafkaConsumerOpts(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaEventSource{client: client, maxPollRecords: cfg.KafkaMaxPollRecords}, nil
}

func (s *KafkaEventSource) Poll(ctx context.Context) ([]domain.Record, error) {
	fetches := s.client.PollRecords(ctx, s.maxPollRecords)
	if fetches.IsClientClosed() {
		return nil, consumer.ErrSourceClosed
	}
	if errs := fetches.Errors(); len(errs) > 0 {
		s.client.AllowRebalance()
		for _, e := range errs {
			if errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded) {
				return nil, consumer.ErrSourceClosed
			}
		}
		return nil, fmt.Errorf("kafka poll: %v", errs)
	}

	var records []domain.Record
	fetches.EachRecord(func(r *kgo.Record) {
		records = append(records, recordFromKafka(r))
	})
	if len(records) == 0 {
		s.client.AllowRebalance()
	}
	return records, nil
}

// Commit also releases the rebalance block taken by the preceding poll.
func (s *KafkaEventSource) Commit(ctx context.Context) error {
	defer s.client.AllowRebalance()
	return s.client.CommitUncommittedOffsets(ctx)
}

func (s *KafkaEventSource) Close() {
	s.client.Close()
}

func recordFromKafka(r *kgo.Record) domain.Record {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.Record{
		Key:       r.Key,
		Value:     r.Value,
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Headers:   headers,
		Timestamp: r.Timestamp,
	}
}
