// Package clasink implements itchyparse's optional Kafka classification
// sink: every ClassificationEvent produced by internal/parseedit is
// encoded and published to a topic for downstream consumers, the
// producer-side mirror of the teacher's
// adred-codev-ws_poc/ws/internal/shared/kafka consumer (NewConsumer,
// PollFetches, consumeLoop) — retargeted from polling/broadcasting
// Redpanda records to producing one record per classified order.
package clasink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/nezhinsky/itchygen/internal/parseedit"
)

// Config mirrors the teacher's ConsumerConfig, trimmed to what a
// producer needs: brokers and a single destination topic instead of a
// consumer group and topic set.
type Config struct {
	Brokers []string
	Topic   string
	Logger  zerolog.Logger
}

// record is the wire shape published for each ClassificationEvent,
// keyed on RefNum so a downstream consumer can order a given order's
// ADD/EXEC/CANCEL/REPLACE events the way the teacher's consumer keys
// on Key: record.Key for TokenID.
type record struct {
	SeqNum     uint64 `json:"seq_num"`
	Type       string `json:"type"`
	RefNum     uint32 `json:"ref_num"`
	Stock      string `json:"stock,omitempty"`
	Subscribed bool   `json:"subscribed"`
}

// Sink publishes parseedit.ClassificationEvent values to Kafka,
// implementing parseedit.ClassificationSink.
type Sink struct {
	client *kgo.Client
	topic  string
	logger zerolog.Logger

	published uint64
	failed    uint64
}

var _ parseedit.ClassificationSink = (*Sink)(nil)

// New dials the configured brokers and returns a ready Sink.
func New(cfg Config) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("clasink: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("clasink: topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerBatchMaxBytes(1024*1024),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("clasink: create kafka client: %w", err)
	}

	return &Sink{client: client, topic: cfg.Topic, logger: cfg.Logger}, nil
}

// Publish encodes ev as JSON and produces it to the configured topic,
// keyed by RefNum so a consumer's partitioning preserves per-order
// ordering the way the teacher's consumer relies on record.Key for
// per-token ordering.
func (s *Sink) Publish(ctx context.Context, ev parseedit.ClassificationEvent) error {
	payload, err := json.Marshal(record{
		SeqNum:     ev.SeqNum,
		Type:       string(ev.Type),
		RefNum:     ev.RefNum,
		Stock:      ev.Stock,
		Subscribed: ev.Subscribed,
	})
	if err != nil {
		s.failed++
		return fmt.Errorf("clasink: marshal event: %w", err)
	}

	key := fmt.Sprintf("%d", ev.RefNum)
	rec := &kgo.Record{Topic: s.topic, Key: []byte(key), Value: payload}

	resultCh := make(chan error, 1)
	s.client.Produce(ctx, rec, func(_ *kgo.Record, err error) {
		resultCh <- err
	})

	select {
	case err := <-resultCh:
		if err != nil {
			s.failed++
			s.logger.Warn().Err(err).Uint32("ref_num", ev.RefNum).Msg("kafka produce failed")
			return fmt.Errorf("clasink: produce: %w", err)
		}
		s.published++
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats reports how many events were published vs failed to produce.
func (s *Sink) Stats() (published, failed uint64) {
	return s.published, s.failed
}

// Close flushes outstanding produces and closes the client.
func (s *Sink) Close() {
	_ = s.client.Flush(context.Background())
	s.client.Close()
}
