package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"govportal/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the broker is considered down.
var ErrCircuitOpen = errors.New("events: broker circuit open")

// Kafka publishes events to a single topic keyed by reference ID.
type Kafka struct {
	client  *kgo.Client
	topic   string
	logger  *slog.Logger
	breaker *circuit.Breaker
	timeout time.Duration
}

// KafkaOption configures a Kafka publisher.
type KafkaOption func(*Kafka)

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(k *Kafka) { k.breaker = b }
}

// WithPublishTimeout bounds each synchronous produce.
func WithPublishTimeout(d time.Duration) KafkaOption {
	return func(k *Kafka) { k.timeout = d }
}

// NewKafka connects a producer to brokers. The client dials lazily; broker
// availability is discovered on first produce.
func NewKafka(brokers []string, topic string, logger *slog.Logger, opts ...KafkaOption) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RecordRetries(3),
		kgo.ProducerLinger(0),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	k := &Kafka{
		client:  client,
		topic:   topic,
		logger:  logger,
		breaker: circuit.New("kafka", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(1), circuit.WithCooldown(30*time.Second)),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// EnsureTopic creates the topic if it does not exist.
func (k *Kafka) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	admin := kadm.NewClient(k.client)
	resp, err := admin.CreateTopics(ctx, partitions, replication, nil, k.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", k.topic, err)
	}
	if r, ok := resp[k.topic]; ok && r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", k.topic, r.Err)
	}
	return nil
}

// PublishSubmission produces event synchronously within the publish timeout.
func (k *Kafka) PublishSubmission(ctx context.Context, event SubmissionCreated) error {
	if !k.breaker.Allow() {
		return ErrCircuitOpen
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	record := &kgo.Record{
		Key:   []byte(event.ReferenceID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(TypeSubmissionCreated)},
			{Key: "category", Value: []byte(event.Category)},
		},
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		if _, change := k.breaker.RecordFailure(); change.Opened {
			k.logger.Warn("event publishing suspended", "breaker", k.breaker.Name(), "topic", k.topic)
		}
		return fmt.Errorf("produce %s: %w", TypeSubmissionCreated, err)
	}
	if _, change := k.breaker.RecordSuccess(); change.Closed {
		k.logger.Info("event publishing resumed", "breaker", k.breaker.Name(), "topic", k.topic)
	}
	return nil
}

// Close flushes and closes the client.
func (k *Kafka) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.client.Flush(ctx); err != nil {
		k.logger.Warn("kafka flush on close failed", "error", err)
	}
	k.client.Close()
}
