package fanout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"pravaha/internal/announce"
)

// KafkaLiveFeed produces records to a kafka topic for downstream
// consumers that need a durable stream rather than the transient
// pub/sub channel. Produces are fire-and-forget: the dispatch cycle
// never blocks on broker acknowledgement.
type KafkaLiveFeed struct {
	client *kgo.Client
	topic  string
}

// NewKafkaLiveFeed connects to the given brokers. Call Close when done.
func NewKafkaLiveFeed(brokers []string, topic string) (*KafkaLiveFeed, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaLiveFeed{client: client, topic: topic}, nil
}

// Name identifies the sink in logs and metrics.
func (f *KafkaLiveFeed) Name() string { return "kafka" }

// Broadcast produces the record keyed by symbol so all announcements
// for one company land on the same partition.
func (f *KafkaLiveFeed) Broadcast(ctx context.Context, record *announce.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	f.client.Produce(ctx, &kgo.Record{
		Key:   []byte(record.Symbol),
		Value: payload,
	}, nil)
	return nil
}

// Close flushes buffered produces and releases the client.
func (f *KafkaLiveFeed) Close() {
	f.client.Close()
}
