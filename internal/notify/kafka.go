package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"suratdesa/internal/audit"
)

// KafkaDispatcher publishes lifecycle events as JSON records keyed by request
// id, so per-request ordering survives partitioning. Downstream consumers
// (push/SMS/email workers) subscribe to the topic; their delivery mechanics
// are out of scope here.
type KafkaDispatcher struct {
	client *kgo.Client
	topic  string
}

// NewKafkaDispatcher connects to the brokers and ensures the topic exists.
func NewKafkaDispatcher(ctx context.Context, brokers []string, topic string) (*KafkaDispatcher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	topics, err := admin.ListTopics(ctx, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("list kafka topics: %w", err)
	}
	if !topics.Has(topic) {
		if _, err := admin.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
			client.Close()
			return nil, fmt.Errorf("create kafka topic %q: %w", topic, err)
		}
	}

	return &KafkaDispatcher{client: client, topic: topic}, nil
}

func (d *KafkaDispatcher) OnEvent(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal lifecycle event: %w", err)
	}
	record := &kgo.Record{
		Topic: d.topic,
		Key:   []byte(event.RequestID.String()),
		Value: payload,
	}
	if err := d.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce lifecycle event: %w", err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() {
	d.client.Close()
}
