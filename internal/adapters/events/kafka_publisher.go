package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"cafe-pickup-service/internal/ports"
)

// Kafka-backed implementation of the EventPublisher port.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewPublisher builds a Kafka publisher when brokers are configured and a
// noop publisher otherwise, so callers never branch on configuration.
func NewPublisher(brokers []string, topic string) (ports.EventPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return noopPublisher{}, nil
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}
	return &KafkaPublisher{producer: producer, topic: topic}, nil
}

func (p *KafkaPublisher) PublishStatusEvent(ctx context.Context, ev ports.StatusEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", ev.PackageID)),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("publish status event to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

func (noopPublisher) PublishStatusEvent(context.Context, ports.StatusEvent) error { return nil }
func (noopPublisher) Close() error                                                { return nil }
