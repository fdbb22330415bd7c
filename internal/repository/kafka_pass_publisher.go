package repository

import (
	"context"

	"IPOPulse/internal/domain/models"
	"IPOPulse/internal/domain/repository"
	pkgkafka "IPOPulse/pkg/kafka"
)

// KafkaPassPublisher hands completed passes to downstream consumers
// (persistence, alerting) over a topic, keyed by operation so one
// operation's passes land in order on one partition.
type KafkaPassPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPassPublisher(producer *pkgkafka.Producer, topic string) repository.PassPublisher {
	return &KafkaPassPublisher{producer: producer, topic: topic}
}

func (p *KafkaPassPublisher) PublishPass(ctx context.Context, res *models.AggregateResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(res.Operation), res)
}

func (p *KafkaPassPublisher) Close() error { return p.producer.Close() }
