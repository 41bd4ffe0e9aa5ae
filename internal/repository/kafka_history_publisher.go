package repository

import (
	"context"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
	domrepo "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/repository"
	pkgkafka "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/kafka"
)

// KafkaHistoryPublisher streams optimizer iteration records to a Kafka topic
// for external auditing. Records for one run share a key so they land on one
// partition in order.
type KafkaHistoryPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaHistoryPublisher creates the Kafka-backed audit stream.
func NewKafkaHistoryPublisher(producer *pkgkafka.Producer, topic string) domrepo.HistoryPublisher {
	return &KafkaHistoryPublisher{producer: producer, topic: topic}
}

func (p *KafkaHistoryPublisher) PublishIteration(ctx context.Context, runID string, rec *models.IterationRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(runID), map[string]interface{}{
		"run_id": runID,
		"record": rec,
	})
}

func (p *KafkaHistoryPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopHistoryPublisher discards records, used when Kafka is disabled.
type NopHistoryPublisher struct{}

func (NopHistoryPublisher) PublishIteration(context.Context, string, *models.IterationRecord) error {
	return nil
}

func (NopHistoryPublisher) Close() error { return nil }
