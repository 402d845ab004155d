package repository

import (
	"context"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
	pkgkafka "MomentumScan/pkg/kafka"
)

// Publisher is the subset of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

var _ Publisher = (*pkgkafka.Producer)(nil)

// KafkaReportPublisher publishes each report as one JSON message keyed by market.
type KafkaReportPublisher struct {
	producer Publisher
	topic    string
}

var _ repository.ReportPublisher = (*KafkaReportPublisher)(nil)

func NewKafkaReportPublisher(producer Publisher, topic string) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

func (p *KafkaReportPublisher) PublishReport(ctx context.Context, r *models.ScreenReport) error {
	if r == nil {
		return nil
	}
	return p.producer.Publish(ctx, p.topic, []byte(r.Market+":"+r.Period), r)
}

func (p *KafkaReportPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
