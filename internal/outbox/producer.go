// Package outbox publishes recap events to Kafka.
package outbox

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaProducer writes keyed messages to any topic through one shared writer.
// Messages with the same key land on the same partition.
type KafkaProducer struct {
	writer *kafka.Writer
}

// ProducerOption configures a KafkaProducer.
type ProducerOption func(*kafka.Writer)

// WithBatchTimeout bounds how long the writer waits to fill a batch.
func WithBatchTimeout(d time.Duration) ProducerOption {
	return func(w *kafka.Writer) {
		if d > 0 {
			w.BatchTimeout = d
		}
	}
}

// WithProducerLogger routes writer errors to logger.
func WithProducerLogger(logger *zap.Logger) ProducerOption {
	return func(w *kafka.Writer) {
		sugar := logger.Sugar()
		w.ErrorLogger = kafka.LoggerFunc(sugar.Errorf)
	}
}

// NewKafkaProducer creates a KafkaProducer for brokers.
func NewKafkaProducer(brokers []string, opts ...ProducerOption) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return &KafkaProducer{writer: w}
}

// WriteMessages publishes msgs to topic. The caller's slice is not modified.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	out := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		msg.Topic = topic
		out[i] = msg
	}
	return p.writer.WriteMessages(ctx, out...)
}

// Close flushes pending messages and releases the writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
