package outbox

import (
	"context"

	"github.com/md-rashed-zaman/boardhub/libs/kafkax"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes each row to the Kafka topic named after the event
// topic, keyed by aggregate id.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{writer: kafkax.NewWriter(brokers)}
}

func (p *KafkaPublisher) Publish(ctx context.Context, row Row, event domain.Event) error {
	msg := kafka.Message{
		Topic:   row.Topic,
		Key:     []byte(event.AggregateID()),
		Value:   row.State,
		Headers: kafkax.EventHeaders(row.ID.String(), row.Topic),
		Time:    row.CreatedAt,
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
