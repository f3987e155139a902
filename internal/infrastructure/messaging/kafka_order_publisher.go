package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhk/storefront/internal/domain/checkout"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/jhk/storefront/internal/infrastructure/config"
	"github.com/jhk/storefront/internal/infrastructure/event"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Header names set on every published message
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

// ErrPublisherDisabled is returned when Kafka publishing is not configured
var ErrPublisherDisabled = errors.New("kafka order publisher disabled")

// messageWriter is the subset of *kafka.Writer the publisher uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaOrderPublisher forwards paid-order events to a Kafka topic.
// It is an event bus handler; the message key is the order number so all
// messages of one order land on the same partition.
type KafkaOrderPublisher struct {
	writer       messageWriter
	serializer   *event.EventSerializer
	writeTimeout time.Duration
	logger       *zap.Logger
}

// KafkaOrderPublisherOption is a functional option for KafkaOrderPublisher
type KafkaOrderPublisherOption func(*KafkaOrderPublisher)

// WithPublisherLogger sets the logger
func WithPublisherLogger(logger *zap.Logger) KafkaOrderPublisherOption {
	return func(p *KafkaOrderPublisher) {
		p.logger = logger
	}
}

// WithWriteTimeout bounds each write
func WithWriteTimeout(d time.Duration) KafkaOrderPublisherOption {
	return func(p *KafkaOrderPublisher) {
		p.writeTimeout = d
	}
}

// NewKafkaOrderPublisher builds a publisher writing to cfg.Topic on cfg.Brokers
func NewKafkaOrderPublisher(cfg config.KafkaConfig, opts ...KafkaOrderPublisherOption) (*KafkaOrderPublisher, error) {
	if !cfg.Enabled {
		return nil, ErrPublisherDisabled
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: no brokers configured", shared.ErrInvalidInput)
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("%w: no topic configured", shared.ErrInvalidInput)
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            5,
		AllowAutoTopicCreation: true,
	}

	opts = append([]KafkaOrderPublisherOption{WithWriteTimeout(cfg.WriteTimeout)}, opts...)
	return newKafkaOrderPublisher(writer, opts...), nil
}

func newKafkaOrderPublisher(writer messageWriter, opts ...KafkaOrderPublisherOption) *KafkaOrderPublisher {
	serializer := event.NewEventSerializer()
	event.RegisterStorefrontEvents(serializer)

	p := &KafkaOrderPublisher{
		writer:       writer,
		serializer:   serializer,
		writeTimeout: 10 * time.Second,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.writeTimeout <= 0 {
		p.writeTimeout = 10 * time.Second
	}
	return p
}

// EventTypes implements shared.EventHandler
func (p *KafkaOrderPublisher) EventTypes() []string {
	return []string{checkout.EventTypeOrderPaid}
}

// Handle implements shared.EventHandler
func (p *KafkaOrderPublisher) Handle(ctx context.Context, evt shared.DomainEvent) error {
	paid, ok := evt.(*checkout.OrderPaidEvent)
	if !ok {
		return fmt.Errorf("%w: unexpected event %T", shared.ErrInvalidInput, evt)
	}

	value, err := p.serializer.Serialize(paid)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(paid.OrderNumber),
		Value: value,
		Time:  paid.OccurredAt().UTC(),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(paid.EventType())},
			{Key: HeaderEventID, Value: []byte(paid.EventID().String())},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish order %s: %w", paid.OrderNumber, err)
	}

	p.logger.Info("Published paid order",
		zap.String("order_number", paid.OrderNumber),
		zap.String("event_id", paid.EventID().String()),
	)
	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaOrderPublisher) Close() error {
	return p.writer.Close()
}

var _ shared.EventHandler = (*KafkaOrderPublisher)(nil)
