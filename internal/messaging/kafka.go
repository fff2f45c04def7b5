package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/fitpair/internal/config"
	"github.com/temcen/fitpair/pkg/models"
)

const (
	PartnerInteractionsTopic    = "partner-interactions"
	PartnerInteractionsDLQTopic = "partner-interactions-dlq"
	ConsumerGroup               = "partner-cache-invalidators"

	maxRetries = 3
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// EventBus publishes partner interaction events and consumes them back with
// retries and a dead letter topic.
type EventBus struct {
	writer    messageWriter
	reader    messageReader
	dlqWriter messageWriter
	topic     string
	dlqTopic  string
	baseDelay time.Duration
	// pause after a failed read
	readBackoff time.Duration
	logger      *logrus.Logger
}

func NewEventBus(cfg *config.Config, logger *logrus.Logger) *EventBus {
	topic := cfg.Kafka.Topics.PartnerInteractions
	if topic == "" {
		topic = PartnerInteractionsTopic
	}
	dlqTopic := cfg.Kafka.Topics.DeadLetter
	if dlqTopic == "" {
		dlqTopic = PartnerInteractionsDLQTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // Key by actor so one user's events stay ordered
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          topic,
		GroupID:        ConsumerGroup,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        dlqTopic,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return newEventBus(writer, reader, dlqWriter, topic, dlqTopic, logger)
}

func newEventBus(writer messageWriter, reader messageReader, dlqWriter messageWriter, topic, dlqTopic string, logger *logrus.Logger) *EventBus {
	return &EventBus{
		writer:      writer,
		reader:      reader,
		dlqWriter:   dlqWriter,
		topic:       topic,
		dlqTopic:    dlqTopic,
		baseDelay:   time.Second,
		readBackoff: time.Second,
		logger:      logger,
	}
}

// PublishInteraction writes one interaction event keyed by its actor.
func (b *EventBus) PublishInteraction(ctx context.Context, event models.InteractionEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.ActorID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
			{Key: "interaction_type", Value: []byte(event.Kind)},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := b.writer.WriteMessages(ctx, message); err != nil {
		b.logger.WithError(err).WithField("event_id", event.EventID).Error("Failed to publish interaction event")
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"event_id":         event.EventID,
		"actor_id":         event.ActorID,
		"target_id":        event.TargetID,
		"interaction_type": event.Kind,
		"topic":            b.topic,
	}).Debug("Interaction event published")

	return nil
}

// Consume reads events until ctx is done. A handler failing after every retry sends
// the event to the dead letter topic.
func (b *EventBus) Consume(ctx context.Context, handler func(context.Context, models.InteractionEvent) error) error {
	for {
		message, err := b.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			b.logger.WithError(err).Error("Failed to read message from Kafka")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.readBackoff):
			}
			continue
		}

		var event models.InteractionEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			b.logger.WithError(err).Error("Failed to unmarshal interaction event")
			if dlqErr := b.sendToDLQ(ctx, message.Key, message.Value, err); dlqErr != nil {
				b.logger.WithError(dlqErr).Error("Failed to send message to DLQ")
			}
			continue
		}

		if err := b.processWithRetry(ctx, event, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.WithError(err).WithField("event_id", event.EventID).Error("Failed to process event after retries")
			if dlqErr := b.sendToDLQ(ctx, message.Key, message.Value, err); dlqErr != nil {
				b.logger.WithError(dlqErr).Error("Failed to send message to DLQ")
			}
		}
	}
}

func (b *EventBus) processWithRetry(ctx context.Context, event models.InteractionEvent, handler func(context.Context, models.InteractionEvent) error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			delay := b.baseDelay * time.Duration(1<<uint(attempt-1))
			b.logger.WithFields(logrus.Fields{
				"event_id": event.EventID,
				"attempt":  attempt,
				"delay":    delay,
			}).Info("Retrying event processing")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := handler(ctx, event)
		if err == nil {
			return nil
		}

		b.logger.WithError(err).WithFields(logrus.Fields{
			"event_id": event.EventID,
			"attempt":  attempt,
		}).Warn("Event processing failed")

		if attempt == maxRetries {
			return fmt.Errorf("max retries exceeded: %w", err)
		}
	}

	return fmt.Errorf("unexpected retry loop exit")
}

func (b *EventBus) sendToDLQ(ctx context.Context, key, value []byte, originalError error) error {
	dlqMessage := map[string]interface{}{
		"original_message": json.RawMessage(value),
		"error":            originalError.Error(),
		"dlq_timestamp":    time.Now(),
	}
	if !json.Valid(value) {
		dlqMessage["original_message"] = string(value)
	}

	dlqBytes, err := json.Marshal(dlqMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message: %w", err)
	}

	message := kafka.Message{
		Key:   key,
		Value: dlqBytes,
		Headers: []kafka.Header{
			{Key: "original_topic", Value: []byte(b.topic)},
			{Key: "error", Value: []byte(originalError.Error())},
		},
	}

	if err := b.dlqWriter.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to DLQ: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"topic": b.dlqTopic,
		"error": originalError.Error(),
	}).Warn("Message sent to DLQ")

	return nil
}

func (b *EventBus) Close() error {
	var errs []error

	if err := b.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close producer: %w", err))
	}
	if err := b.reader.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close consumer: %w", err))
	}
	if err := b.dlqWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close DLQ writer: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing event bus: %v", errs)
	}

	return nil
}

// Stats returns consumer statistics for monitoring. Only available on a live reader.
func (b *EventBus) Stats() map[string]interface{} {
	r, ok := b.reader.(*kafka.Reader)
	if !ok {
		return map[string]interface{}{}
	}
	stats := r.Stats()
	return map[string]interface{}{
		"consumer_lag":    stats.Lag,
		"consumer_offset": stats.Offset,
		"messages_read":   stats.Messages,
		"bytes_read":      stats.Bytes,
		"rebalances":      stats.Rebalances,
		"timeouts":        stats.Timeouts,
		"errors":          stats.Errors,
	}
}
