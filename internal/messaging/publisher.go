package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cyoa-server/internal/interfaces"
	"cyoa-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	appID          = "cyoa-server"
	publishTimeout = 5 * time.Second
	publishRetries = 3
)

// Compile-time checks to ensure implementations satisfy the interface.
var (
	_ interfaces.EventPublisher = (*RabbitMQEventPublisher)(nil)
	_ interfaces.EventPublisher = NopEventPublisher{}
)

// publishChannel is the subset of *amqp.Channel the publisher needs.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQEventPublisher sends story events to a durable queue on the default exchange.
type RabbitMQEventPublisher struct {
	channel   publishChannel
	queueName string
	logger    *zap.Logger
	backoff   time.Duration
}

// NewRabbitMQEventPublisher opens a channel on conn and declares the queue.
func NewRabbitMQEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*RabbitMQEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("event publisher: failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("event publisher: failed to declare queue '%s': %w", queueName, err)
	}

	log := logger.Named("EventPublisher")
	log.Info("Story events queue declared", zap.String("queue", queueName))
	return newRabbitMQEventPublisher(ch, queueName, log), nil
}

func newRabbitMQEventPublisher(ch publishChannel, queueName string, logger *zap.Logger) *RabbitMQEventPublisher {
	return &RabbitMQEventPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger,
		backoff:   100 * time.Millisecond,
	}
}

// PublishStoryEvent publishes event as a persistent JSON message, retrying a few times.
func (p *RabbitMQEventPublisher) PublishStoryEvent(ctx context.Context, event models.StoryEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal story event %s: %w", event.Type, err)
	}
	if err := p.publishMessage(ctx, string(event.Type), body); err != nil {
		p.logger.Error("Failed to publish story event", zap.String("type", string(event.Type)), zap.Error(err))
		return err
	}
	return nil
}

func (p *RabbitMQEventPublisher) publishMessage(ctx context.Context, messageType string, body []byte) error {
	if p.channel == nil {
		return errors.New("rabbitmq channel is not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= publishRetries; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // default exchange
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Type:         messageType,
				Body:         body,
				Timestamp:    time.Now().UTC(),
				AppId:        appID,
			},
		)
		if err == nil {
			p.logger.Debug("Message published", zap.String("queue", p.queueName), zap.Int("attempt", attempt))
			return nil
		}
		p.logger.Warn("Publish attempt failed",
			zap.String("queue", p.queueName),
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("publish to queue %s aborted: %w", p.queueName, errors.Join(err, ctx.Err()))
		case <-time.After(time.Duration(attempt) * p.backoff):
		}
	}
	return fmt.Errorf("failed to publish to queue %s after %d attempts: %w", p.queueName, publishRetries, err)
}

// Close closes the underlying channel.
func (p *RabbitMQEventPublisher) Close() error {
	if p.channel == nil {
		return nil
	}
	return p.channel.Close()
}

// NopEventPublisher drops every event. Used when no broker is configured.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishStoryEvent(context.Context, models.StoryEvent) error { return nil }
