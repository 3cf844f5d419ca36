package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventTypePageDeleted marks a page removed from a story's graph.
// Consumers prune reader histories that still reference the page.
const EventTypePageDeleted = "page.deleted"

// StoryEvent is the envelope published to the story event queue.
type StoryEvent struct {
	Type       string    `json:"type"`
	StoryID    uuid.UUID `json:"storyId"`
	PageID     uuid.UUID `json:"pageId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// StoryEventPublisher pushes story graph events to interested consumers.
type StoryEventPublisher interface {
	PublishPageDeleted(ctx context.Context, storyID, pageID uuid.UUID) error
	Close() error
}

type rabbitMQPublisher struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

var _ StoryEventPublisher = (*rabbitMQPublisher)(nil)

// NewRabbitMQPublisher connects, opens a channel and declares the durable
// event queue.
func NewRabbitMQPublisher(url, queueName string, logger *zap.Logger) (StoryEventPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	logger.Info("RabbitMQ publisher initialized", zap.String("queue", queueName))
	return &rabbitMQPublisher{
		conn:      conn,
		channel:   channel,
		queueName: queueName,
		logger:    logger.Named("RabbitMQPublisher"),
	}, nil
}

func (p *rabbitMQPublisher) PublishPageDeleted(ctx context.Context, storyID, pageID uuid.UUID) error {
	event := StoryEvent{
		Type:       EventTypePageDeleted,
		StoryID:    storyID,
		PageID:     pageID,
		OccurredAt: time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal story event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	p.logger.Info("Published story event",
		zap.String("type", event.Type),
		zap.String("story_id", storyID.String()),
		zap.String("page_id", pageID.String()))
	return nil
}

func (p *rabbitMQPublisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("Failed to close RabbitMQ channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
