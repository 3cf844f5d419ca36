package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"storybranch-server/internal/history"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HistoryPruner consumes page.deleted events and trims every stored
// reader session that still references the deleted page. Readers parked
// on a removed page are rewound to the last page that still exists.
type HistoryPruner struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	sessions  history.SessionStore
	logger    *zap.Logger
}

// NewHistoryPruner connects and declares the same durable queue the
// publisher writes to.
func NewHistoryPruner(url, queueName string, sessions history.SessionStore, logger *zap.Logger) (*HistoryPruner, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	if _, err := channel.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	return &HistoryPruner{
		conn:      conn,
		channel:   channel,
		queueName: queueName,
		sessions:  sessions,
		logger:    logger.Named("HistoryPruner"),
	}, nil
}

// StartConsuming blocks until the delivery channel closes or ctx is done.
func (p *HistoryPruner) StartConsuming(ctx context.Context) error {
	deliveries, err := p.channel.Consume(
		p.queueName,
		"history-pruner", // consumer tag
		false,            // autoAck
		false,            // exclusive
		false,            // noLocal
		false,            // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming from %s: %w", p.queueName, err)
	}

	p.logger.Info("History pruner started", zap.String("queue", p.queueName))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", p.queueName)
			}
			p.handleDelivery(ctx, delivery)
		}
	}
}

func (p *HistoryPruner) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	var event StoryEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		p.logger.Error("Dropping undecodable story event", zap.Error(err))
		delivery.Nack(false, false)
		return
	}
	if event.Type != EventTypePageDeleted {
		p.logger.Debug("Ignoring story event", zap.String("type", event.Type))
		delivery.Ack(false)
		return
	}

	if err := p.pruneDeletedPage(ctx, event); err != nil {
		p.logger.Error("Failed to prune histories for deleted page",
			zap.String("page_id", event.PageID.String()), zap.Error(err))
		delivery.Nack(false, true) // requeue for retry
		return
	}
	delivery.Ack(false)
}

// pruneDeletedPage applies the delete-page transition to every stored
// session. Sessions on other stories are skipped by the page check
// itself: a page id absent from the log leaves the state untouched.
func (p *HistoryPruner) pruneDeletedPage(ctx context.Context, event StoryEvent) error {
	sessionKeys, err := p.sessions.Sessions(ctx)
	if err != nil {
		return err
	}

	pruned := 0
	for _, session := range sessionKeys {
		state, err := p.sessions.Get(ctx, session)
		if err != nil {
			return err
		}
		next := state.DeletePage(event.PageID)
		if len(next.PageHistory) == len(state.PageHistory) {
			continue
		}
		if err := p.sessions.Save(ctx, session, next); err != nil {
			return err
		}
		pruned++
	}

	p.logger.Info("Pruned reader histories",
		zap.String("page_id", event.PageID.String()),
		zap.String("story_id", event.StoryID.String()),
		zap.Int("sessions_pruned", pruned))
	return nil
}

// Close releases the channel and connection.
func (p *HistoryPruner) Close() error {
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
