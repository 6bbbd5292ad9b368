package core

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"tapcard-backend/pkg/messagequeue"
)

// Event types published after a state change commits.
const (
	EventCardCreated         = "card.created"
	EventCardUpdated         = "card.updated"
	EventCardDeleted         = "card.deleted"
	EventWalletSaved         = "wallet.saved"
	EventSubscriptionChanged = "subscription.changed"
)

// Event is the JSON body published to the events queue.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	CardID     string    `json:"cardId,omitempty"`
	CardLink   string    `json:"cardLink,omitempty"`
	Plan       string    `json:"plan,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventPublisher emits domain events. Publishing is best effort: failures are
// logged and never fail the operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}

type queueEventPublisher struct {
	queue     messagequeue.MessageQueue
	queueName string
	logger    *zap.Logger
}

// NewQueueEventPublisher publishes events as JSON onto queueName.
func NewQueueEventPublisher(queue messagequeue.MessageQueue, queueName string, logger *zap.Logger) EventPublisher {
	return &queueEventPublisher{queue: queue, queueName: queueName, logger: logger}
}

func (p *queueEventPublisher) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("Failed to encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	if err := p.queue.Publish(ctx, p.queueName, body); err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("type", event.Type),
			zap.String("queue", p.queueName),
			zap.Error(err))
	}
}

type nopEventPublisher struct{}

// NopEventPublisher discards events. Used when no broker is configured.
func NopEventPublisher() EventPublisher { return nopEventPublisher{} }

func (nopEventPublisher) Publish(context.Context, Event) {}
