package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureQueue struct {
	queue  string
	bodies [][]byte
	err    error
}

func (q *captureQueue) Publish(_ context.Context, queueName string, body []byte) error {
	if q.err != nil {
		return q.err
	}
	q.queue = queueName
	q.bodies = append(q.bodies, body)
	return nil
}

func (q *captureQueue) Close() error { return nil }

func TestQueueEventPublisherEncodesEvent(t *testing.T) {
	q := &captureQueue{}
	pub := NewQueueEventPublisher(q, "card-events", zap.NewNop())
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	pub.Publish(context.Background(), Event{Type: EventCardCreated, UserID: "alice", CardID: "c1", CardLink: "alice", OccurredAt: at})

	require.Len(t, q.bodies, 1)
	assert.Equal(t, "card-events", q.queue)
	assert.JSONEq(t,
		`{"type":"card.created","userId":"alice","cardId":"c1","cardLink":"alice","occurredAt":"2024-05-01T12:00:00Z"}`,
		string(q.bodies[0]))
}

func TestQueueEventPublisherStampsTime(t *testing.T) {
	q := &captureQueue{}
	pub := NewQueueEventPublisher(q, "card-events", zap.NewNop())

	pub.Publish(context.Background(), Event{Type: EventSubscriptionChanged, UserID: "bob", Plan: "PRO"})

	require.Len(t, q.bodies, 1)
	var got Event
	require.NoError(t, json.Unmarshal(q.bodies[0], &got))
	assert.False(t, got.OccurredAt.IsZero())
	assert.Equal(t, "PRO", got.Plan)
}

func TestQueueEventPublisherSwallowsBrokerErrors(t *testing.T) {
	q := &captureQueue{err: errors.New("connection closed")}
	pub := NewQueueEventPublisher(q, "card-events", zap.NewNop())

	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), Event{Type: EventCardDeleted, UserID: "alice"})
	})
	assert.Empty(t, q.bodies)
}
