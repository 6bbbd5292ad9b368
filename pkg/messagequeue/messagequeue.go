package messagequeue

import "context"

// MessageQueue defines the interface for message queue publishers.
type MessageQueue interface {
	Publish(ctx context.Context, queueName string, body []byte) error
	Close() error
}
