package messaging

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Publisher fans a message out to live listeners.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Broker defines the interface for message brokers
type Broker interface {
	Publisher
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// UserChannel is the per-user realtime channel.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("notifications:%s", userID)
}
