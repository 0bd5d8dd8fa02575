package messaging

import (
	"context"
	"time"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Publisher defines the interface for publishing messages
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// Message is the envelope written to a broker channel.
type Message struct {
	Type       string      `json:"type"`
	TenantID   string      `json:"tenant_id,omitempty"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Tenanted is implemented by payloads that belong to a single tenant.
type Tenanted interface {
	EventTenant() string
}
