package messaging

import (
	"context"
	"strings"
	"time"
)

// ChannelPublisher routes each event type to its own broker channel,
// "<prefix>.<eventType>".
type ChannelPublisher struct {
	broker Broker
	prefix string
	now    func() time.Time
}

func NewChannelPublisher(broker Broker, prefix string) *ChannelPublisher {
	return &ChannelPublisher{
		broker: broker,
		prefix: strings.TrimSuffix(prefix, "."),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (p *ChannelPublisher) Channel(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *ChannelPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	msg := Message{
		Type:       eventType,
		Payload:    payload,
		OccurredAt: p.now(),
	}
	if t, ok := payload.(Tenanted); ok {
		msg.TenantID = t.EventTenant()
	}
	return p.broker.Publish(ctx, p.Channel(eventType), msg)
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
