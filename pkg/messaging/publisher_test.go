package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	message interface{}
}

type memoryBroker struct {
	sent []published
	err  error
}

func (b *memoryBroker) Publish(_ context.Context, channel string, message interface{}) error {
	if b.err != nil {
		return b.err
	}
	b.sent = append(b.sent, published{channel: channel, message: message})
	return nil
}

func (b *memoryBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (b *memoryBroker) Close() error { return nil }

type tenantPayload struct{ tenant string }

func (p tenantPayload) EventTenant() string { return p.tenant }

func TestChannelPublisher(t *testing.T) {
	broker := &memoryBroker{}
	pub := NewChannelPublisher(broker, "salon.ledger.")

	require.NoError(t, pub.Publish(context.Background(), "payment.created", tenantPayload{tenant: "t-1"}))
	require.Len(t, broker.sent, 1)
	assert.Equal(t, "salon.ledger.payment.created", broker.sent[0].channel)

	msg, ok := broker.sent[0].message.(Message)
	require.True(t, ok)
	assert.Equal(t, "payment.created", msg.Type)
	assert.Equal(t, "t-1", msg.TenantID)
	assert.False(t, msg.OccurredAt.IsZero())
}

func TestChannelPublisherPropagatesErrors(t *testing.T) {
	broker := &memoryBroker{err: errors.New("connection refused")}
	pub := NewChannelPublisher(broker, "")

	assert.Equal(t, "installment.paid", pub.Channel("installment.paid"))
	assert.Error(t, pub.Publish(context.Background(), "installment.paid", map[string]string{}))
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), "payment.created", nil))
}
