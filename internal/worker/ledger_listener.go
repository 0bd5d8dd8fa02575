// Package worker holds the background jobs run by cmd/worker.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/salon-api/internal/service/payment"
	"github.com/jwalitptl/salon-api/pkg/messaging"
	"github.com/jwalitptl/salon-api/pkg/metrics"
)

// LedgerEventTypes are the event types the payment service publishes.
var LedgerEventTypes = []string{
	payment.EventPaymentCreated,
	payment.EventInstallmentPaid,
	payment.EventPaymentToppedUp,
	payment.EventPaymentCompleted,
}

// Envelope is a broker message with its payload left undecoded.
type Envelope struct {
	Type       string          `json:"type"`
	TenantID   string          `json:"tenant_id"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type EventHandler func(ctx context.Context, env Envelope) error

// LedgerListener subscribes to every ledger channel and hands each message
// to a handler.
type LedgerListener struct {
	broker    messaging.Broker
	publisher *messaging.ChannelPublisher
	handle    EventHandler
	metrics   *metrics.Metrics
}

func NewLedgerListener(broker messaging.Broker, prefix string, handle EventHandler, m *metrics.Metrics) *LedgerListener {
	if handle == nil {
		handle = LogEvent
	}
	return &LedgerListener{
		broker:    broker,
		publisher: messaging.NewChannelPublisher(broker, prefix),
		handle:    handle,
		metrics:   m,
	}
}

// Run blocks until ctx is done or every subscription has closed. A failed
// subscription stops the ones already running before Run returns.
func (l *LedgerListener) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, eventType := range LedgerEventTypes {
		channel := l.publisher.Channel(eventType)
		msgs, err := l.broker.Subscribe(ctx, channel)
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("subscribe %s: %w", channel, err)
		}
		log.Info().Str("channel", channel).Msg("listening for ledger events")

		wg.Add(1)
		go func(eventType string, msgs <-chan []byte) {
			defer wg.Done()
			for raw := range msgs {
				l.dispatch(ctx, eventType, raw)
			}
		}(eventType, msgs)
	}
	wg.Wait()
	return ctx.Err()
}

func (l *LedgerListener) dispatch(ctx context.Context, eventType string, raw []byte) {
	var env Envelope
	err := json.Unmarshal(raw, &env)
	if err == nil {
		err = l.handle(ctx, env)
	} else {
		err = fmt.Errorf("decode %s message: %w", eventType, err)
	}
	l.metrics.ObserveConsume(eventType, err)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to handle ledger event")
	}
}

// LogEvent writes a ledger event to the log.
func LogEvent(_ context.Context, env Envelope) error {
	var evt payment.LedgerEvent
	if err := json.Unmarshal(env.Payload, &evt); err != nil {
		return fmt.Errorf("decode ledger event: %w", err)
	}
	log.Info().
		Str("event_type", env.Type).
		Str("tenant_id", env.TenantID).
		Str("payment_id", evt.PaymentID.String()).
		Str("amount", evt.Amount.String()).
		Str("remaining", evt.RemainingAmount.String()).
		Str("status", string(evt.Status)).
		Time("occurred_at", env.OccurredAt).
		Msg("ledger event")
	return nil
}
