package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rally-booking/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for the external notification service.
const (
	RKBookingApproved = "booking.approved"
	RKBookingRejected = "booking.rejected"
	RKRentalCancelled = "rental.event_cancelled"
	RKTokenIssued     = "auth.token_issued"
)

// GrantEvent announces a lifecycle transition for the mail-out consumer.
type GrantEvent struct {
	Kind       string    `json:"kind"` // "purchase" | "rental"
	GrantID    uint      `json:"grant_id"`
	UserID     uint      `json:"user_id"`
	VehicleID  uint      `json:"vehicle_id"`
	RallyID    uint      `json:"rally_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TokenEvent announces a freshly issued verification token.
type TokenEvent struct {
	UserID     uint      `json:"user_id"`
	TokenType  string    `json:"token_type"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier publishes fire-and-forget events. Every publish failure is
// logged and swallowed: a mail that never goes out must not roll back a
// ledger transition.
type Notifier struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewNotifier dials the broker. An empty url yields a disabled notifier
// whose publishes are silent no-ops, so local runs work without a broker.
func NewNotifier(url, exchange string) (*Notifier, error) {
	if url == "" {
		return &Notifier{}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Notifier{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends one event. Failures are logged, never returned.
func (n *Notifier) Publish(ctx context.Context, key string, v any) {
	if n.ch == nil {
		return
	}

	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal notification event "+key, err)
		return
	}

	err = n.ch.PublishWithContext(ctx, n.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        b,
	})
	if err != nil {
		logger.Error("Failed to publish notification event "+key, err)
	}
}

func (n *Notifier) Close() error {
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
