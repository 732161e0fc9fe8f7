package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/restaurant/pkg/events"
	"github.com/Skotchmaster/restaurant/pkg/logging"
	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
)

const (
	EventOrderPlaced        = "order_placed"
	EventPaymentFailed      = "payment_failed"
	EventOrderStatusChanged = "order_status_changed"
	EventOrderNotRecorded   = "order_not_recorded"
)

type OrderPlacedEvent struct {
	Type           string          `json:"type"`
	OrderID        string          `json:"orderID"`
	SessionID      string          `json:"sessionID"`
	DeliveryMethod string          `json:"delivery_method"`
	PaymentMethod  string          `json:"payment_method"`
	Total          decimal.Decimal `json:"total"`
	At             time.Time       `json:"at"`
}

// PaymentFailedEvent flags an order the backend holds unpaid.
type PaymentFailedEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"orderID"`
	SessionID string    `json:"sessionID"`
	Reason    string    `json:"reason"`
	TimedOut  bool      `json:"timed_out"`
	At        time.Time `json:"at"`
}

// OrderNotRecordedEvent flags a backend order missing from the local store.
type OrderNotRecordedEvent struct {
	Type      string          `json:"type"`
	OrderID   string          `json:"orderID"`
	SessionID string          `json:"sessionID"`
	Paid      bool            `json:"paid"`
	Total     decimal.Decimal `json:"total"`
	Reason    string          `json:"reason"`
	At        time.Time       `json:"at"`
}

type StatusChangedEvent struct {
	Type    string    `json:"type"`
	OrderID string    `json:"orderID"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Actor   string    `json:"actor"`
	At      time.Time `json:"at"`
}

// publish never fails the caller; a lost event is logged.
func publish(ctx context.Context, p events.Publisher, key string, event any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, events.TopicOrderEvents, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "key", key, "error", err)
	}
}

func orderPlaced(o *domain.Order, at time.Time) OrderPlacedEvent {
	return OrderPlacedEvent{
		Type:           EventOrderPlaced,
		OrderID:        o.ID,
		SessionID:      o.SessionID,
		DeliveryMethod: string(o.DeliveryMethod),
		PaymentMethod:  string(o.PaymentMethod),
		Total:          o.Total,
		At:             at,
	}
}
