package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/restaurant/services/order/internal/backend"
	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
	"github.com/Skotchmaster/restaurant/services/order/internal/repo"
)

const (
	nsCart     = "cart"
	nsCheckout = "checkout"
)

func checkoutLock(sessionID string) string { return "checkout:" + sessionID }

// SessionStore keeps per-session blobs. Load returns session.ErrNotFound when absent.
type SessionStore interface {
	Load(ctx context.Context, sessionID, namespace string, v any) error
	Save(ctx context.Context, sessionID, namespace string, v any) error
	Delete(ctx context.Context, sessionID, namespace string) error
}

type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, name, token string) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	SetStatus(ctx context.Context, id string, status domain.OrderStatus) (bool, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ActiveOrder(ctx context.Context, sessionID string) (*domain.Order, error)
	SetActive(ctx context.Context, sessionID, orderID string) error
	ListOrders(ctx context.Context, f repo.ListFilter, offset, limit int) (int64, []domain.Order, error)
}

type OrderBackend interface {
	CreateOrder(ctx context.Context, o *domain.Order) (string, error)
}

type PaymentProcessor interface {
	domain.CardValidator
	CreatePaymentIntent(ctx context.Context, orderID string) (string, error)
	ConfirmCardPayment(ctx context.Context, clientSecret string, card domain.CardDetails, billing backend.BillingDetails) (backend.PaymentResult, error)
}
