package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/restaurant/pkg/db"
	"github.com/Skotchmaster/restaurant/pkg/session"
	"github.com/Skotchmaster/restaurant/services/order/internal/backend"
	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
	"github.com/Skotchmaster/restaurant/services/order/internal/repo"
)

var fixedNow = time.Date(2026, 4, 10, 19, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu     sync.Mutex
	id     string
	err    error
	block  bool
	orders []*domain.Order

	// entered and release pause a call until the test lets it go.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeBackend) CreateOrder(ctx context.Context, o *domain.Order) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.entered != nil {
		close(f.entered)
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	cp := *o
	f.orders = append(f.orders, &cp)
	return f.id, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type fakePayments struct {
	intentErr    error
	confirm      backend.PaymentResult
	confirmErr   error
	blockConfirm bool

	intents  []string
	confirms []backend.BillingDetails
}

func (f *fakePayments) ValidateCard(card domain.CardDetails) error {
	if card.Token == "" {
		return errors.New("card details are incomplete")
	}
	return nil
}

func (f *fakePayments) CreatePaymentIntent(_ context.Context, orderID string) (string, error) {
	f.intents = append(f.intents, orderID)
	if f.intentErr != nil {
		return "", f.intentErr
	}
	return "secret_" + orderID, nil
}

func (f *fakePayments) ConfirmCardPayment(ctx context.Context, _ string, _ domain.CardDetails, billing backend.BillingDetails) (backend.PaymentResult, error) {
	f.confirms = append(f.confirms, billing)
	if f.blockConfirm {
		<-ctx.Done()
		return backend.PaymentResult{}, ctx.Err()
	}
	return f.confirm, f.confirmErr
}

// gatedStore pauses the first cart save until released.
type gatedStore struct {
	SessionStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(inner SessionStore) *gatedStore {
	return &gatedStore{SessionStore: inner, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) Save(ctx context.Context, sessionID, namespace string, v any) error {
	if namespace == nsCart {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.SessionStore.Save(ctx, sessionID, namespace, v)
}

// failingOrders fails every CreateOrder and delegates the rest.
type failingOrders struct {
	OrderStore
	err error
}

func (f failingOrders) CreateOrder(context.Context, *domain.Order) error { return f.err }

type published struct {
	topic, key string
	event      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, key: key, event: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		switch ev := e.event.(type) {
		case OrderPlacedEvent:
			out = append(out, ev.Type)
		case PaymentFailedEvent:
			out = append(out, ev.Type)
		case OrderNotRecordedEvent:
			out = append(out, ev.Type)
		case StatusChangedEvent:
			out = append(out, ev.Type)
		}
	}
	return out
}

type env struct {
	sessions *session.Memory
	repo     *repo.GormRepo
	backend  *fakeBackend
	payments *fakePayments
	events   *recordingPublisher

	cart     *CartService
	checkout *CheckoutService
	orders   *OrderService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	gdb, err := db.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	r := &repo.GormRepo{DB: gdb}
	require.NoError(t, r.Migrate(context.Background()))

	e := &env{
		sessions: session.NewMemory(),
		repo:     r,
		backend:  &fakeBackend{id: "101"},
		payments: &fakePayments{confirm: backend.PaymentResult{Succeeded: true}},
		events:   &recordingPublisher{},
	}
	clock := func() time.Time { return fixedNow }

	e.cart = &CartService{Sessions: e.sessions, Locks: e.sessions}
	e.checkout = &CheckoutService{
		Sessions:       e.sessions,
		Locks:          e.sessions,
		Orders:         r,
		Backend:        e.backend,
		Payments:       e.payments,
		Events:         e.events,
		Pricing:        domain.DefaultPricing(),
		BackendTimeout: 50 * time.Millisecond,
		PaymentTimeout: 50 * time.Millisecond,
		Now:            clock,
	}
	e.orders = &OrderService{Orders: r, Events: e.events, Now: clock}
	return e
}

func margherita() domain.CartLineItem {
	return domain.CartLineItem{ID: "1", Name: "Margherita", UnitPrice: decimal.RequireFromString("12.99")}
}

func ptr[T any](v T) *T { return &v }

// fillWizard walks the session's wizard to the payment step.
func (e *env) fillWizard(t *testing.T, sid string, m domain.DeliveryMethod, p domain.PaymentMethod, card *domain.CardDetails) {
	t.Helper()
	ctx := context.Background()

	patch := domain.FormPatch{
		DeliveryMethod: &m,
		PaymentMethod:  &p,
		CustomerName:   ptr("Ann"),
		Phone:          ptr("555-0100"),
		Card:           card,
	}
	if m == domain.DeliveryMethodDelivery {
		patch.Address = ptr("1 Main St")
	}
	_, err := e.checkout.Update(ctx, sid, patch)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := e.checkout.Advance(ctx, sid)
		require.NoError(t, err)
	}
}
