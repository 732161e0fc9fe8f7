package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/restaurant/services/order/internal/backend"
	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
)

func TestSubmit_PickupCash(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.cart.AddItem(ctx, "s-1", margherita())
	require.NoError(t, err)
	e.fillWizard(t, "s-1", domain.DeliveryMethodPickup, domain.PaymentMethodCash, nil)

	order, err := e.checkout.Submit(ctx, "s-1")
	require.NoError(t, err)

	assert.Equal(t, "101", order.ID)
	assert.Equal(t, "12.99", order.Subtotal.StringFixed(2))
	assert.True(t, order.DeliveryFee.IsZero())
	assert.Equal(t, "12.99", order.Total.StringFixed(2))
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, fixedNow.Add(20*time.Minute), order.EstimatedArrival)
	assert.Empty(t, e.payments.intents, "cash orders skip the processor")

	stored, err := e.repo.GetOrder(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, "12.99", stored.Total.StringFixed(2))

	active, err := e.orders.Active(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "101", active.ID)

	cart, err := e.cart.Cart(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	wiz, err := e.checkout.Wizard(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepService, wiz.Step(), "wizard starts over after an order")

	assert.Equal(t, []string{EventOrderPlaced}, e.events.types())
}

func TestSubmit_DeliveryCardSucceeds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.cart.AddItem(ctx, "s-1", margherita())
	require.NoError(t, err)
	_, err = e.cart.AddItem(ctx, "s-1", margherita())
	require.NoError(t, err)
	e.fillWizard(t, "s-1", domain.DeliveryMethodDelivery, domain.PaymentMethodCard, &domain.CardDetails{Token: "pm_1", Last4: "4242"})

	order, err := e.checkout.Submit(ctx, "s-1")
	require.NoError(t, err)

	assert.Equal(t, "30.98", order.Total.StringFixed(2))
	assert.Equal(t, "1 Main St", order.Address)
	assert.Equal(t, []string{"101"}, e.payments.intents)
	require.Len(t, e.payments.confirms, 1)
	assert.Equal(t, backend.BillingDetails{Name: "Ann", Phone: "555-0100"}, e.payments.confirms[0])

	require.Len(t, e.backend.orders, 1)
	assert.Equal(t, "5.00", e.backend.orders[0].DeliveryFee.StringFixed(2))
}

func TestSubmit_CardDeclinedKeepsLocalState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.payments.confirm = backend.PaymentResult{ErrorMessage: "Your card was declined."}

	_, err := e.cart.AddItem(ctx, "s-1", margherita())
	require.NoError(t, err)
	e.fillWizard(t, "s-1", domain.DeliveryMethodPickup, domain.PaymentMethodCard, &domain.CardDetails{Token: "pm_1"})

	order, err := e.checkout.Submit(ctx, "s-1")
	require.Nil(t, order)
	assert.ErrorIs(t, err, ErrPayment)
	assert.NotErrorIs(t, err, ErrTimeout)

	cerr, ok := AsCheckoutError(err)
	require.True(t, ok)
	assert.Equal(t, FailurePayment, cerr.Kind)
	assert.Equal(t, "101", cerr.RemoteOrderID)
	assert.Contains(t, cerr.Error(), "Your card was declined.")

	_, err = e.repo.GetOrder(ctx, "101")
	assert.Error(t, err, "no local order after a decline")

	cart, err := e.cart.Cart(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Len())

	wiz, err := e.checkout.Wizard(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, wiz.Step())
	assert.Equal(t, "Ann", wiz.Form().CustomerName)

	assert.Equal(t, []string{EventPaymentFailed}, e.events.types())

	locked, err := e.sessions.Locked(ctx, checkoutLock("s-1"))
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestSubmit_PaymentTimeout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.payments.blockConfirm = true

	_, err := e.cart.AddItem(ctx, "s-1", margherita())
	require.NoError(t, err)
	e.fillWizard(t, "s-1", domain.DeliveryMethodPickup, domain.PaymentMethodCard, &domain.CardDetails{Token: "pm_1"})

	_, err = e.checkout.Submit(ctx, "s-1")
	assert.ErrorIs(t, err, ErrPayment)
	assert.ErrorIs(t, err, ErrTimeout)

	cerr, ok := AsCheckoutError(err)
	require.True(t, ok)
	assert.True(t, cerr.TimedOut)
}

func TestSubmit_BackendFailure(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*fakeBackend)
		timedOut bool
	}{
		{
			name:  "rejected",
			setup: func(b *fakeBackend) { b.err = &backend.RemoteError{Op: "create order", Status: 500} },
		},
		{
			name:     "timed out",
			setup:    func(b *fakeBackend) { b.block = true },
			timedOut: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			ctx := context.Background()
			tt.setup(e.backend)

			_, err := e.cart.AddItem(ctx, "s-1", margherita())
			require.NoError(t, err)
			e.fillWizard(t, "s-1", domain.DeliveryMethodPickup, domain.PaymentMethodCard, &domain.CardDetails{Token: "pm_1"})

			_, err = e.checkout.Submit(ctx, "s-1")
			assert.ErrorIs(t, err, ErrBackend)
			assert.Equal(t, tt.timedOut, errors.Is(err, ErrTimeout))

			cerr, ok := AsCheckoutError(err)
			require.True(t, ok)
			assert.Empty(t, cerr.RemoteOrderID)
			assert.Empty(t, e.payments.intents, "payment is never attempted without an order id")

			cart, err := e.cart.Cart(ctx, "s-1")
			require.NoError(t, err)
			assert.Equal(t, 1, cart.Len())
			assert.Empty(t, e.events.types())
		})
	}
}

func TestSubmit_EmptyCart(t *testing.T) {
	e := newEnv(t)
	e.fillWizard(t, "s-1", domain.DeliveryMethodPickup, domain.PaymentMethodCash, nil)

	_, err := e.checkout.Submit(context.Background(), "s-1")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, e.backend.calls())
}

func TestSubmit_NotAtPaymentStep(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.cart.AddItem(ctx, "s-1", margherita())
	require.NoError(t, err)

	_, err = e.checkout.Submit(ctx, "s-1")
	assert.ErrorIs(t, err, domain.ErrNotAtPaymentStep)
	assert.Zero(t, e.backend.calls())
}

func TestSubmit_InvalidFormReturnsToFailingStep(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.cart.AddItem(ctx, "s-1", margherita())
	require.NoError(t, err)
	e.fillWizard(t, "s-1", domain.DeliveryMethodDelivery, domain.PaymentMethodCash, nil)

	_, err = e.checkout.Update(ctx, "s-1", domain.FormPatch{Address: ptr("")})
	require.NoError(t, err)

	_, err = e.checkout.Submit(ctx, "s-1")
	verr, ok := domain.IsValidationError(err)
	require.True(t, ok)
	assert.True(t, verr.Has("address"))

	wiz, err := e.checkout.Wizard(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepDetails, wiz.Step())
	assert.Zero(t, e.backend.calls())
}

func TestSubmit_ConcurrentSubmissionIsRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.cart.AddItem(ctx, "s-1", margherita())
	require.NoError(t, err)
	e.fillWizard(t, "s-1", domain.DeliveryMethodPickup, domain.PaymentMethodCash, nil)

	_, ok, err := e.sessions.Acquire(ctx, checkoutLock("s-1"), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = e.checkout.Submit(ctx, "s-1")
	assert.ErrorIs(t, err, ErrCheckoutInProgress)

	_, err = e.cart.AddItem(ctx, "s-1", margherita())
	assert.ErrorIs(t, err, ErrCartLocked)
	assert.ErrorIs(t, e.cart.Clear(ctx, "s-1"), ErrCartLocked)
}

func TestCartMutationInFlightBlocksSubmit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.cart.AddItem(ctx, "s-1", margherita())
	require.NoError(t, err)
	e.fillWizard(t, "s-1", domain.DeliveryMethodPickup, domain.PaymentMethodCash, nil)

	gated := newGatedStore(e.sessions)
	racer := &CartService{Sessions: gated, Locks: e.sessions}

	cola := domain.CartLineItem{ID: "2", Name: "Cola", UnitPrice: decimal.RequireFromString("2.50")}
	addErr := make(chan error, 1)
	go func() {
		_, err := racer.AddItem(ctx, "s-1", cola)
		addErr <- err
	}()
	<-gated.entered

	// The add has loaded the cart and not yet saved it.
	_, err = e.checkout.Submit(ctx, "s-1")
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	assert.Zero(t, e.backend.calls())

	close(gated.release)
	require.NoError(t, <-addErr)

	order, err := e.checkout.Submit(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, order.Items, 2)

	cart, err := e.cart.Cart(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCartMutationDuringSubmitIsRejected(t *testing.T) {
	e := newEnv(t)
	e.checkout.BackendTimeout = 5 * time.Second
	e.backend.entered = make(chan struct{})
	e.backend.release = make(chan struct{})

	ctx := context.Background()
	_, err := e.cart.AddItem(ctx, "s-1", margherita())
	require.NoError(t, err)
	e.fillWizard(t, "s-1", domain.DeliveryMethodPickup, domain.PaymentMethodCash, nil)

	type result struct {
		order *domain.Order
		err   error
	}
	done := make(chan result, 1)
	go func() {
		o, err := e.checkout.Submit(ctx, "s-1")
		done <- result{o, err}
	}()
	<-e.backend.entered

	_, err = e.cart.AddItem(ctx, "s-1", margherita())
	assert.ErrorIs(t, err, ErrCartLocked)

	close(e.backend.release)
	res := <-done
	require.NoError(t, res.err)
	assert.Len(t, res.order.Items, 1)

	cart, err := e.cart.Cart(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestAdvance_DetailsAddressGate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.checkout.Advance(ctx, "s-1")
	require.NoError(t, err)
	_, err = e.checkout.Update(ctx, "s-1", domain.FormPatch{CustomerName: ptr("Ann"), Phone: ptr("555")})
	require.NoError(t, err)

	wiz, err := e.checkout.Advance(ctx, "s-1")
	verr, ok := domain.IsValidationError(err)
	require.True(t, ok)
	assert.True(t, verr.Has("address"))
	assert.Equal(t, domain.StepDetails, wiz.Step())

	wiz, err = e.checkout.Wizard(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepDetails, wiz.Step())

	wiz, err = e.checkout.Retreat(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepService, wiz.Step())
	assert.Equal(t, "Ann", wiz.Form().CustomerName)
}

func TestQuote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.cart.AddItem(ctx, "s-1", margherita())
	require.NoError(t, err)

	q, err := e.checkout.Quote(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "17.99", q.Total.StringFixed(2))
	assert.Equal(t, fixedNow.Add(45*time.Minute), q.EstimatedArrival)

	_, err = e.checkout.Update(ctx, "s-1", domain.FormPatch{DeliveryMethod: ptr(domain.DeliveryMethodPickup)})
	require.NoError(t, err)
	q, err = e.checkout.Quote(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "12.99", q.Total.StringFixed(2))
}

func TestSubmit_PaidButNotRecorded(t *testing.T) {
	e := newEnv(t)
	e.checkout.Orders = failingOrders{OrderStore: e.repo, err: errors.New("db down")}
	ctx := context.Background()

	_, err := e.cart.AddItem(ctx, "s-1", margherita())
	require.NoError(t, err)
	e.fillWizard(t, "s-1", domain.DeliveryMethodPickup, domain.PaymentMethodCard, &domain.CardDetails{Token: "pm_1", Last4: "4242"})

	_, err = e.checkout.Submit(ctx, "s-1")
	cerr, ok := AsCheckoutError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, FailureRecord, cerr.Kind)
	assert.True(t, cerr.Paid)
	assert.False(t, cerr.Retryable())
	assert.Equal(t, "101", cerr.RemoteOrderID)
	assert.ErrorIs(t, err, ErrNotRecorded)
	assert.Len(t, e.payments.confirms, 1)
	assert.Equal(t, []string{EventOrderNotRecorded}, e.events.types())

	cart, err := e.cart.Cart(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	wiz, err := e.checkout.Wizard(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepService, wiz.Step())

	// A second attempt cannot charge the card again.
	_, err = e.checkout.Submit(ctx, "s-1")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Len(t, e.payments.confirms, 1)
	assert.Equal(t, 1, e.backend.calls())
}

func TestLockTTL_OutlastsRemoteDeadlines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		svc  CheckoutService
		want time.Duration
	}{
		{name: "defaults", svc: CheckoutService{}, want: time.Minute},
		{name: "configured ttl wins", svc: CheckoutService{LockTTL: 5 * time.Minute}, want: 5 * time.Minute},
		{
			name: "long timeouts raise the ttl",
			svc:  CheckoutService{LockTTL: time.Minute, BackendTimeout: 40 * time.Second, PaymentTimeout: 50 * time.Second},
			want: 100 * time.Second,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.svc.lockTTL())
		})
	}
}
