package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/restaurant/pkg/events"
	"github.com/Skotchmaster/restaurant/pkg/logging"
	"github.com/Skotchmaster/restaurant/pkg/session"
	"github.com/Skotchmaster/restaurant/services/order/internal/backend"
	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
	"github.com/Skotchmaster/restaurant/services/order/internal/repo"
)

const (
	defaultBackendTimeout = 10 * time.Second
	defaultPaymentTimeout = 20 * time.Second
	defaultLockTTL        = time.Minute

	// lockMargin covers the local work around the two remote calls.
	lockMargin = 10 * time.Second
)

type CheckoutService struct {
	Sessions SessionStore
	Locks    Locker
	Orders   OrderStore
	Backend  OrderBackend
	Payments PaymentProcessor
	Events   events.Publisher
	Pricing  domain.Pricing

	BackendTimeout time.Duration
	PaymentTimeout time.Duration
	LockTTL        time.Duration

	Now func() time.Time
}

func (s *CheckoutService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// lockTTL never lets the submission lock expire before both remote calls
// have hit their deadlines.
func (s *CheckoutService) lockTTL() time.Duration {
	floor := orDefault(s.BackendTimeout, defaultBackendTimeout) + orDefault(s.PaymentTimeout, defaultPaymentTimeout) + lockMargin
	return max(orDefault(s.LockTTL, defaultLockTTL), floor)
}

func (s *CheckoutService) Wizard(ctx context.Context, sessionID string) (*domain.Checkout, error) {
	var state domain.CheckoutState
	err := s.Sessions.Load(ctx, sessionID, nsCheckout, &state)
	switch {
	case err == nil:
		return domain.RestoreCheckout(state, s.Payments), nil
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrVersion):
		return domain.NewCheckout(s.Payments), nil
	default:
		return nil, fmt.Errorf("load checkout: %w", err)
	}
}

func (s *CheckoutService) save(ctx context.Context, sessionID string, c *domain.Checkout) error {
	if err := s.Sessions.Save(ctx, sessionID, nsCheckout, c.State()); err != nil {
		return fmt.Errorf("save checkout: %w", err)
	}
	return nil
}

func (s *CheckoutService) Update(ctx context.Context, sessionID string, patch domain.FormPatch) (*domain.Checkout, error) {
	c, err := s.Wizard(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(patch); err != nil {
		return c, err
	}
	return c, s.save(ctx, sessionID, c)
}

// Advance moves to the next step when the current one validates. On a
// validation error the returned wizard is unchanged.
func (s *CheckoutService) Advance(ctx context.Context, sessionID string) (*domain.Checkout, error) {
	c, err := s.Wizard(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.Advance(); err != nil {
		return c, err
	}
	return c, s.save(ctx, sessionID, c)
}

func (s *CheckoutService) Retreat(ctx context.Context, sessionID string) (*domain.Checkout, error) {
	c, err := s.Wizard(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.Retreat()
	return c, s.save(ctx, sessionID, c)
}

type Quote struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	DeliveryFee      decimal.Decimal `json:"delivery_fee"`
	Total            decimal.Decimal `json:"total"`
	EstimatedArrival time.Time       `json:"estimated_arrival"`
}

// Quote prices the current cart for the wizard's delivery method.
func (s *CheckoutService) Quote(ctx context.Context, sessionID string) (Quote, error) {
	cart, err := loadCart(ctx, s.Sessions, sessionID)
	if err != nil {
		return Quote{}, err
	}
	c, err := s.Wizard(ctx, sessionID)
	if err != nil {
		return Quote{}, err
	}

	m := c.Form().DeliveryMethod
	subtotal := cart.Total()
	fee := s.Pricing.FeeFor(m)
	return Quote{
		Subtotal:         subtotal,
		DeliveryFee:      fee,
		Total:            subtotal.Add(fee),
		EstimatedArrival: s.now().Add(s.Pricing.ETAFor(m)),
	}, nil
}

// Submit turns the session's cart and wizard into an order. The order backend
// assigns the id; card orders are then authorized with the payment processor.
// A successful submission stores the order, marks it active and clears the
// cart and wizard. Backend and payment failures leave local state untouched;
// an order the backend accepted but the local store rejected also clears the
// cart and wizard so it cannot be placed twice.
func (s *CheckoutService) Submit(ctx context.Context, sessionID string) (*domain.Order, error) {
	l := logging.FromContext(ctx).With("op", "checkout.submit")

	lockName := checkoutLock(sessionID)
	token, ok, err := s.Locks.Acquire(ctx, lockName, s.lockTTL())
	if err != nil {
		return nil, fmt.Errorf("acquire checkout lock: %w", err)
	}
	if !ok {
		return nil, ErrCheckoutInProgress
	}
	defer func() {
		if err := s.Locks.Release(context.WithoutCancel(ctx), lockName, token); err != nil {
			l.Warn("release_lock_error", "error", err)
		}
	}()

	cart, err := loadCart(ctx, s.Sessions, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	wizard, err := s.Wizard(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	form, err := wizard.SubmissionForm()
	if err != nil {
		if saveErr := s.save(ctx, sessionID, wizard); saveErr != nil {
			l.Warn("save_checkout_error", "error", saveErr)
		}
		return nil, err
	}

	order := domain.NewOrder(sessionID, form, cart, s.Pricing, s.now())

	id, err := s.createRemote(ctx, order)
	if err != nil {
		l.Warn("submit_error", "kind", FailureBackend, "error", err)
		return nil, &CheckoutError{Kind: FailureBackend, TimedOut: isTimeout(err), Err: err}
	}
	order.ID = id

	if order.PaymentMethod == domain.PaymentMethodCard {
		if err := s.authorize(ctx, order, *form.Card); err != nil {
			cerr := &CheckoutError{Kind: FailurePayment, TimedOut: isTimeout(err), RemoteOrderID: id, Err: err}
			l.Warn("submit_error", "kind", FailurePayment, "order_id", id, "timed_out", cerr.TimedOut, "error", err)
			publish(ctx, s.Events, id, PaymentFailedEvent{
				Type:      EventPaymentFailed,
				OrderID:   id,
				SessionID: sessionID,
				Reason:    err.Error(),
				TimedOut:  cerr.TimedOut,
				At:        s.now(),
			})
			return nil, cerr
		}
	}

	if err := s.Orders.CreateOrder(ctx, order); err != nil {
		paid := order.PaymentMethod == domain.PaymentMethodCard
		if errors.Is(err, repo.ErrDuplicate) {
			err = fmt.Errorf("%w: %w", ErrConflict, err)
		}
		l.Error("submit_error", "kind", FailureRecord, "order_id", id, "paid", paid, "error", err)
		publish(ctx, s.Events, id, OrderNotRecordedEvent{
			Type:      EventOrderNotRecorded,
			OrderID:   id,
			SessionID: sessionID,
			Paid:      paid,
			Total:     order.Total,
			Reason:    err.Error(),
			At:        s.now(),
		})
		// The backend already holds the order; a resubmit would place (and
		// charge) it twice.
		s.clearSubmission(ctx, sessionID, id)
		return nil, &CheckoutError{Kind: FailureRecord, Paid: paid, RemoteOrderID: id, Err: err}
	}

	s.clearSubmission(ctx, sessionID, id)

	publish(ctx, s.Events, id, orderPlaced(order, s.now()))
	l.Info("order_placed", "order_id", id, "total", order.Total.StringFixed(2))
	return order, nil
}

func (s *CheckoutService) clearSubmission(ctx context.Context, sessionID, orderID string) {
	l := logging.FromContext(ctx)
	if err := s.Sessions.Delete(ctx, sessionID, nsCart); err != nil {
		l.Warn("clear_cart_error", "order_id", orderID, "error", err)
	}
	if err := s.Sessions.Delete(ctx, sessionID, nsCheckout); err != nil {
		l.Warn("clear_checkout_error", "order_id", orderID, "error", err)
	}
}

func (s *CheckoutService) createRemote(ctx context.Context, order *domain.Order) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(s.BackendTimeout, defaultBackendTimeout))
	defer cancel()
	return s.Backend.CreateOrder(ctx, order)
}

var errDeclined = errors.New("card declined")

// authorize creates a payment intent for the order and confirms it with the card.
// Intent creation and confirmation share one deadline.
func (s *CheckoutService) authorize(ctx context.Context, order *domain.Order, card domain.CardDetails) error {
	ctx, cancel := context.WithTimeout(ctx, orDefault(s.PaymentTimeout, defaultPaymentTimeout))
	defer cancel()

	secret, err := s.Payments.CreatePaymentIntent(ctx, order.ID)
	if err != nil {
		return err
	}

	res, err := s.Payments.ConfirmCardPayment(ctx, secret, card, backend.BillingDetails{
		Name:  order.CustomerName,
		Phone: order.Phone,
	})
	if err != nil {
		return err
	}
	if !res.Succeeded {
		return fmt.Errorf("%w: %s", errDeclined, res.ErrorMessage)
	}
	return nil
}
