package service

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
)

var (
	ErrValidation         = domain.ErrValidation          // 422
	ErrNotFound           = errors.New("not found")       // 404
	ErrConflict           = errors.New("conflict")        // 409
	ErrForbidden          = errors.New("forbidden")       // 403
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrCartLocked         = errors.New("cart is locked by a checkout in progress")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrBackend            = errors.New("order backend failure")
	ErrPayment            = errors.New("payment failure")
	ErrTimeout            = errors.New("timed out")
	ErrNotRecorded        = errors.New("order placed but not recorded")
)

type FailureKind string

const (
	FailureBackend FailureKind = "backend"
	FailurePayment FailureKind = "payment"
	// FailureRecord means the backend holds the order (paid, for card orders)
	// but it could not be stored locally. It must not be resubmitted.
	FailureRecord FailureKind = "record"
)

// CheckoutError is a failed submission. Backend and payment failures can be
// retried from the payment step; RemoteOrderID is set when the order backend
// already holds the order.
type CheckoutError struct {
	Kind          FailureKind
	TimedOut      bool
	Paid          bool
	RemoteOrderID string
	Err           error
}

func (e *CheckoutError) Retryable() bool { return e.Kind != FailureRecord }

func (e *CheckoutError) Error() string {
	msg := fmt.Sprintf("checkout %s failure", e.Kind)
	if e.TimedOut {
		msg += " (timed out)"
	}
	if e.RemoteOrderID != "" {
		msg += " for order " + e.RemoteOrderID
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CheckoutError) Unwrap() []error {
	errs := make([]error, 0, 3)
	switch e.Kind {
	case FailureBackend:
		errs = append(errs, ErrBackend)
	case FailurePayment:
		errs = append(errs, ErrPayment)
	case FailureRecord:
		errs = append(errs, ErrNotRecorded)
	}
	if e.TimedOut {
		errs = append(errs, ErrTimeout)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func AsCheckoutError(err error) (*CheckoutError, bool) {
	var cerr *CheckoutError
	if errors.As(err, &cerr) {
		return cerr, true
	}
	return nil, false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
