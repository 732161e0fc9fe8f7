package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
	"github.com/Skotchmaster/restaurant/services/order/internal/service"
	"github.com/Skotchmaster/restaurant/services/order/internal/transport"
)

// writeError maps service errors to responses and logs them under op.
func writeError(c echo.Context, l *slog.Logger, op string, err error) error {
	if verr, ok := domain.IsValidationError(err); ok {
		l.Warn(op+"_error", "status", http.StatusUnprocessableEntity, "reason", "validation", "error", err)
		return c.JSON(http.StatusUnprocessableEntity, transport.ErrorResponse{
			Error:  "validation failed",
			Fields: verr.Fields,
		})
	}

	if cerr, ok := service.AsCheckoutError(err); ok {
		status := http.StatusBadGateway
		msg := "order service unavailable, please retry"
		switch cerr.Kind {
		case service.FailurePayment:
			status = http.StatusPaymentRequired
			msg = "payment failed, please retry"
		case service.FailureRecord:
			status = http.StatusInternalServerError
			msg = "order was placed but could not be saved, please contact the restaurant with your order number"
		}
		if cerr.TimedOut {
			status = http.StatusGatewayTimeout
		}
		l.Warn(op+"_error", "status", status, "reason", string(cerr.Kind), "remote_order_id", cerr.RemoteOrderID, "paid", cerr.Paid, "error", err)
		return c.JSON(status, transport.ErrorResponse{
			Error:         msg,
			Kind:          string(cerr.Kind),
			Retry:         cerr.Retryable(),
			Paid:          cerr.Paid,
			TimedOut:      cerr.TimedOut,
			RemoteOrderID: cerr.RemoteOrderID,
		})
	}

	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrInvalidTransition):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrCartLocked), errors.Is(err, service.ErrCheckoutInProgress):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrEmptyCart):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	default:
		l.Error(op+"_error", "status", http.StatusInternalServerError, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Warn(op+"_error", "status", status, "reason", msg, "error", err)
	return c.JSON(status, transport.ErrorResponse{Error: msg})
}
