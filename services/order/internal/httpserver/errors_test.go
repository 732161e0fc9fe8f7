package httpserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/restaurant/services/order/internal/service"
)

func TestWriteError_CheckoutFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "payment declined",
			err:    &service.CheckoutError{Kind: service.FailurePayment, RemoteOrderID: "7", Err: errors.New("declined")},
			status: http.StatusPaymentRequired,
			body:   `{"error":"payment failed, please retry","kind":"payment","retry":true,"remote_order_id":"7"}`,
		},
		{
			name:   "backend timeout",
			err:    &service.CheckoutError{Kind: service.FailureBackend, TimedOut: true},
			status: http.StatusGatewayTimeout,
			body:   `{"error":"order service unavailable, please retry","kind":"backend","retry":true,"timed_out":true}`,
		},
		{
			name:   "paid but not recorded",
			err:    &service.CheckoutError{Kind: service.FailureRecord, Paid: true, RemoteOrderID: "7", Err: errors.New("db down")},
			status: http.StatusInternalServerError,
			body:   `{"error":"order was placed but could not be saved, please contact the restaurant with your order number","kind":"record","paid":true,"remote_order_id":"7"}`,
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/checkout/submit", nil), rec)

			require.NoError(t, writeError(c, logger, "submit", tt.err))
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}
