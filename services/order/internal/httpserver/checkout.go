package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restaurant/pkg/logging"
	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
	"github.com/Skotchmaster/restaurant/services/order/internal/service"
	"github.com/Skotchmaster/restaurant/services/order/internal/transport"
)

func (h *OrderHTTP) GetCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.get")

	wiz, err := h.Checkout.Wizard(ctx, sessionID(c))
	if err != nil {
		return writeError(c, l, "get_checkout", err)
	}
	return c.JSON(http.StatusOK, transport.NewCheckoutResponse(wiz))
}

func (h *OrderHTTP) UpdateCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.update")

	var patch domain.FormPatch
	if err := c.Bind(&patch); err != nil {
		l.Warn("update_checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	wiz, err := h.Checkout.Update(ctx, sessionID(c), patch)
	if err != nil {
		return writeError(c, l, "update_checkout", err)
	}
	return c.JSON(http.StatusOK, transport.NewCheckoutResponse(wiz))
}

func (h *OrderHTTP) AdvanceCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.advance")

	wiz, err := h.Checkout.Advance(ctx, sessionID(c))
	if err != nil {
		return writeError(c, l, "advance_checkout", err)
	}
	return c.JSON(http.StatusOK, transport.NewCheckoutResponse(wiz))
}

func (h *OrderHTTP) RetreatCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.retreat")

	wiz, err := h.Checkout.Retreat(ctx, sessionID(c))
	if err != nil {
		return writeError(c, l, "retreat_checkout", err)
	}
	return c.JSON(http.StatusOK, transport.NewCheckoutResponse(wiz))
}

func (h *OrderHTTP) QuoteCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.quote")

	q, err := h.Checkout.Quote(ctx, sessionID(c))
	if err != nil {
		return writeError(c, l, "quote_checkout", err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *OrderHTTP) SubmitCheckout(c echo.Context) error {
	ctx := requestContext(c)
	l := logging.FromContext(ctx).With("handler", "checkout.submit")

	order, err := h.Checkout.Submit(ctx, sessionID(c))
	if err != nil {
		return writeError(c, l, "submit_checkout", err)
	}

	l.Info("submit_checkout_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, service.NewTracking(order))
}
