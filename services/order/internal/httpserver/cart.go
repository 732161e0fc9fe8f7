package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restaurant/pkg/logging"
	"github.com/Skotchmaster/restaurant/services/order/internal/transport"
)

func (h *OrderHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	cart, err := h.Cart.Cart(ctx, sessionID(c))
	if err != nil {
		return writeError(c, l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartResponse(cart))
}

func (h *OrderHTTP) AddCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_cart_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cart, err := h.Cart.AddItem(ctx, sessionID(c), req.Item())
	if err != nil {
		return writeError(c, l, "add_cart_item", err)
	}

	l.Info("add_cart_item_success", "item_id", req.ID)
	return c.JSON(http.StatusOK, transport.NewCartResponse(cart))
}

func (h *OrderHTTP) SetCartQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	var req transport.SetQuantityRequest
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		l.Warn("set_cart_quantity_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cart, err := h.Cart.SetQuantity(ctx, sessionID(c), c.Param("id"), *req.Quantity)
	if err != nil {
		return writeError(c, l, "set_cart_quantity", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartResponse(cart))
}

func (h *OrderHTTP) RemoveCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	cart, err := h.Cart.RemoveItem(ctx, sessionID(c), c.Param("id"))
	if err != nil {
		return writeError(c, l, "remove_cart_item", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartResponse(cart))
}

func (h *OrderHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Cart.Clear(ctx, sessionID(c)); err != nil {
		return writeError(c, l, "clear_cart", err)
	}
	return c.NoContent(http.StatusNoContent)
}
