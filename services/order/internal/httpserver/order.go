package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/restaurant/pkg/middleware/auth"
	"github.com/Skotchmaster/restaurant/pkg/logging"
	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
	"github.com/Skotchmaster/restaurant/services/order/internal/service"
	"github.com/Skotchmaster/restaurant/services/order/internal/transport"
	"github.com/Skotchmaster/restaurant/services/order/internal/util"
)

func (h *OrderHTTP) ActiveOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.active")

	o, err := h.Orders.Active(ctx, sessionID(c))
	if err != nil {
		return writeError(c, l, "active_order", err)
	}
	return c.JSON(http.StatusOK, service.NewTracking(o))
}

func (h *OrderHTTP) SetActiveOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.set_active")

	if err := h.Orders.SetActive(ctx, sessionID(c), c.Param("id")); err != nil {
		return writeError(c, l, "set_active_order", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHTTP) Tracking(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.tracking")

	o, err := h.Orders.Owned(ctx, sessionID(c), c.Param("id"))
	if err != nil {
		return writeError(c, l, "order_tracking", err)
	}
	return c.JSON(http.StatusOK, service.NewTracking(o))
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	o, err := h.Orders.Cancel(ctx, sessionID(c), c.Param("id"))
	if err != nil {
		return writeError(c, l, "cancel_order", err)
	}

	l.Info("cancel_order_success", "order_id", o.ID)
	return c.JSON(http.StatusOK, service.NewTracking(o))
}

func (h *OrderHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.history")

	page := util.ClampPage(util.ParseIntDefault(c.QueryParam("page"), 1))
	offset, limit := util.Calculate(page, util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize))

	total, items, err := h.Orders.History(ctx, sessionID(c), offset, limit)
	if err != nil {
		return writeError(c, l, "order_history", err)
	}
	return c.JSON(http.StatusOK, pageResponse(items, page, offset, limit, total))
}

func (h *OrderHTTP) AdminListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	page := util.ClampPage(util.ParseIntDefault(c.QueryParam("page"), 1))
	offset, limit := util.Calculate(page, util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize))

	total, items, err := h.Orders.List(ctx, domain.OrderStatus(c.QueryParam("status")), offset, limit)
	if err != nil {
		return writeError(c, l, "list_orders", err)
	}

	l.Info("list_orders_success", "total", total)
	return c.JSON(http.StatusOK, pageResponse(items, page, offset, limit, total))
}

type adminOrder struct {
	domain.Order
	SessionID    string               `json:"session_id"`
	NextStatuses []domain.OrderStatus `json:"next_statuses"`
}

func (h *OrderHTTP) AdminUpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_status")

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		l.Warn("update_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	o, err := h.Orders.UpdateStatus(ctx, c.Param("id"), req.Status, middleware.UserID(c))
	if err != nil {
		return writeError(c, l, "update_status", err)
	}

	l.Info("update_status_success", "order_id", o.ID, "to", o.Status)
	return c.JSON(http.StatusOK, adminOrder{Order: *o, SessionID: o.SessionID, NextStatuses: domain.NextStatuses(o)})
}

func pageResponse(items []domain.Order, page, offset, limit int, total int64) map[string]any {
	if items == nil {
		items = []domain.Order{}
	}
	return map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": util.TotalPages(total, limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	}
}
