package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/restaurant/pkg/middleware/auth"
)

type Deps struct {
	OrderHandler *OrderHTTP
	JWTSecret    []byte
	Ready        func() error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAuthMiddleware(d.JWTSecret)
	h := d.OrderHandler

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", h.GetCart)
	cart.POST("/items", h.AddCartItem)
	cart.PATCH("/items/:id", h.SetCartQuantity)
	cart.DELETE("/items/:id", h.RemoveCartItem)
	cart.DELETE("", h.ClearCart)

	checkout := e.Group("/checkout", authMW.RequireAuth)
	checkout.GET("", h.GetCheckout)
	checkout.PATCH("", h.UpdateCheckout)
	checkout.GET("/quote", h.QuoteCheckout)
	checkout.POST("/advance", h.AdvanceCheckout)
	checkout.POST("/retreat", h.RetreatCheckout)
	checkout.POST("/submit", h.SubmitCheckout)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.GET("", h.History)
	orders.GET("/active", h.ActiveOrder)
	orders.PUT("/active/:id", h.SetActiveOrder)
	orders.GET("/:id/tracking", h.Tracking)
	orders.POST("/:id/cancel", h.CancelOrder)

	admin := e.Group("/admin/orders", authMW.RequireAdmin)
	admin.GET("", h.AdminListOrders)
	admin.PATCH("/:id/status", h.AdminUpdateStatus)
}
