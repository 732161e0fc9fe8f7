package httpserver

import (
	"context"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/restaurant/pkg/middleware/auth"
	"github.com/Skotchmaster/restaurant/services/order/internal/backend"
	"github.com/Skotchmaster/restaurant/services/order/internal/service"
)

const accessCookie = "accessToken"

type OrderHTTP struct {
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
}

// sessionID is the authenticated subject; RequireAuth guarantees it is set.
func sessionID(c echo.Context) string {
	return middleware.UserID(c)
}

// requestContext carries the caller's credential so backend calls are made on their behalf.
func requestContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	tok := middleware.BearerToken(c.Request())
	if tok == "" {
		if ck, err := c.Cookie(accessCookie); err == nil {
			tok = ck.Value
		}
	}
	if tok != "" {
		ctx = backend.WithCredential(ctx, tok)
	}
	return ctx
}
