package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/restaurant/pkg/middleware/auth"
	"github.com/Skotchmaster/restaurant/pkg/middleware/csrf"
)

type Deps struct {
	AuthURL  string
	OrderURL string

	JWTSecret       []byte
	UpstreamTimeout time.Duration
	Common          []echo.MiddlewareFunc
	CSRF            csrf.Config
	Ready           func() error
}

func Register(e *echo.Echo, d *Deps) error {
	for _, m := range d.Common {
		e.Use(m)
	}
	e.Use(csrf.Middleware(d.CSRF))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authProxy, err := newProxy(d.AuthURL, "/api/v1/auth", d.UpstreamTimeout)
	if err != nil {
		return err
	}

	orderProxy, err := newProxy(d.OrderURL, "/api/v1", d.UpstreamTimeout)
	if err != nil {
		return err
	}

	e.Any("/api/v1/auth/*", authProxy)

	// Tokens are checked here as well so anonymous traffic never reaches the
	// order service; it still enforces ownership itself.
	guard := authmw.NewAuthMiddleware(d.JWTSecret)

	api := e.Group("/api/v1", guard.RequireAuth)
	for _, prefix := range []string{"/cart", "/checkout", "/orders"} {
		api.Any(prefix, orderProxy)
		api.Any(prefix+"/*", orderProxy)
	}

	admin := e.Group("/api/v1/admin", guard.RequireAdmin)
	admin.Any("/*", orderProxy)

	return nil
}
