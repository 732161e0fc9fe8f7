package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *echo.Echo {
	e := echo.New()
	cfg := DefaultConfig()
	cfg.SkipPaths = []string{"/login"}
	e.Use(Middleware(cfg))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/cart", ok)
	e.POST("/cart", ok)
	e.POST("/login", ok)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_DoubleSubmit(t *testing.T) {
	t.Parallel()
	e := newServer()

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)

	post := func(header, origin string) int {
		req := httptest.NewRequest(http.MethodPost, "/cart", nil)
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
		if header != "" {
			req.Header.Set("X-CSRF-Token", header)
		}
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		return serve(e, req).Code
	}

	assert.Equal(t, http.StatusOK, post(token, "http://example.com"))
	assert.Equal(t, http.StatusForbidden, post("", "http://example.com"))
	assert.Equal(t, http.StatusForbidden, post(token+"x", "http://example.com"))
	assert.Equal(t, http.StatusForbidden, post(token, "http://evil.test"))
	assert.Equal(t, http.StatusForbidden, post(token, ""))
}

func TestMiddleware_Bypass(t *testing.T) {
	t.Parallel()
	e := newServer()

	assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodPost, "/login", nil)).Code)

	req := httptest.NewRequest(http.MethodPost, "/cart", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}
