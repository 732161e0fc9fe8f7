package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restaurant/gateway/internal/config"
	"github.com/Skotchmaster/restaurant/gateway/internal/httpserver"
	"github.com/Skotchmaster/restaurant/gateway/internal/middleware"
	"github.com/Skotchmaster/restaurant/pkg/logging"
	"github.com/Skotchmaster/restaurant/pkg/middleware/csrf"
)

func main() {
	if err := godotenv.Load("gateway/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	probe := &http.Client{Timeout: 2 * time.Second}
	ready := func() error {
		for _, base := range []string{cfg.AuthURL, cfg.OrderURL} {
			resp, err := probe.Get(base + "/health/ready")
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("%s not ready: %d", base, resp.StatusCode)
			}
		}
		return nil
	}

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = os.Getenv("COOKIE_SECURE") == "true"
	csrfCfg.SkipPaths = []string{"/health/live", "/health/ready", "/api/v1/auth/login", "/api/v1/auth/register", "/api/v1/auth/logout"}

	e := echo.New()
	if err := httpserver.Register(e, &httpserver.Deps{
		AuthURL:         cfg.AuthURL,
		OrderURL:        cfg.OrderURL,
		JWTSecret:       cfg.JWTAccessSecret,
		UpstreamTimeout: cfg.UpstreamTimeout,
		Common:          middleware.Common(logger),
		CSRF:            csrfCfg,
		Ready:           ready,
	}); err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 5*time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("gateway listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
