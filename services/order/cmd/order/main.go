package main

import (
	"context"
	"errors"
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
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	pkgdb "github.com/Skotchmaster/restaurant/pkg/db"
	"github.com/Skotchmaster/restaurant/pkg/events"
	"github.com/Skotchmaster/restaurant/pkg/logging"
	loggingmw "github.com/Skotchmaster/restaurant/pkg/middleware/logging"
	"github.com/Skotchmaster/restaurant/pkg/session"

	"github.com/Skotchmaster/restaurant/services/order/internal/backend"
	ordercfg "github.com/Skotchmaster/restaurant/services/order/internal/config"
	"github.com/Skotchmaster/restaurant/services/order/internal/httpserver"
	"github.com/Skotchmaster/restaurant/services/order/internal/repo"
	"github.com/Skotchmaster/restaurant/services/order/internal/service"
)

type sessionBackend interface {
	service.SessionStore
	service.Locker
}

func main() {
	if err := godotenv.Load("services/order/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := ordercfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db open: %v", err)
	}

	orders := &repo.GormRepo{DB: db}
	if err := orders.Migrate(ctx); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}

	var (
		sessions    sessionBackend
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient, err = session.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			cancel()
			log.Fatalf("redis: %v", err)
		}
		sessions = session.NewStore(redisClient, cfg.SessionTTL)
	} else {
		logger.Warn("REDIS_ADDR is empty, carts and checkouts are kept in process memory")
		sessions = session.NewMemory()
	}
	cancel()

	publisher, err := events.New(cfg.KafkaBrokers)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}

	payments := backend.NewPaymentClient(cfg.PaymentURL)

	handler := &httpserver.OrderHTTP{
		Cart: &service.CartService{Sessions: sessions, Locks: sessions},
		Checkout: &service.CheckoutService{
			Sessions:       sessions,
			Locks:          sessions,
			Orders:         orders,
			Backend:        backend.NewOrderClient(cfg.OrderBackendURL),
			Payments:       payments,
			Events:         publisher,
			Pricing:        cfg.Pricing,
			BackendTimeout: cfg.BackendTimeout,
			PaymentTimeout: cfg.PaymentTimeout,
			LockTTL:        cfg.LockTTL,
		},
		Orders: &service.OrderService{Orders: orders, Events: publisher},
	}

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler: handler,
		JWTSecret:    cfg.JWTAccessSecret,
		Ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(pingCtx); err != nil {
				return err
			}
			if redisClient != nil {
				return redisClient.Ping(pingCtx).Err()
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.BackendTimeout + cfg.PaymentTimeout + 15*time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("order listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if err := publisher.Close(); err != nil {
		logger.Warn("kafka close", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("order stopped")
}
