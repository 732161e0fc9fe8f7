package config

import (
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/restaurant/pkg/config"
	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
)

type ServiceConfig struct {
	config.Config

	OrderBackendURL string
	PaymentURL      string

	BackendTimeout time.Duration
	PaymentTimeout time.Duration
	LockTTL        time.Duration
	SessionTTL     time.Duration

	Pricing domain.Pricing
}

// FromEnv reads the service settings without enforcing required keys.
func FromEnv() ServiceConfig {
	pricing := domain.DefaultPricing()
	if v := os.Getenv("DELIVERY_FEE"); v != "" {
		fee, err := decimal.NewFromString(v)
		if err != nil || fee.IsNegative() {
			log.Printf("warning: ignoring DELIVERY_FEE=%q", v)
		} else {
			pricing.DeliveryFee = fee
		}
	}
	pricing.DeliveryETA = config.EnvDurationDefault("DELIVERY_ETA", pricing.DeliveryETA)
	pricing.PickupETA = config.EnvDurationDefault("PICKUP_ETA", pricing.PickupETA)

	return ServiceConfig{
		Config:          config.Load(),
		OrderBackendURL: os.Getenv("ORDER_BACKEND_URL"),
		PaymentURL:      os.Getenv("PAYMENT_URL"),
		BackendTimeout:  config.EnvDurationDefault("ORDER_BACKEND_TIMEOUT", 10*time.Second),
		PaymentTimeout:  config.EnvDurationDefault("PAYMENT_TIMEOUT", 20*time.Second),
		LockTTL:         config.EnvDurationDefault("CHECKOUT_LOCK_TTL", time.Minute),
		SessionTTL:      config.EnvDurationDefault("SESSION_TTL", 7*24*time.Hour),
		Pricing:         pricing,
	}
}

func Load() ServiceConfig {
	cfg := FromEnv()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.OrderBackendURL, "ORDER_BACKEND_URL")
	config.MustNonEmpty(cfg.PaymentURL, "PAYMENT_URL")

	return cfg
}
