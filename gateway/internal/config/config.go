package config

import (
	"time"

	"github.com/Skotchmaster/restaurant/pkg/config"
)

type GatewayConfig struct {
	config.Config

	AuthURL  string
	OrderURL string

	// UpstreamTimeout bounds a proxied call; checkout submission waits on two
	// remote calls so it has to outlast both.
	UpstreamTimeout time.Duration
}

func FromEnv() GatewayConfig {
	return GatewayConfig{
		Config:          config.Load(),
		AuthURL:         config.EnvDefault("AUTH_URL", ""),
		OrderURL:        config.EnvDefault("ORDER_URL", ""),
		UpstreamTimeout: config.EnvDurationDefault("UPSTREAM_TIMEOUT", 60*time.Second),
	}
}

func Load() GatewayConfig {
	cfg := FromEnv()

	config.MustNonEmpty(cfg.AuthURL, "AUTH_URL")
	config.MustNonEmpty(cfg.OrderURL, "ORDER_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")

	return cfg
}
