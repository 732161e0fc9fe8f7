package config

import (
	"os"
	"time"

	"github.com/Skotchmaster/restaurant/pkg/config"
)

type ServiceConfig struct {
	config.Config

	AccessTTL     time.Duration
	AdminUsername string
	AdminPassword string
	SecureCookies bool
}

func FromEnv() ServiceConfig {
	return ServiceConfig{
		Config:        config.Load(),
		AccessTTL:     config.EnvDurationDefault("ACCESS_TOKEN_TTL", 24*time.Hour),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SecureCookies: os.Getenv("COOKIE_SECURE") == "true",
	}
}

func Load() ServiceConfig {
	cfg := FromEnv()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")

	return cfg
}
