package config

import "github.com/tuanhng/restaurant-pos/pkg/config"

type ServiceConfig struct {
	config.Config
}

func Load() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmpty(cfg.BillingURL, "BILLING_URL")

	return ServiceConfig{Config: cfg}
}
