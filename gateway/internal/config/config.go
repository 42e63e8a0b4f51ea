package config

import (
	"log"
	"os"
)

type Config struct {
	ListenAddr  string
	TablesURL   string
	BillingURL  string
	CustomerURL string
	JWTSecret   []byte
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(v string, name string) string {
	if v == "" {
		log.Fatalf("missing required env %s", name)
	}
	return v
}

func Load() *Config {
	return &Config{
		ListenAddr:  getenv("GATEWAY_ADDR", ":8080"),
		TablesURL:   must(os.Getenv("TABLES_URL"), "TABLES_URL"),
		BillingURL:  must(os.Getenv("BILLING_URL"), "BILLING_URL"),
		CustomerURL: must(os.Getenv("CUSTOMER_URL"), "CUSTOMER_URL"),
		JWTSecret:   []byte(must(os.Getenv("JWT_HS256_SECRET"), "JWT_HS256_SECRET")),
	}
}
