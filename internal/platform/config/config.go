// Package config loads process configuration from the environment so main
// stays lean. Every knob has a development default; production deployments
// override through URITHI_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
}

// Postgres captures the estate store connection.
type Postgres struct {
	// DSN is a pgx connection string. Empty means the in-memory stores are
	// used instead.
	DSN string
}

// Redis captures the conflict report cache connection.
type Redis struct {
	// URL is a redis:// connection URL. Empty means report caching is off.
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ReportTTL    time.Duration
}

// Kafka captures the event publisher connection.
type Kafka struct {
	// Brokers is the seed broker list. Empty means events stay in memory.
	Brokers []string
	Topic   string
}

// Engine captures the statutory parameters of the compliance engine.
type Engine struct {
	// Currency is the estate base currency.
	Currency string
	// ExemptionThreshold is the total tax liability, in the base currency,
	// below which an estate qualifies for exemption.
	ExemptionThreshold float64
	// AnnualInflationRate drives hotchpot compounding.
	AnnualInflationRate float64
	// RejectOverpayments switches the debt overpayment policy from
	// clamp-with-audit to outright rejection.
	RejectOverpayments bool
}

// Config is the full process configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Engine   Engine
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr: envString("URITHI_ADDR", ":8080"),
		},
		Postgres: Postgres{
			DSN: os.Getenv("URITHI_POSTGRES_DSN"),
		},
		Redis: Redis{
			URL:          os.Getenv("URITHI_REDIS_URL"),
			PoolSize:     envInt("URITHI_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("URITHI_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("URITHI_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("URITHI_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("URITHI_REDIS_WRITE_TIMEOUT", 3*time.Second),
			ReportTTL:    envDuration("URITHI_REPORT_CACHE_TTL", 24*time.Hour),
		},
		Kafka: Kafka{
			Brokers: envList("URITHI_KAFKA_BROKERS"),
			Topic:   envString("URITHI_KAFKA_TOPIC", "urithi.events"),
		},
		Engine: Engine{
			Currency:            envString("URITHI_CURRENCY", "KES"),
			ExemptionThreshold:  envFloat("URITHI_TAX_EXEMPTION_THRESHOLD", 500_000),
			AnnualInflationRate: envFloat("URITHI_ANNUAL_INFLATION_RATE", 0.055),
			RejectOverpayments:  os.Getenv("URITHI_REJECT_OVERPAYMENTS") == "true",
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
