package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// External services
	ReportAPIURL   string
	ReportUsername string
	ReportPassword string
	PriceFeedURL   string
	TrueWalletURL  string
	OKXBaseURL     string
	OKXAPIKey      string
	OKXSecretKey   string
	OKXPassphrase  string

	// Domain registry
	RegistryURL        string // Supabase project URL; empty = static list
	RegistryAnonKey    string
	RegistryServiceKey string
	StaticDomains      []string // fallback when no registry is configured

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	BankMaxRetries int           // per-domain bank fetch budget
	BankRetryDelay time.Duration // fixed backoff between bank retries
	MaxRetries     int           // everything else (exponential)
	InitialBackoff time.Duration
	MaxConcurrency int

	// Snapshot cache
	SnapshotTTL time.Duration

	// Exchange rate
	RateRefreshInterval time.Duration
	RateSpread          float64 // subtracted from the quoted THB/USDT price
	RateDefault         float64 // used until the first successful poll

	// Observability
	OTLPEndpoint string

	// Auth gate (verification only; token issuance is upstream)
	AdminJWTSecret string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ReportAPIURL:   getEnv("REPORT_API_URL", "http://localhost:8091"),
		ReportUsername: getEnv("REPORT_USERNAME", ""),
		ReportPassword: getEnv("REPORT_PASSWORD", ""),
		PriceFeedURL:   getEnv("PRICE_FEED_URL", "https://api.coingecko.com"),
		TrueWalletURL:  getEnv("TRUEWALLET_API_URL", "https://api.tmn.one"),
		OKXBaseURL:     getEnv("OKX_BASE_URL", "https://www.okx.com"),
		OKXAPIKey:      getEnv("OKX_API_KEY", ""),
		OKXSecretKey:   getEnv("OKX_SECRET_KEY", ""),
		OKXPassphrase:  getEnv("OKX_PASSPHRASE", ""),

		RegistryURL:        getEnv("REGISTRY_URL", ""),
		RegistryAnonKey:    getEnv("REGISTRY_ANON_KEY", ""),
		RegistryServiceKey: getEnv("REGISTRY_SERVICE_ROLE_KEY", ""),
		StaticDomains:      getEnvList("DOMAIN_URLS"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		BankMaxRetries: getEnvInt("BANK_MAX_RETRIES", 2),
		BankRetryDelay: getEnvDuration("BANK_RETRY_DELAY", time.Second),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		SnapshotTTL: getEnvDuration("SNAPSHOT_TTL", 30*time.Second),

		RateRefreshInterval: getEnvDuration("RATE_REFRESH_INTERVAL", time.Minute),
		RateSpread:          getEnvFloat("RATE_SPREAD", 0.20),
		RateDefault:         getEnvFloat("RATE_DEFAULT", 35.0),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
