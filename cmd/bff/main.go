package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/payops/dashboard-bff-go/internal/config"
	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/handler"
	"github.com/payops/dashboard-bff-go/internal/infra/cache"
	"github.com/payops/dashboard-bff-go/internal/infra/client"
	"github.com/payops/dashboard-bff-go/internal/infra/observability"
	"github.com/payops/dashboard-bff-go/internal/infra/registry"
	"github.com/payops/dashboard-bff-go/internal/infra/resilience"
	"github.com/payops/dashboard-bff-go/internal/port"
	"github.com/payops/dashboard-bff-go/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = godotenv.Load()

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_registry", cfg.RegistryURL != ""),
		zap.Int("static_domains", len(cfg.StaticDomains)),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("snapshot_ttl", cfg.SnapshotTTL),
		zap.Duration("rate_refresh_interval", cfg.RateRefreshInterval),
		zap.Float64("rate_spread", cfg.RateSpread),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "payops-dashboard-bff")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	snapshotCache := cache.New[domain.DomainSnapshot](cfg.SnapshotTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	// Bank fetches retry on a fixed budget, independent per domain.
	bankCfg := resilience.Config{
		MaxRetries:     cfg.BankMaxRetries,
		InitialBackoff: cfg.BankRetryDelay,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	banksClient := client.NewBanksClient(httpClient, bankCfg)
	reportClient := client.NewReportClient(
		httpClient,
		cfg.ReportAPIURL,
		cfg.ReportUsername,
		cfg.ReportPassword,
		resilience.NewCircuitBreaker("report-api"),
		resilienceCfg,
	)
	priceFeed := client.NewPriceFeedClient(
		httpClient,
		cfg.PriceFeedURL,
		resilience.NewCircuitBreaker("price-feed"),
		resilienceCfg,
	)
	walletClient := client.NewTrueWalletClient(
		httpClient,
		cfg.TrueWalletURL,
		resilience.NewCircuitBreaker("truewallet"),
		resilienceCfg,
	)
	okxClient := client.NewOKXClient(
		httpClient,
		cfg.OKXBaseURL,
		cfg.OKXAPIKey,
		cfg.OKXSecretKey,
		cfg.OKXPassphrase,
		resilience.NewCircuitBreaker("okx"),
		resilienceCfg,
	)

	// --- Domain store ---
	var store port.DomainStore
	if cfg.RegistryURL != "" {
		logger.Info("using registry as domain store",
			zap.String("registry_url", cfg.RegistryURL),
		)
		store = registry.NewClient(
			httpClient,
			cfg.RegistryURL,
			cfg.RegistryAnonKey,
			cfg.RegistryServiceKey,
			resilience.NewCircuitBreaker("registry"),
			resilienceCfg,
			logger,
		)
	} else {
		logger.Info("using static domain list",
			zap.Int("count", len(cfg.StaticDomains)),
		)
		store = registry.NewStaticStore(cfg.StaticDomains)
	}

	// --- Services ---
	aggregator := service.NewAggregator(store, banksClient, snapshotCache, metrics, logger)
	rates := service.NewRateManager(priceFeed, cfg.RateSpread, cfg.RateDefault, cfg.RateRefreshInterval, metrics, logger)
	reconciler := service.NewReconciler(reportClient, rates, metrics, logger)
	treasury := service.NewTreasury(walletClient, okxClient, metrics, logger)
	domainsSvc := service.NewDomainsService(store, logger)

	rates.Start(context.Background())
	defer rates.Stop()

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Aggregator: aggregator,
		Reconciler: reconciler,
		Rates:      rates,
		Treasury:   treasury,
		Domains:    domainsSvc,
	}, metrics, cfg.AdminJWTSecret, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
