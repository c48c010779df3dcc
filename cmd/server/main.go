package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/groupexpenses/internal/auth"
	"github.com/mmynk/groupexpenses/internal/config"
	"github.com/mmynk/groupexpenses/internal/gql"
	"github.com/mmynk/groupexpenses/internal/middleware"
	"github.com/mmynk/groupexpenses/internal/server"
	"github.com/mmynk/groupexpenses/internal/service"
	"github.com/mmynk/groupexpenses/internal/storage/sqlite"
	"github.com/mmynk/groupexpenses/pkg/logging"
)

const (
	shutdownTimeout   = 5 * time.Second
	rateLimitClients  = 10000
	rateLimitIdleTime = 3 * time.Minute
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath, sqlite.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		CheckoutTimeout: cfg.DBCheckoutTimeout,
	})
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	tokens, err := auth.NewTokenService(cfg.SecretKey(), cfg.TokenExpiration())
	if err != nil {
		return fmt.Errorf("initialize tokens: %w", err)
	}
	passwords := auth.NewPasswordService(
		auth.HashParams{
			MemoryKiB:   cfg.Security.HashMemoryKiB,
			Iterations:  cfg.Security.HashIterations,
			Parallelism: cfg.Security.HashParallelism,
			SaltLength:  cfg.Security.HashSaltLength,
			KeyLength:   cfg.Security.HashKeyLength,
		},
		cfg.HashWorkers(),
		auth.WithFixedSalt(cfg.HashSalt()),
		auth.WithDurationHistogram(metrics.PasswordHashDuration),
	)

	schema, err := gql.NewSchema(service.NewResolver(passwords, tokens, logger))
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	limiter, err := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, rateLimitClients, rateLimitIdleTime)
	if err != nil {
		return fmt.Errorf("initialize rate limiter: %w", err)
	}

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return fmt.Errorf("parse trusted proxies: %w", err)
	}

	router := server.NewRouter(server.Deps{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Schema:      schema,
		Tokens:      tokens,
		Metrics:     metrics,
		Registry:    registry,
		RateLimiter: limiter,

		TrustedProxies: trustedProxies,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return limiter.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("GraphQL server starting",
			"address", srv.Addr,
			"environment", cfg.Environment,
			"explorer", !cfg.Production(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
