package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/irfndi/celebrum-odds/internal/api"
	"github.com/irfndi/celebrum-odds/internal/api/handlers"
	"github.com/irfndi/celebrum-odds/internal/arbitrage"
	"github.com/irfndi/celebrum-odds/internal/cache"
	"github.com/irfndi/celebrum-odds/internal/config"
	"github.com/irfndi/celebrum-odds/internal/database"
	"github.com/irfndi/celebrum-odds/internal/logging"
	"github.com/irfndi/celebrum-odds/internal/middleware"
	"github.com/irfndi/celebrum-odds/internal/services"
	"github.com/irfndi/celebrum-odds/internal/telemetry"
	"github.com/irfndi/celebrum-odds/pkg/oddsapi"
)

const serviceName = "celebrum-odds"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	tokenSubject := flags.String("issue-admin-token", "", "print an admin JWT for `subject` and exit")
	tokenTTL := flags.Duration("token-ttl", 24*time.Hour, "lifetime of the issued admin token")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if *tokenSubject != "" {
		return issueAdminToken(cfg.Security, *tokenSubject, *tokenTTL, stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg)
}

func issueAdminToken(sec config.SecurityConfig, subject string, ttl time.Duration, w io.Writer) error {
	token, err := middleware.NewAuthMiddleware(sec).GenerateToken(subject, middleware.RoleAdmin, ttl)
	if err != nil {
		return fmt.Errorf("failed to issue admin token: %w", err)
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

func serve(ctx context.Context, cfg *config.Config) error {
	stdLogger, otlpLogger := logging.NewStandardOTLPLogger(logging.OTLPConfig{
		Enabled:        cfg.Telemetry.Enabled && cfg.Telemetry.OTLPEndpoint != "",
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceName:    serviceName,
		ServiceVersion: telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		LogLevel:       cfg.LogLevel,
	})
	logger := stdLogger.Logger()
	if otlpLogger != nil {
		defer func() {
			if err := otlpLogger.Shutdown(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to shutdown OTLP logger: %v\n", err)
			}
		}()
	}

	if _, err := telemetry.InitTelemetryWithProvider(ctx, &telemetry.TelemetryConfig{
		Enabled:        cfg.Telemetry.Enabled,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    firstNonEmpty(cfg.Telemetry.ServiceName, serviceName),
		ServiceVersion: telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		LogLevel:       cfg.LogLevel,
	}, logger); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetry.Shutdown(); err != nil {
			logger.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	// Long-running services log through logrus.
	logrusLogger := logging.NewLogrusLogger(cfg.LogLevel)

	db, err := database.NewPostgresConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	tracedDB := database.NewTracedDB(db.Pool)
	if err := database.EnsureSchema(ctx, tracedDB); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	repo := database.NewOddsRepository(tracedDB)

	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()
	opportunityCache := cache.NewOpportunityCache(redisClient.Client, cfg.Arbitrage.GetCacheTTL())

	optimizer := services.NewResourceOptimizer(services.ResourceOptimizerConfig{}, logrusLogger)
	workers := detectionWorkers(ctx, cfg.Arbitrage, optimizer, logrusLogger)

	allocator := arbitrage.NewStakeAllocator(cfg.Arbitrage.RoundingPlaces)
	finder := services.NewOpportunityFinder(repo, allocator, workers, cfg.Arbitrage.GetMaxQuoteAge(), logrusLogger)

	notifier, err := services.NewNotificationService(cfg.Telegram, opportunityCache, logrusLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}

	arbitrageService := services.NewArbitrageService(finder, opportunityCache, notifier, cfg.Arbitrage, logrusLogger)
	if err := arbitrageService.Start(); err != nil {
		return fmt.Errorf("failed to start arbitrage service: %w", err)
	}
	defer arbitrageService.Stop()

	// A nil collector leaves the admin collect endpoint disabled.
	var collector handlers.Collector
	var breakers handlers.BreakerReporter
	if cfg.OddsAPI.Enabled {
		client := oddsapi.NewClient(&cfg.OddsAPI)
		defer client.Close()

		breakerManager := services.NewCircuitBreakerManager(logrusLogger)
		breakers = breakerManager
		breaker := breakerManager.GetOrCreate("oddsapi", services.CircuitBreakerConfig{
			FailureThreshold: 3,
			SuccessThreshold: 1,
			Timeout:          2 * time.Minute,
			MaxRequests:      1,
		})
		collectorService := services.NewCollectorService(client, repo, breaker, cfg.OddsAPI, logrusLogger)
		if err := collectorService.Start(); err != nil {
			return fmt.Errorf("failed to start collector service: %w", err)
		}
		defer collectorService.Stop()
		collector = collectorService
	}

	cleanupService := services.NewCleanupService(repo, cfg.Cleanup, logrusLogger)
	cleanupService.Start()
	defer cleanupService.Stop()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(serviceName, cfg.Server.AllowedOrigins, api.Dependencies{
		DB:        db,
		Redis:     redisClient,
		Catalog:   repo,
		Finder:    finder,
		Passes:    arbitrageService,
		Collector: collector,
		Breakers:  breakers,
		Cleaner:   cleanupService,
		System:    optimizer,
		Allocator: allocator,
		Auth:      middleware.NewAuthMiddleware(cfg.Security),
		Version:   telemetry.ServiceVersion,
	})

	srv := newHTTPServer(cfg.Server, router)
	serverErr := make(chan error, 1)
	go func() {
		stdLogger.LogStartup(serviceName, telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		stdLogger.LogShutdown(serviceName, "signal received")
	}

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrusLogger.Info("Server exited gracefully")
	return nil
}

// detectionWorkers returns the configured worker count, or sizes the pool
// from the host when none is configured.
func detectionWorkers(ctx context.Context, cfg config.ArbitrageConfig, optimizer *services.ResourceOptimizer, logger *logrus.Logger) int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	sampleCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := optimizer.UpdateSystemMetrics(sampleCtx); err != nil {
		logger.WithError(err).Warn("Could not sample system load, sizing workers from hardware only")
	}
	return optimizer.DetectionWorkers()
}

func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       parseTimeout(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      parseTimeout(cfg.WriteTimeout, 15*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func parseTimeout(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
