package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/mwangaza-health/booking-gateway/internal/api/router"
	"github.com/mwangaza-health/booking-gateway/internal/booking"
	appconfig "github.com/mwangaza-health/booking-gateway/internal/config"
	"github.com/mwangaza-health/booking-gateway/internal/hospital"
	"github.com/mwangaza-health/booking-gateway/internal/http/handlers"
	"github.com/mwangaza-health/booking-gateway/internal/observability/metrics"
	"github.com/mwangaza-health/booking-gateway/internal/session"
	"github.com/mwangaza-health/booking-gateway/pkg/logging"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting booking-gateway API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"hospital_base_url", cfg.HospitalBaseURL,
	)

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
		cancel()
		os.Exit(1)
	}
	cancel()

	hospitalClient := hospital.NewClient(cfg.HospitalBaseURL, cfg.HospitalTimeout, logger)

	sessionStore := session.NewStore(redisClient, hospitalClient, logger)
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	if err := sessionStore.Load(ctx); err != nil {
		logger.Error("failed to restore persisted session", "error", err)
	}
	cancel()

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	registry := booking.NewRegistry(cfg.FormTTL, bookingMetrics, logger)

	bookingHandler := handlers.NewBooking(registry, hospitalClient, hospitalClient, sessionStore, bookingMetrics, logger)
	sessionHandler := handlers.NewSession(sessionStore, hospitalClient, logger)

	r := router.New(router.Deps{
		Config:  cfg,
		Logger:  logger,
		Booking: bookingHandler,
		Session: sessionHandler,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
