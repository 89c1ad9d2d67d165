package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/imamhossain-git/e-commerce/internal/config"
	"github.com/imamhossain-git/e-commerce/internal/gateway"
	"github.com/imamhossain-git/e-commerce/internal/logging"
	"github.com/imamhossain-git/e-commerce/internal/session"
	"github.com/imamhossain-git/e-commerce/internal/telemetry"
)

func main() {
	configDir := flag.String("config", "./configs", "config directory")
	flag.Parse()

	cfg, err := config.Load(*configDir, envName())
	if err != nil {
		logging.Init("gateway", "./logs/gateway.log").Error("loading config", "error", err)
		os.Exit(1)
	}

	log := logging.Init("gateway", cfg.App.LogDir+"/gateway.log")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, "api-gateway", cfg.Otel.Endpoint)
	if err != nil {
		log.Error("setting up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracer(context.Background())

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	sessions := session.NewStore(redisClient, cfg.Gateway.SessionTTL)
	limiter := gateway.NewRateLimiter(redisClient, cfg.Gateway.RateLimit.Max, cfg.Gateway.RateLimit.Window, log)

	proxy, err := gateway.NewProxy(cfg.Gateway.Backends, cfg.Gateway.BackendTimeout, log)
	if err != nil {
		log.Error("building routing table", "error", err)
		os.Exit(1)
	}

	secureCookies := cfg.App.Env == "production"
	router := gateway.NewRouter(proxy, sessions, limiter, cfg.HTTP.RequestTimeout, secureCookies, log)

	srv := &http.Server{
		Addr:         cfg.Gateway.Addr,
		Handler:      otelhttp.NewHandler(router, "gateway"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("gateway listening", "addr", cfg.Gateway.Addr, "backends", len(cfg.Gateway.Backends))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("gateway stopped")
}

func envName() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}
