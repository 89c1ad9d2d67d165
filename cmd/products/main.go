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

	"github.com/imamhossain-git/e-commerce/internal/catalog/httpapi"
	"github.com/imamhossain-git/e-commerce/internal/catalog/repository"
	"github.com/imamhossain-git/e-commerce/internal/config"
	"github.com/imamhossain-git/e-commerce/internal/logging"
	"github.com/imamhossain-git/e-commerce/internal/telemetry"
)

func main() {
	configDir := flag.String("config", "./configs", "config directory")
	flag.Parse()

	cfg, err := config.Load(*configDir, envName())
	if err != nil {
		logging.Init("products", "./logs/products.log").Error("loading config", "error", err)
		os.Exit(1)
	}

	log := logging.Init("products", cfg.App.LogDir+"/products.log")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, "products-service", cfg.Otel.Endpoint)
	if err != nil {
		log.Error("setting up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracer(context.Background())

	repo, err := repository.NewRepository(cfg.Catalog.DSN)
	if err != nil {
		log.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.Catalog.MigrationsDir); err != nil {
		log.Error("running migrations", "error", err)
		os.Exit(1)
	}

	handler := httpapi.NewHandler(repo, log)

	srv := &http.Server{
		Addr:         cfg.Catalog.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("products service listening", "addr", cfg.Catalog.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down products service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("products service stopped")
}

func envName() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}
