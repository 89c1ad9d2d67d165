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

	"github.com/imamhossain-git/e-commerce/internal/config"
	"github.com/imamhossain-git/e-commerce/internal/logging"
	"github.com/imamhossain-git/e-commerce/internal/telemetry"
	"github.com/imamhossain-git/e-commerce/internal/users/httpapi"
	"github.com/imamhossain-git/e-commerce/internal/users/repository"
	"github.com/imamhossain-git/e-commerce/internal/users/service"
)

func main() {
	configDir := flag.String("config", "./configs", "config directory")
	flag.Parse()

	cfg, err := config.Load(*configDir, envName())
	if err != nil {
		logging.Init("users", "./logs/users.log").Error("loading config", "error", err)
		os.Exit(1)
	}

	log := logging.Init("users", cfg.App.LogDir+"/users.log")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, "users-service", cfg.Otel.Endpoint)
	if err != nil {
		log.Error("setting up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracer(context.Background())

	repo, err := repository.NewRepository(cfg.Users.DSN)
	if err != nil {
		log.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.Users.MigrationsDir); err != nil {
		log.Error("running migrations", "error", err)
		os.Exit(1)
	}

	users := service.NewUserService(repo, log)
	handler := httpapi.NewHandler(users, log)

	srv := &http.Server{
		Addr:         cfg.Users.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("users service listening", "addr", cfg.Users.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down users service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("users service stopped")
}

func envName() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}
