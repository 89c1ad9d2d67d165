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
	"github.com/imamhossain-git/e-commerce/internal/orders/clients"
	"github.com/imamhossain-git/e-commerce/internal/orders/events"
	"github.com/imamhossain-git/e-commerce/internal/orders/httpapi"
	"github.com/imamhossain-git/e-commerce/internal/orders/repository"
	"github.com/imamhossain-git/e-commerce/internal/orders/service"
	"github.com/imamhossain-git/e-commerce/internal/telemetry"
)

func main() {
	configDir := flag.String("config", "./configs", "config directory")
	flag.Parse()

	cfg, err := config.Load(*configDir, envName())
	if err != nil {
		logging.Init("orders", "./logs/orders.log").Error("loading config", "error", err)
		os.Exit(1)
	}

	log := logging.Init("orders", cfg.App.LogDir+"/orders.log")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, "orders-service", cfg.Otel.Endpoint)
	if err != nil {
		log.Error("setting up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracer(context.Background())

	repo, err := repository.NewRepository(cfg.Orders.DSN)
	if err != nil {
		log.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.Orders.MigrationsDir); err != nil {
		log.Error("running migrations", "error", err)
		os.Exit(1)
	}

	cartClient := clients.NewCartClient(cfg.Orders.CartURL, cfg.Orders.CallTimeout)
	catalogClient := clients.NewCatalogClient(cfg.Orders.CatalogURL, cfg.Orders.CallTimeout)

	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if publisher != nil {
		defer publisher.Close()
		log.Info("order events enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	orchestrator := service.NewOrchestrator(repo, cartClient, catalogClient, eventSink(publisher), cfg.Orders.CallTimeout, log)
	handler := httpapi.NewHandler(orchestrator, log)

	srv := &http.Server{
		Addr:         cfg.Orders.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("orders service listening", "addr", cfg.Orders.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down orders service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("orders service stopped")
}

// eventSink keeps the orchestrator's nil check honest: a nil *Publisher must
// arrive as a nil interface, not a typed nil.
func eventSink(p *events.Publisher) service.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func envName() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}
