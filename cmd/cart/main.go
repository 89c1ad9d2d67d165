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

	"github.com/imamhossain-git/e-commerce/internal/cart/cache"
	"github.com/imamhossain-git/e-commerce/internal/cart/clients"
	"github.com/imamhossain-git/e-commerce/internal/cart/httpapi"
	"github.com/imamhossain-git/e-commerce/internal/cart/repository"
	"github.com/imamhossain-git/e-commerce/internal/cart/service"
	"github.com/imamhossain-git/e-commerce/internal/config"
	"github.com/imamhossain-git/e-commerce/internal/logging"
	"github.com/imamhossain-git/e-commerce/internal/telemetry"
)

func main() {
	configDir := flag.String("config", "./configs", "config directory")
	flag.Parse()

	cfg, err := config.Load(*configDir, envName())
	if err != nil {
		logging.Init("cart", "./logs/cart.log").Error("loading config", "error", err)
		os.Exit(1)
	}

	log := logging.Init("cart", cfg.App.LogDir+"/cart.log")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, "cart-service", cfg.Otel.Endpoint)
	if err != nil {
		log.Error("setting up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracer(context.Background())

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database,
		cfg.Mongo.MaxPoolSize, cfg.Mongo.MinPoolSize)
	if err != nil {
		log.Error("connecting to mongodb", "error", err)
		os.Exit(1)
	}
	defer mongoDB.Client().Disconnect(context.Background())

	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Error("creating indexes", "error", err)
		os.Exit(1)
	}
	repo := repository.NewMongoRepository(mongoDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	catalog := clients.NewCatalogClient(cfg.Cart.CatalogURL, cfg.Cart.CallTimeout)
	carts := service.NewCartService(repo, cache.NewRedisCache(redisClient), catalog, log)
	handler := httpapi.NewHandler(carts, log)

	srv := &http.Server{
		Addr:         cfg.Cart.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("cart service listening", "addr", cfg.Cart.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down cart service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("cart service stopped")
}

func envName() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}
