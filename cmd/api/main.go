package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lmoreau/profilhub/internal/auth"
	"github.com/lmoreau/profilhub/internal/config"
	"github.com/lmoreau/profilhub/internal/db"
	"github.com/lmoreau/profilhub/internal/geocode"
	httpx "github.com/lmoreau/profilhub/internal/http"
	"github.com/lmoreau/profilhub/internal/http/handlers"
	"github.com/lmoreau/profilhub/internal/observability"
	"github.com/lmoreau/profilhub/internal/repo/mongodb"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// tracing is optional; without an endpoint the router still mounts otelgin
	// against the default no-op provider
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "profilhub", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	// document store
	client, database, err := db.Connect(cfg.MongoURI, cfg.MongoDB)

	if err != nil {
		log.Error("mongo connect failed", "err", err)
		os.Exit(1)
	}

	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	repoCtx, repoCancel := config.WithTimeout(10 * time.Second)
	usersRepo, err := mongodb.NewUsersRepo(repoCtx, database, prom)
	repoCancel()

	if err != nil {
		log.Error("users repo init failed", "err", err)
		os.Exit(1)
	}

	// geocode cache is optional
	var cache geocode.Cache

	if cfg.RedisAddr != "" {
		redisCache := geocode.NewRedisCache(geocode.RedisConfig{Addr: cfg.RedisAddr})

		pingCtx, pingCancel := config.WithTimeout(2 * time.Second)
		err := redisCache.Ping(pingCtx)
		pingCancel()

		if err != nil {
			log.Warn("redis unreachable, geocode cache disabled", "err", err)
		} else {
			cache = redisCache
			defer redisCache.Close()
		}
	}

	var resolver handlers.AddressResolver

	if cfg.GeocodeEndpoint != "" {
		resolver = geocode.New(cfg.GeocodeEndpoint, cache, prom)
	}

	jwtManager := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)

	ping := func() error {
		ctx, cancel := config.WithTimeout(1 * time.Second)
		defer cancel()

		return client.Ping(ctx, nil)
	}

	// set up the router
	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Users:    usersRepo,
		JWT:      jwtManager,
		Resolver: resolver,
		Prom:     prom,
		Ping:     ping,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
