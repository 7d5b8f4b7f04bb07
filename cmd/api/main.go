package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/refhub/referralhub/internal/cache"
	"github.com/refhub/referralhub/internal/config"
	"github.com/refhub/referralhub/internal/db"
	httpx "github.com/refhub/referralhub/internal/http"
	"github.com/refhub/referralhub/internal/notifications"
	"github.com/refhub/referralhub/internal/observability"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	// tracing (optional, needs a collector endpoint)
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, "referralhub", cfg.OTLPEndpoint)

	if err != nil {
		log.Warn("tracing disabled", "err", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	// database pool + schema bootstrap
	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	mctx, mcancel := config.WithTimeout(10 * time.Second)
	err = db.EnsureSchema(mctx, pool)
	mcancel()

	if err != nil {
		log.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	// projection cache: redis when configured, in-process otherwise
	var projCache cache.ProjectionCache
	var redisCache *cache.Redis

	if cfg.RedisAddr != "" {
		redisCache = cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})

		pctx, pcancel := config.WithTimeout(2 * time.Second)
		err = redisCache.Ping(pctx)
		pcancel()

		if err != nil {
			log.Error("redis connect failed", "err", err)
			os.Exit(1)
		}

		projCache = redisCache
	} else {
		projCache = cache.NewMemory(cfg.CacheTTL)
	}

	notifier := notifications.NewLogNotifier(log)
	prom := observability.NewProm(prometheus.DefaultRegisterer)

	// set up routers
	router := httpx.NewRouter(cfg, pool, projCache, notifier, prom)

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

		sctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(sctx)

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

	tctx, tcancel := config.WithTimeout(5 * time.Second)
	_ = shutdownTracer(tctx)
	tcancel()

	if redisCache != nil {
		_ = redisCache.Close()
	}

	pool.Close()
	log.Info("database connection closed")
}
