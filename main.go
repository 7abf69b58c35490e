package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/config"
	"github.com/cityassist/cityassist/go-web/internal/localstore"
	"github.com/cityassist/cityassist/go-web/internal/views"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/cityassist/cityassist/go-web/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// deviceIdleTTL expires Redis-held device storage that has not been written for a while.
const deviceIdleTTL = 30 * 24 * time.Hour

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.SetFormat(os.Getenv("LOG_FORMAT"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: api=%s localstore=%s", cfg.Web.APIBaseURL, cfg.LocalStore.Driver)

	backend, err := openLocalStore(cfg)
	if err != nil {
		logger.Fatalf("failed to open local storage (%s): %v", cfg.LocalStore.Driver, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warnf("close local storage: %v", err)
		}
	}()

	h := views.NewHandler(backend, views.Options{
		APIBaseURL:   cfg.Web.APIBaseURL,
		APITimeout:   cfg.Web.APITimeout,
		CookieSecure: cfg.Web.CookieSecure,
	})
	r, err := views.NewRouter(h)
	if err != nil {
		logger.Fatalf("failed to build router: %v", err)
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Starting CityAssist web on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

// openLocalStore selects the storage backend behind the per-browser namespaces.
func openLocalStore(cfg *config.Config) (localstore.Backend, error) {
	switch cfg.LocalStore.Driver {
	case "memory":
		logger.Warn("using in-memory local storage; sessions are lost on restart")
		return localstore.NewMemoryBackend(), nil
	case "redis":
		if cfg.Redis.Addr() == "" {
			return nil, errors.New("LOCALSTORE_DRIVER=redis requires REDIS_HOST")
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr(), err)
		}
		logger.Infof("Connected to Redis for local storage: %s", cfg.Redis.Addr())
		return localstore.NewRedisBackend(client, "", deviceIdleTTL), nil
	default:
		b, err := localstore.NewSQLiteBackend(cfg.LocalStore.Path)
		if err != nil {
			return nil, err
		}
		logger.Infof("Using SQLite local storage at %s", cfg.LocalStore.Path)
		return b, nil
	}
}
