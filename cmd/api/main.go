// Command api is the CityAssist development API the web frontend talks to.
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

	"github.com/cityassist/cityassist/go-web/handlers"
	"github.com/cityassist/cityassist/go-web/internal/citydata"
	"github.com/cityassist/cityassist/go-web/internal/config"
	"github.com/cityassist/cityassist/go-web/internal/database"
	"github.com/cityassist/cityassist/go-web/internal/oidc"
	reportsservice "github.com/cityassist/cityassist/go-web/internal/reports/service"
	"github.com/cityassist/cityassist/go-web/internal/sessions"
	"github.com/cityassist/cityassist/go-web/internal/storage"
	"github.com/cityassist/cityassist/go-web/internal/tokens"
	"github.com/cityassist/cityassist/go-web/internal/users"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/cityassist/cityassist/go-web/pkg/metrics"
	"github.com/cityassist/cityassist/go-web/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.SetFormat(os.Getenv("LOG_FORMAT"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v minio=%v", cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")
	if cfg.JWT.Secret == "" {
		if cfg.Server.Environment == "production" {
			logger.Fatalf("JWT_SECRET is required in production")
		}
		cfg.JWT.Secret = "dev-insecure-secret"
	}

	ctx := context.Background()
	deps := handlers.Deps{
		Config:    cfg,
		Traffic:   citydata.NewTraffic(),
		Directory: citydata.NewDirectory(),
		Outages:   citydata.NewOutageBoard(time.Now),
		AQI:       citydata.DefaultAQI,
	}
	citydata.SeedOutages(deps.Outages)

	// Redis: access-token blacklist, sessions, rate limiting, route cache, subscriptions
	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		c := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := c.Ping(pingCtx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			_ = c.Close()
		} else {
			rdb = c
			sessions.SetBlacklistClient(rdb)
			logger.Infof("Connected to Redis: %s", addr)
		}
		cancel()
	}
	deps.Redis = rdb
	deps.Router = citydata.NewRouter(rdb, deps.Traffic)
	deps.Subscriptions = citydata.NewSubscriptions(rdb)
	if rdb != nil {
		deps.Sessions = sessions.NewService(sessions.NewRedisRepository(rdb, "session:"))
		logger.Info("Using Redis for session storage")
	}

	// MongoDB: users, reports, notifications, and sessions when Redis is absent
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		mongoClient, err = database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
		if err != nil {
			logger.Warnf("could not connect to MongoDB: %v; using in-memory stores", err)
			mongoClient = nil
		}
	}
	var imageStore reportsservice.ImageStore
	var objects *storage.MinIOStorage
	if cfg.MinIO.Endpoint != "" {
		s, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("MinIO unavailable: %v; report photos and uploads disabled", err)
		} else {
			objects = s
			imageStore = s
			deps.Uploads = s
			logger.Infof("Using MinIO bucket %s at %s", cfg.MinIO.Bucket, cfg.MinIO.Endpoint)
		}
	}

	if mongoClient != nil {
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		db := mongoClient.Database(cfg.MongoDB.Database)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			logger.Warnf("ensure MongoDB indexes: %v", err)
		}
		deps.Users = users.NewService(users.NewMongoUserRepository(db.Collection(database.UsersCollection)), cfg.JWT.BcryptCost)
		deps.Notifications = citydata.NewMongoNotifications(db.Collection(database.NotificationsCollection))
		deps.Reports = reportsservice.NewMongoService(db.Collection(database.ReportsCollection), reportOptions(imageStore, deps.Notifications)...)
		if deps.Sessions == nil {
			deps.Sessions = sessions.NewService(sessions.NewMongoRepository(db.Collection(database.SessionsCollection)))
		}
		logger.Infof("Using MongoDB database %s", cfg.MongoDB.Database)
	} else {
		logger.Warn("using in-memory users, reports and notifications; data is lost on restart")
		deps.Users = users.NewService(users.NewMemoryUserRepository(), cfg.JWT.BcryptCost)
		deps.Notifications = citydata.NewMemoryNotifications()
		deps.Reports = reportsservice.NewMemoryService(reportOptions(imageStore, deps.Notifications)...)
		if deps.Sessions == nil {
			deps.Sessions = sessions.NewService(sessions.NewMemoryRepository())
		}
	}

	deps.Verifier = buildVerifier(ctx, cfg)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors())
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		status := map[string]bool{"mongo": true, "redis": true}
		if mongoClient != nil {
			pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			status["mongo"] = mongoClient.Ping(pctx, nil) == nil
			cancel()
		}
		if rdb != nil {
			status["redis"] = rdb.Ping(c.Request.Context()).Err() == nil
		}
		if objects != nil {
			status["minio"] = objects.Ping(c.Request.Context()) == nil
		}
		uptime := time.Since(startTime).String()
		for _, ok := range status {
			if !ok {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": status, "uptime": uptime})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": status, "uptime": uptime})
	})
	handlers.RegisterSwagger(r)
	handlers.RegisterAPI(r, deps)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Starting CityAssist API on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-sigCtx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

func reportOptions(images reportsservice.ImageStore, n reportsservice.Notifier) []reportsservice.Option {
	opts := []reportsservice.Option{reportsservice.WithNotifier(n)}
	if images != nil {
		opts = append(opts, reportsservice.WithImageStore(images))
	}
	return opts
}

// buildVerifier accepts locally issued tokens and, when Keycloak is
// configured, OIDC tokens from the realm.
func buildVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	vs := []middleware.Verifier{tokens.NewVerifier(cfg.JWT.Secret)}
	if issuer := cfg.Keycloak.Issuer(); issuer != "" {
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier for %s: %v", issuer, err)
		} else {
			vs = append(vs, ver)
		}
	}
	if cfg.Keycloak.AllowInsecure {
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		vs = append(vs, oidc.NewInsecureVerifier())
	}
	return middleware.Chain(vs...)
}

// cors allows the web frontend on another origin during development.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
