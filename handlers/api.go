package handlers

import (
	"context"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/citydata"
	"github.com/cityassist/cityassist/go-web/internal/config"
	"github.com/cityassist/cityassist/go-web/internal/models"
	reportshandler "github.com/cityassist/cityassist/go-web/internal/reports/handler"
	reportsservice "github.com/cityassist/cityassist/go-web/internal/reports/service"
	"github.com/cityassist/cityassist/go-web/internal/sessions"
	"github.com/cityassist/cityassist/go-web/internal/tokens"
	"github.com/cityassist/cityassist/go-web/internal/users"
	"github.com/cityassist/cityassist/go-web/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Deps are the services behind the /api tree.
type Deps struct {
	Config        *config.Config
	Users         *users.Service
	Sessions      *sessions.Service
	Reports       reportsservice.Service
	Notifications citydata.Notifications
	Subscriptions *citydata.Subscriptions
	Router        *citydata.Router
	Traffic       *citydata.Traffic
	Directory     *citydata.Directory
	Outages       *citydata.OutageBoard
	AQI           citydata.AQISource
	Uploads       Presigner
	Verifier      middleware.Verifier
	// Redis backs the rate limiter when RateLimit.UseRedis is set.
	Redis *redis.Client
}

// ClaimsResolver maps a verified token to a local user: locally issued
// tokens carry the user ID as subject, OIDC identities are upserted.
func (d Deps) ClaimsResolver() middleware.ClaimsResolver {
	return func(ctx context.Context, claims map[string]interface{}) (string, error) {
		if iss, _ := claims["iss"].(string); iss == tokens.Issuer {
			return middleware.SubjectResolver(ctx, claims)
		}
		u, err := d.Users.UpsertFromClaims(ctx, claims)
		if err != nil || u == nil {
			return "", err
		}
		return u.ID, nil
	}
}

func (d Deps) profileLookup(ctx context.Context, userID string) (*models.HealthProfile, error) {
	u, err := d.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.HealthProfile{Age: u.Age, MedicalFlags: u.MedicalFlags, CommutePatterns: u.CommutePatterns}, nil
}

func (d Deps) rateLimiter() gin.HandlerFunc {
	rl := d.Config.RateLimit
	if rl.UseRedis && d.Redis != nil {
		return middleware.RedisRateLimitMiddleware(d.Redis, rl.RPS, rl.Burst, time.Duration(rl.WindowSeconds)*time.Second)
	}
	return middleware.RateLimitMiddleware(rl.RPS, rl.Burst)
}

// RegisterAPI mounts every endpoint the web frontend calls under /api.
func RegisterAPI(r gin.IRouter, d Deps) {
	api := r.Group("/api")
	public := api.Group("")
	protected := api.Group("", middleware.AuthMiddleware(d.Verifier, d.ClaimsResolver()))
	// Anonymous routes share a bucket per client IP; signed-in routes get one
	// per user, so the limiter must run after authentication.
	if d.Config.RateLimit.Enabled {
		public.Use(d.rateLimiter())
		protected.Use(d.rateLimiter())
	}

	NewAuthHandler(d.Config, d.Users, d.Sessions, d.Notifications, d.Verifier).Register(public)

	operator := middleware.RequireRole("operator")

	NewUsersHandler(d.Users).Register(protected)
	reportshandler.RegisterRoutes(protected, d.Reports, operator)
	city := &CityHandler{
		Notifications: d.Notifications,
		Subscriptions: d.Subscriptions,
		Router:        d.Router,
		Traffic:       d.Traffic,
		Directory:     d.Directory,
		Outages:       d.Outages,
		AQI:           d.AQI,
		Profile:       d.profileLookup,
	}
	city.Register(protected, operator)
	NewUploadHandler(d.Uploads).Register(protected)
}
