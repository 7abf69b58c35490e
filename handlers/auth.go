package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/config"
	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/internal/sessions"
	"github.com/cityassist/cityassist/go-web/internal/tokens"
	"github.com/cityassist/cityassist/go-web/internal/users"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/cityassist/cityassist/go-web/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// LoginRequest is the email/password login body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Notifier delivers an in-app notification to a user.
type Notifier interface {
	Notify(ctx context.Context, userID string, n models.Notification) error
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	notifier    Notifier
	verifier    middleware.Verifier
}

// NewAuthHandler wires the auth endpoints. notifier may be nil. Logout only
// blacklists access tokens that ver accepts.
func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, n Notifier, ver middleware.Verifier) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, notifier: n, verifier: ver}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg gin.IRouter) {
	a := rg.Group("/auth")
	a.POST("/register", h.SignUp)
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

func (h *AuthHandler) accessTTL() time.Duration {
	if h.cfg.JWT.AccessTokenTTL > 0 {
		return h.cfg.JWT.AccessTokenTTL
	}
	return 15 * time.Minute
}

func (h *AuthHandler) refreshTTL() time.Duration {
	if h.cfg.JWT.RefreshTokenTTL > 0 {
		return h.cfg.JWT.RefreshTokenTTL
	}
	return 7 * 24 * time.Hour
}

// issue creates a session and access token for u.
func (h *AuthHandler) issue(c *gin.Context, u *models.User) (*models.AuthResult, bool) {
	rft, err := h.sessionsSvc.CreateSession(c.Request.Context(), u.ID, h.refreshTTL())
	if err != nil {
		logger.Errorf("create session for %s: %v", u.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return nil, false
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.accessTTL())
	if err != nil {
		logger.Errorf("sign access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return nil, false
	}
	return &models.AuthResult{User: u, Token: access, RefreshToken: rft, ExpiresIn: int(h.accessTTL().Seconds())}, true
}

// SignUp creates an account and logs it in.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.usersSvc.Register(c.Request.Context(), req)
	switch {
	case errors.Is(err, users.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, users.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		return
	case err != nil:
		logger.Errorf("register: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	res, ok := h.issue(c, u)
	if !ok {
		return
	}
	if h.notifier != nil {
		welcome := models.Notification{
			Type:      models.AlertHealth,
			Title:     "Welcome to CityAssist",
			Message:   "Your alerts are set up. Update your profile any time to personalise them.",
			ActionURL: "/profile",
		}
		if err := h.notifier.Notify(c.Request.Context(), u.ID, welcome); err != nil {
			logger.Warnf("welcome notification for %s: %v", u.ID, err)
		}
	}
	c.JSON(http.StatusCreated, res)
}

// Login checks email and password and returns fresh tokens.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		logger.Errorf("login: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	res, ok := h.issue(c, u)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

// Refresh rotates a refresh token and returns a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
		return
	}
	sess, rft, err := h.sessionsSvc.Rotate(c.Request.Context(), req.RefreshToken, h.refreshTTL())
	if errors.Is(err, sessions.ErrInvalidRefresh) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	if err != nil {
		logger.Errorf("rotate refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	u, err := h.usersSvc.Get(c.Request.Context(), sess.UserID)
	if err != nil || u == nil {
		logger.Errorf("refresh: user %s lookup: %v", sess.UserID, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.accessTTL())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, models.AuthResult{User: u, Token: access, RefreshToken: rft, ExpiresIn: int(h.accessTTL().Seconds())})
}

// Logout invalidates the refresh token and blacklists the presented access
// token until it would have expired, at most one access TTL.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)

	if at, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok && at != "" {
		if ttl := h.revocationTTL(c.Request.Context(), at); ttl > 0 {
			if err := sessions.BlacklistAccessToken(c.Request.Context(), at, ttl); err != nil {
				logger.Errorf("blacklist access token: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
				return
			}
		}
	}

	if req.RefreshToken != "" {
		if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
			logger.Errorf("delete refresh token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// revocationTTL returns how long at must stay blacklisted. Tokens the
// verifier rejects are never stored.
func (h *AuthHandler) revocationTTL(ctx context.Context, at string) time.Duration {
	if h.verifier == nil {
		return 0
	}
	if _, err := h.verifier.Verify(ctx, at); err != nil {
		logger.Debugf("logout with unverified access token: %v", err)
		return 0
	}
	exp, err := parseExpFromJWT(at)
	if err != nil {
		return 0
	}
	return min(time.Until(exp), h.accessTTL())
}

// parseExpFromJWT decodes the JWT payload and returns the `exp` claim as time.Time.
// The signature is not checked here; callers verify the token first.
func parseExpFromJWT(tok string) (time.Time, error) {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid token")
	}
	payload := parts[1]
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(payload, "="))
	if err != nil {
		b, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return time.Time{}, err
		}
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(b, &claims); err != nil {
		return time.Time{}, err
	}
	v, ok := claims["exp"]
	if !ok {
		return time.Time{}, fmt.Errorf("exp claim not present")
	}
	switch vv := v.(type) {
	case float64:
		return time.Unix(int64(vv), 0), nil
	case json.Number:
		i64, err := vv.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(i64, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported exp type %T", v)
	}
}
