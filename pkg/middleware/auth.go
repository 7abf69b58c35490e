package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cityassist/cityassist/go-web/internal/sessions"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey = "claims"
	UserIDKey = "userID"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// ClaimsResolver maps verified claims to a local user ID.
type ClaimsResolver func(ctx context.Context, claims map[string]interface{}) (string, error)

// SubjectResolver uses the "sub" claim as the user ID.
func SubjectResolver(_ context.Context, claims map[string]interface{}) (string, error) {
	sub, _ := claims["sub"].(string)
	return sub, nil
}

// Chain tries each verifier in order and returns the first success.
func Chain(vs ...Verifier) Verifier { return chain(vs) }

type chain []Verifier

func (c chain) Verify(ctx context.Context, raw string) (Token, error) {
	var lastErr error
	for _, v := range c {
		if v == nil {
			continue
		}
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errNoVerifier
	}
	return nil, lastErr
}

type authError string

func (e authError) Error() string { return string(e) }

const errNoVerifier = authError("no verifier configured")

// AuthMiddleware verifies Bearer tokens, rejects blacklisted ones and stores
// the claims and resolved user ID in the gin context. A nil resolver means
// SubjectResolver.
func AuthMiddleware(ver Verifier, resolve ClaimsResolver) gin.HandlerFunc {
	if resolve == nil {
		resolve = SubjectResolver
	}
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		token, ok := strings.CutPrefix(auth, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		ctx := c.Request.Context()
		if revoked, err := sessions.IsAccessTokenBlacklisted(ctx, token); err != nil {
			logger.Warnf("blacklist lookup failed: %v", err)
		} else if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}

		verified, err := ver.Verify(ctx, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		var claims map[string]interface{}
		if err := verified.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}
		userID, err := resolve(ctx, claims)
		if err != nil {
			logger.Errorf("resolve user from claims: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
			return
		}
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user ID, or "" outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
