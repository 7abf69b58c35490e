package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/cityassist/cityassist/go-web/internal/sessions"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier accepts exactly one raw token.
type fakeVerifier struct{ good, sub string }

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	if raw == f.good {
		return &fakeToken{data: map[string]interface{}{"sub": f.sub, "email": "test@example.com"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func goodVerifier() *fakeVerifier { return &fakeVerifier{good: "goodtoken", sub: "user1"} }

func serveAuth(t *testing.T, mw gin.HandlerFunc, header string) *httptest.ResponseRecorder {
	t.Helper()
	g := gin.New()
	g.GET("/", mw, func(c *gin.Context) {
		claims, _ := c.Get(ClaimsKey)
		c.JSON(http.StatusOK, gin.H{"claims": claims, "userID": UserID(c)})
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	rw := serveAuth(t, AuthMiddleware(goodVerifier(), nil), "")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	rw := serveAuth(t, AuthMiddleware(goodVerifier(), nil), "BadHeader")
	require.Equal(t, http.StatusUnauthorized, rw.Code)

	rw = serveAuth(t, AuthMiddleware(goodVerifier(), nil), "Bearer ")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	rw := serveAuth(t, AuthMiddleware(goodVerifier(), nil), "Bearer goodtoken")
	require.Equal(t, http.StatusOK, rw.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Contains(t, got, "claims")
	require.Equal(t, "user1", got["userID"])
}

func TestAuthMiddleware_ResolverMapsUser(t *testing.T) {
	resolve := func(_ context.Context, claims map[string]interface{}) (string, error) {
		return "local-" + claims["sub"].(string), nil
	}
	rw := serveAuth(t, AuthMiddleware(goodVerifier(), resolve), "Bearer goodtoken")
	require.Equal(t, http.StatusOK, rw.Code)
	require.Contains(t, rw.Body.String(), `"userID":"local-user1"`)

	failing := func(context.Context, map[string]interface{}) (string, error) { return "", errors.New("db down") }
	rw = serveAuth(t, AuthMiddleware(goodVerifier(), failing), "Bearer goodtoken")
	require.Equal(t, http.StatusInternalServerError, rw.Code)
}

func TestAuthMiddleware_ChainFallsThrough(t *testing.T) {
	v := Chain(nil, &fakeVerifier{good: "a", sub: "ua"}, &fakeVerifier{good: "b", sub: "ub"})
	rw := serveAuth(t, AuthMiddleware(v, nil), "Bearer b")
	require.Equal(t, http.StatusOK, rw.Code)
	require.Contains(t, rw.Body.String(), `"userID":"ub"`)

	rw = serveAuth(t, AuthMiddleware(v, nil), "Bearer c")
	require.Equal(t, http.StatusUnauthorized, rw.Code)

	_, err := Chain().Verify(context.Background(), "x")
	require.Error(t, err)
}

func TestAuthMiddleware_RejectsBlacklistedToken(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	sessions.SetBlacklistClient(client)
	defer sessions.SetBlacklistClient(nil)

	token := "goodtoken"
	require.NoError(t, sessions.BlacklistAccessToken(context.Background(), token, 5*time.Second))

	rw := serveAuth(t, AuthMiddleware(goodVerifier(), nil), "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Contains(t, rw.Body.String(), "token revoked")
}
