package tokens

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/config"
	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	return cfg
}

func TestGenerateAccessToken_ValidAndClaims(t *testing.T) {
	cfg := testConfig("test-secret-32-bytes-should-be-long-enough")
	u := &models.User{ID: "user-123", Name: "Test User", Email: "test@example.com"}

	tokenStr, err := GenerateAccessToken(cfg, u, 2*time.Minute)
	require.NoError(t, err)

	parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWT.Secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, u.ID, claims["sub"])
	require.Equal(t, "access", claims["typ"])
	require.Equal(t, Issuer, claims["iss"])
	require.NotEmpty(t, claims["jti"])
}

func TestGenerateAccessToken_UniquePerCall(t *testing.T) {
	cfg := testConfig("unique-secret-32-bytes-xxxxxxxxxxxx")
	u := &models.User{ID: "u1"}
	a, err := GenerateAccessToken(cfg, u, time.Minute)
	require.NoError(t, err)
	b, err := GenerateAccessToken(cfg, u, time.Minute)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifier_AcceptsIssuedToken(t *testing.T) {
	cfg := testConfig("verifier-secret-32-bytes-xxxxxxxxxx")
	u := &models.User{ID: "user-v", Name: "Vera", Email: "v@example.com"}
	tokenStr, err := GenerateAccessToken(cfg, u, time.Minute)
	require.NoError(t, err)

	tok, err := NewVerifier(cfg.JWT.Secret).Verify(context.Background(), tokenStr)
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "user-v", claims["sub"])

	var typed struct {
		Email string `json:"email"`
	}
	require.NoError(t, tok.Claims(&typed))
	require.Equal(t, "v@example.com", typed.Email)
}

func TestVerifier_Expired(t *testing.T) {
	cfg := testConfig("another-secret-32-bytes-longgggg")
	tokenStr, err := GenerateAccessToken(cfg, &models.User{ID: "u2"}, -time.Second)
	require.NoError(t, err)
	_, err = NewVerifier(cfg.JWT.Secret).Verify(context.Background(), tokenStr)
	require.Error(t, err)
}

func TestVerifier_WrongSecretFails(t *testing.T) {
	cfg := testConfig("secret-one-32-bytes-xxxxxxxxxxxxxxxx")
	tokenStr, err := GenerateAccessToken(cfg, &models.User{ID: "u3"}, 2*time.Minute)
	require.NoError(t, err)
	_, err = NewVerifier("different-secret-xxxxxxxxxxxxxxxx").Verify(context.Background(), tokenStr)
	require.Error(t, err)
}

func TestVerifier_Malformed(t *testing.T) {
	_, err := NewVerifier("x").Verify(context.Background(), "not.a.jwt")
	require.Error(t, err)
}

func seg(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

func TestVerifier_AlgNoneRejected(t *testing.T) {
	tok := seg(`{"alg":"none"}`) + "." + seg(`{"sub":"u-none","iss":"cityassist-api","exp":9999999999}`) + "."
	_, err := NewVerifier("x").Verify(context.Background(), tok)
	require.Error(t, err)
}

func TestVerifier_TamperedPayload(t *testing.T) {
	cfg := testConfig("tamper-test-secret-32-bytes-xxxxxxx")
	tokenStr, err := GenerateAccessToken(cfg, &models.User{ID: "user-t"}, 5*time.Minute)
	require.NoError(t, err)

	parts := strings.Split(tokenStr, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	parts[1] = seg(strings.Replace(string(payload), "user-t", "attacker", 1))

	_, err = NewVerifier(cfg.JWT.Secret).Verify(context.Background(), strings.Join(parts, "."))
	require.Error(t, err)
}
