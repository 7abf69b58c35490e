package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/citydata"
	"github.com/cityassist/cityassist/go-web/internal/config"
	"github.com/cityassist/cityassist/go-web/internal/models"
	reportsservice "github.com/cityassist/cityassist/go-web/internal/reports/service"
	"github.com/cityassist/cityassist/go-web/internal/sessions"
	"github.com/cityassist/cityassist/go-web/internal/tokens"
	"github.com/cityassist/cityassist/go-web/internal/users"
	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenTTL = 15 * time.Minute
	cfg.JWT.RefreshTokenTTL = time.Hour
	return cfg
}

func newDeps(cfg *config.Config) Deps {
	notes := citydata.NewMemoryNotifications()
	outages := citydata.NewOutageBoard(time.Now)
	citydata.SeedOutages(outages)
	traffic := citydata.NewTraffic()
	return Deps{
		Config:        cfg,
		Users:         users.NewService(users.NewMemoryUserRepository(), 4),
		Sessions:      sessions.NewService(sessions.NewMemoryRepository()),
		Reports:       reportsservice.NewMemoryService(reportsservice.WithNotifier(notes)),
		Notifications: notes,
		Subscriptions: citydata.NewSubscriptions(nil),
		Router:        citydata.NewRouter(nil, traffic),
		Traffic:       traffic,
		Directory:     citydata.NewDirectory(),
		Outages:       outages,
		AQI:           citydata.DefaultAQI,
		Verifier:      tokens.NewVerifier(cfg.JWT.Secret),
	}
}

func newAPI(d Deps) *gin.Engine {
	g := gin.New()
	RegisterAPI(g, d)
	return g
}

func doJSON(g http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, g http.Handler, email string) models.AuthResult {
	t.Helper()
	w := doJSON(g, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Name: "Alice", Email: email, Password: "password123", NotificationsEnabled: true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res models.AuthResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	g := newAPI(newDeps(testConfig()))

	reg := register(t, g, "Alice@Example.com")
	require.NotEmpty(t, reg.Token)
	require.NotEmpty(t, reg.RefreshToken)
	assert.Equal(t, 900, reg.ExpiresIn)
	assert.Equal(t, "alice@example.com", reg.User.Email)

	w := doJSON(g, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login models.AuthResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, reg.User.ID, login.User.ID)

	w = doJSON(g, http.MethodGet, "/api/users/profile", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(g, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": login.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	var refreshed models.AuthResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the rotated token is single use
	w = doJSON(g, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": login.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(g, http.MethodPost, "/api/auth/logout", refreshed.Token, map[string]string{"refreshToken": refreshed.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(g, http.MethodGet, "/api/users/profile", refreshed.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token revoked")

	w = doJSON(g, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": refreshed.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterErrors(t *testing.T) {
	g := newAPI(newDeps(testConfig()))
	register(t, g, "bob@example.com")

	w := doJSON(g, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(g, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{Name: "Bob", Email: "bob2@example.com", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "password")
}

func TestRegisterSendsWelcome(t *testing.T) {
	d := newDeps(testConfig())
	g := newAPI(d)
	reg := register(t, g, "carol@example.com")

	list, err := d.Notifications.List(context.Background(), reg.User.ID, citydata.NotificationQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Welcome to CityAssist", list[0].Title)
}

func TestLoginInvalidCredentials(t *testing.T) {
	g := newAPI(newDeps(testConfig()))
	register(t, g, "dave@example.com")

	w := doJSON(g, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "dave@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")

	w = doJSON(g, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(g, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "dave@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseExpFromJWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	payload, _ := json.Marshal(map[string]interface{}{"exp": exp})
	tok := "hdr." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
	got, err := parseExpFromJWT(tok)
	require.NoError(t, err)
	assert.Equal(t, exp, got.Unix())

	_, err = parseExpFromJWT("not-a-jwt")
	assert.Error(t, err)

	noExp, _ := json.Marshal(map[string]interface{}{"sub": "x"})
	_, err = parseExpFromJWT("hdr." + base64.RawURLEncoding.EncodeToString(noExp) + ".sig")
	assert.Error(t, err)
}

func TestLogoutIgnoresUnverifiedToken(t *testing.T) {
	g := newAPI(newDeps(testConfig()))

	payload, _ := json.Marshal(map[string]interface{}{"sub": "mallory", "exp": 32503680000})
	forged := "x." + base64.RawURLEncoding.EncodeToString(payload) + ".junk"

	w := doJSON(g, http.MethodPost, "/api/auth/logout", forged, nil)
	require.Equal(t, http.StatusOK, w.Code)

	revoked, err := sessions.IsAccessTokenBlacklisted(context.Background(), forged)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestLogoutCapsBlacklistAtAccessTTL(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	sessions.SetBlacklistClient(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	defer sessions.SetBlacklistClient(nil)

	cfg := testConfig()
	g := newAPI(newDeps(cfg))
	long, err := tokens.GenerateAccessToken(cfg, &models.User{ID: "u-long", Email: "long@example.com"}, 24*time.Hour)
	require.NoError(t, err)

	w := doJSON(g, http.MethodPost, "/api/auth/logout", long, nil)
	require.Equal(t, http.StatusOK, w.Code)

	key := "cityassist:blacklist:access:" + long
	require.True(t, m.Exists(key))
	ttl := m.TTL(key)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, cfg.JWT.AccessTokenTTL)
}
