package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "cityassist_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("API_BASE_URL", "http://api.local:8080/api/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017/testdb", cfg.MongoDB.URI)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, "http://api.local:8080/api", cfg.Web.APIBaseURL)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("LOCALSTORE_DRIVER", "")
	t.Setenv("REDIS_HOST", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8080/api", cfg.Web.APIBaseURL)
	require.Equal(t, 15*time.Second, cfg.Web.APITimeout)
	require.Equal(t, "3000", cfg.Web.Port)
	require.Equal(t, "sqlite", cfg.LocalStore.Driver)
	require.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	require.Equal(t, 12, cfg.JWT.BcryptCost)
	require.Equal(t, "", cfg.Redis.Addr())
}

func TestLoadConfig_InvalidDriverFallsBack(t *testing.T) {
	t.Setenv("LOCALSTORE_DRIVER", "cookies")
	t.Setenv("BCRYPT_COST", "40")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.LocalStore.Driver)
	require.Equal(t, 12, cfg.JWT.BcryptCost)
}

func TestKeycloakIssuer(t *testing.T) {
	k := KeycloakConfig{URL: "https://id.example.com/", Realm: "city"}
	require.Equal(t, "https://id.example.com/realms/city", k.Issuer())
	require.Equal(t, "", KeycloakConfig{}.Issuer())
}
