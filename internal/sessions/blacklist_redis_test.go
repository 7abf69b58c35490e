package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestBlacklistAccessToken_IsAccessTokenBlacklisted(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	SetBlacklistClient(client)
	defer SetBlacklistClient(nil)

	ctx := context.Background()
	token := "access-token-1"
	require.NoError(t, BlacklistAccessToken(ctx, token, 2*time.Second))
	require.True(t, m.Exists(blacklistPrefix+token))

	ok, err := IsAccessTokenBlacklisted(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	m.FastForward(3 * time.Second)

	ok2, err := IsAccessTokenBlacklisted(ctx, token)
	require.NoError(t, err)
	require.False(t, ok2)
}

func TestBlacklist_NoClient_UsesLocal(t *testing.T) {
	SetBlacklistClient(nil)
	ctx := context.Background()

	require.NoError(t, BlacklistAccessToken(ctx, "local-token", 50*time.Millisecond))
	ok, err := IsAccessTokenBlacklisted(ctx, "local-token")
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(80 * time.Millisecond)
	ok, err = IsAccessTokenBlacklisted(ctx, "local-token")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = IsAccessTokenBlacklisted(ctx, "never-seen")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlacklist_NonPositiveTTLIgnored(t *testing.T) {
	SetBlacklistClient(nil)
	require.NoError(t, BlacklistAccessToken(context.Background(), "expired-token", 0))
	ok, err := IsAccessTokenBlacklisted(context.Background(), "expired-token")
	require.NoError(t, err)
	require.False(t, ok)
}
