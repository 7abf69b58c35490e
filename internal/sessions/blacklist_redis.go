package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "cityassist:blacklist:access:"

// package-level Redis client used for the access token blacklist (optional)
var blacklistClient *redis.Client

// local is used when no Redis client is configured.
var local = struct {
	sync.Mutex
	until map[string]time.Time
}{until: map[string]time.Time{}}

// SetBlacklistClient configures the Redis client used for blacklist operations.
// nil switches to the in-process blacklist.
func SetBlacklistClient(c *redis.Client) {
	blacklistClient = c
}

// BlacklistAccessToken revokes token for ttl.
func BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if blacklistClient == nil {
		local.Lock()
		local.until[token] = time.Now().Add(ttl)
		local.Unlock()
		return nil
	}
	return blacklistClient.Set(ctx, blacklistPrefix+token, "1", ttl).Err()
}

// IsAccessTokenBlacklisted reports whether token has been revoked and not yet expired.
func IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if blacklistClient == nil {
		local.Lock()
		defer local.Unlock()
		until, ok := local.until[token]
		if ok && time.Now().After(until) {
			delete(local.until, token)
			return false, nil
		}
		return ok, nil
	}
	exists, err := blacklistClient.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
