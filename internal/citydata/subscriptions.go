package citydata

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Subscriptions records the topics a user follows, e.g. "utility:water:Zone A".
// Redis sets are used when a client is configured.
type Subscriptions struct {
	client *redis.Client
	mu     sync.Mutex
	local  map[string][]string
}

func NewSubscriptions(client *redis.Client) *Subscriptions {
	return &Subscriptions{client: client, local: map[string][]string{}}
}

func subsKey(userID string) string { return "cityassist:subs:" + userID }

// Add subscribes userID to topic; repeated calls are no-ops.
func (s *Subscriptions) Add(ctx context.Context, userID, topic string) error {
	if s.client != nil {
		return s.client.SAdd(ctx, subsKey(userID), topic).Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.local[userID], topic) {
		s.local[userID] = append(s.local[userID], topic)
	}
	return nil
}

// List returns userID's topics sorted.
func (s *Subscriptions) List(ctx context.Context, userID string) ([]string, error) {
	var out []string
	if s.client != nil {
		members, err := s.client.SMembers(ctx, subsKey(userID)).Result()
		if err != nil {
			return nil, err
		}
		out = members
	} else {
		s.mu.Lock()
		out = slices.Clone(s.local[userID])
		s.mu.Unlock()
	}
	sort.Strings(out)
	return out, nil
}
