package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/example/carpool-matching/internal/models"
)

// RedisFeed keeps one Redis list per role; LPUSH keeps the newest post at
// index 0, matching the in-memory order.
type RedisFeed struct {
	client *redis.Client
	cap    int64
}

func NewRedisFeed(client *redis.Client, capacity int) *RedisFeed {
	return &RedisFeed{client: client, cap: int64(capacity)}
}

// FeedKey is the list holding posts of role.
func FeedKey(role models.Role) string {
	return "pool:posts:" + strings.ToLower(string(role))
}

func (f *RedisFeed) Push(ctx context.Context, c models.MatchCandidate) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	key := FeedKey(c.Role)
	pipe := f.client.TxPipeline()
	pipe.LPush(ctx, key, b)
	if f.cap > 0 {
		pipe.LTrim(ctx, key, 0, f.cap-1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (f *RedisFeed) Load(ctx context.Context, role models.Role) ([]models.MatchCandidate, error) {
	raw, err := f.client.LRange(ctx, FeedKey(role), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.MatchCandidate, 0, len(raw))
	for i, r := range raw {
		var c models.MatchCandidate
		if err := json.Unmarshal([]byte(r), &c); err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", FeedKey(role), i, err)
		}
		out = append(out, c)
	}
	return out, nil
}
