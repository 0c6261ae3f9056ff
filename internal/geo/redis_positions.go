package geo

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/example/carpool-matching/internal/models"
)

var ErrNoPosition = errors.New("geo: no position recorded")

// RedisPositions stores the live vehicle position of each tracked session
// in a Redis GEO set keyed by session id.
type RedisPositions struct {
	client *redis.Client
	key    string
}

func NewRedisPositions(client *redis.Client, key string) *RedisPositions {
	return &RedisPositions{client: client, key: key}
}

func (r *RedisPositions) Record(ctx context.Context, sessionID string, c models.Coord) error {
	return r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{Name: sessionID, Longitude: c.Lon, Latitude: c.Lat}).Err()
}

func (r *RedisPositions) Lookup(ctx context.Context, sessionID string) (models.Coord, error) {
	res, err := r.client.GeoPos(ctx, r.key, sessionID).Result()
	if err != nil {
		return models.Coord{}, err
	}
	if len(res) == 0 || res[0] == nil {
		return models.Coord{}, ErrNoPosition
	}
	return models.Coord{Lat: res[0].Latitude, Lon: res[0].Longitude}, nil
}

// Forget drops a session once tracking ends or the session is left.
func (r *RedisPositions) Forget(ctx context.Context, sessionID string) error {
	return r.client.ZRem(ctx, r.key, sessionID).Err()
}
