package cachesvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/ecomasomo/core"
	"github.com/trezcool/ecomasomo/core/user"
)

// NewRedisClient returns a client for the configured Redis server. It does not connect.
func NewRedisClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

// leaderboardCache stores leaderboards as JSON strings with a TTL.
type leaderboardCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ user.LeaderboardCache = (*leaderboardCache)(nil)

func NewLeaderboardCache(client redis.Cmdable, conf *core.Config) user.LeaderboardCache {
	return &leaderboardCache{client: client, ttl: conf.Redis.LeaderboardTTL}
}

func (c *leaderboardCache) GetLeaderboard(ctx context.Context, key string) ([]user.LeaderboardEntry, bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "getting leaderboard")
	}

	var entries []user.LeaderboardEntry
	if err = json.Unmarshal([]byte(data), &entries); err != nil {
		return nil, false, errors.Wrap(err, "decoding leaderboard")
	}
	return entries, true, nil
}

func (c *leaderboardCache) SetLeaderboard(ctx context.Context, key string, entries []user.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "encoding leaderboard")
	}
	return errors.Wrap(c.client.Set(ctx, key, string(data), c.ttl).Err(), "setting leaderboard")
}

type nopCache struct{}

// NewNopCache returns a LeaderboardCache that never holds anything.
func NewNopCache() user.LeaderboardCache { return nopCache{} }

func (nopCache) GetLeaderboard(context.Context, string) ([]user.LeaderboardEntry, bool, error) {
	return nil, false, nil
}

func (nopCache) SetLeaderboard(context.Context, string, []user.LeaderboardEntry) error { return nil }
