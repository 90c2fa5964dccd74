package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/ecomasomo/core"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type (
	// LeaderboardFilter selects the students ranked on a leaderboard.
	LeaderboardFilter struct {
		School string `query:"school"`
		Limit  int    `query:"limit"`
	}

	LeaderboardEntry struct {
		Rank        int    `json:"rank"`
		ID          string `json:"id"`
		Name        string `json:"name"`
		Username    string `json:"username"`
		School      string `json:"school"`
		TotalPoints int64  `json:"total_points"`
	}

	// LeaderboardCache stores computed leaderboards for a limited time.
	// ok is false on a cache miss.
	LeaderboardCache interface {
		GetLeaderboard(ctx context.Context, key string) (entries []LeaderboardEntry, ok bool, err error)
		SetLeaderboard(ctx context.Context, key string, entries []LeaderboardEntry) error
	}
)

func (f *LeaderboardFilter) Clean() {
	f.School = core.CleanString(f.School)
	f.Limit = core.ClampInt(f.Limit, defaultLeaderboardLimit, 1, maxLeaderboardLimit)
}

// CacheKey identifies the leaderboard selected by a cleaned filter.
// Schools match case-insensitively, so their key is lower-cased.
func (f LeaderboardFilter) CacheKey() string {
	if f.School == "" {
		return fmt.Sprintf("leaderboard:all:%d", f.Limit)
	}
	return fmt.Sprintf("leaderboard:school=%s:%d", strings.ToLower(f.School), f.Limit)
}

// Leaderboard returns the active students ordered by total points (highest first), then by name.
// Results are served from the cache when possible; cache failures only get logged.
func (svc *service) Leaderboard(ctx context.Context, filter LeaderboardFilter) ([]LeaderboardEntry, error) {
	filter.Clean()
	key := filter.CacheKey()

	if entries, ok, err := svc.cache.GetLeaderboard(ctx, key); err != nil {
		svc.logger.Warn("reading leaderboard cache", errors.Wrap(err, key))
	} else if ok {
		return entries, nil
	}

	entries, err := svc.repo.QueryLeaderboard(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying leaderboard")
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}

	if err = svc.cache.SetLeaderboard(ctx, key, entries); err != nil {
		svc.logger.Warn("writing leaderboard cache", errors.Wrap(err, key))
	}
	return entries, nil
}
