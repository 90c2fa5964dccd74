package client

import (
	"context"

	"github.com/trezcool/ecomasomo/core"
)

type PointsAPI interface {
	AwardPoints(ctx context.Context, points int64) (Points, error)
}

// Awarder sends points earned in games to the API.
// Failures are logged and reported as false, never returned: a game must finish even when the award fails.
type Awarder struct {
	api    PointsAPI
	logger core.Logger
}

func NewAwarder(api PointsAPI, logger core.Logger) *Awarder {
	return &Awarder{api: api, logger: logger}
}

// Award adds points to the total of the logged in student and returns the new total.
// It does not touch any Store; callers refresh it afterwards.
func (a *Awarder) Award(ctx context.Context, points int64) (Points, bool) {
	if points <= 0 {
		a.logger.Warn("award skipped: points must be positive", map[string]interface{}{"points": points})
		return Points{}, false
	}
	pts, err := a.api.AwardPoints(ctx, points)
	if err != nil {
		a.logger.Error("award failed", err, map[string]interface{}{"points": points})
		return Points{}, false
	}
	return pts, true
}

// CompleteGame awards points, refreshes the store, then renders its state.
// render is always called, whatever the outcome of the award and of the refresh.
func CompleteGame(ctx context.Context, awarder *Awarder, store *Store, points int64, render func(State)) bool {
	_, awarded := awarder.Award(ctx, points)
	if err := store.Refresh(ctx); err != nil {
		awarder.logger.Warn("refreshing profile after game", err)
	}
	render(store.State())
	return awarded
}
