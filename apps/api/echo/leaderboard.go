package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecomasomo/core"
	"github.com/trezcool/ecomasomo/core/user"
)

func registerLeaderboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc user.Service) {
	g.GET("/leaderboard", func(ctx echo.Context) error {
		var filter user.LeaderboardFilter
		err := echo.QueryParamsBinder(ctx).
			String("school", &filter.School).
			Int("limit", &filter.Limit).
			BindError()
		if err != nil {
			return core.NewFieldError("limit", errors.New("a valid integer is required"))
		}

		entries, err := svc.Leaderboard(ctx.Request().Context(), filter)
		if err != nil {
			return errors.Wrap(err, "querying leaderboard")
		}
		return ctx.JSON(http.StatusOK, entries)
	}, jwt)
}
