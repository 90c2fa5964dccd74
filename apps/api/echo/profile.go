package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecomasomo/core"
	"github.com/trezcool/ecomasomo/core/user"
)

type profileApi struct {
	svc      user.Service
	validate *validator.Validate
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc user.Service, validate *validator.Validate) {
	api := profileApi{
		svc:      svc,
		validate: validate,
	}

	pg := g.Group("/profile", jwt)
	pg.GET("", api.retrieve)
	pg.PUT("", api.update)
	pg.PATCH("/points", api.awardPoints, roleMiddleware(user.RoleStudent))
}

// Handlers

func (api *profileApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *profileApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data user.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.UpdateProfile(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, usr)
}

// awardPoints adds the points a student earned in a game to their stored total.
// Only the new total is returned.
func (api *profileApi) awardPoints(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data user.PointsAward
	if err = ctx.Bind(&data); err != nil {
		// non-integer, fractional or out of range amounts
		return core.NewFieldError("points", user.ErrInvalidPoints)
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	total, err := api.svc.AwardPoints(ctx.Request().Context(), claims.Subject, data.Amount())
	if err != nil {
		return errors.Wrap(err, "awarding points")
	}
	return ctx.JSON(http.StatusOK, user.PointsTotal{TotalPoints: total})
}
