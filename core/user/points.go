package user

import "github.com/go-playground/validator/v10"

// PointsAward is the payload of a points award.
// Points is a pointer so that a missing or null value fails `required`.
type PointsAward struct {
	Points *int64 `json:"points" validate:"required,gt=0"`
}

func (pa PointsAward) Validate(validate *validator.Validate) error { return validate.Struct(pa) }

// Amount returns the awarded points, 0 if unset.
func (pa PointsAward) Amount() int64 {
	if pa.Points == nil {
		return 0
	}
	return *pa.Points
}

// PointsTotal is returned after a successful award.
type PointsTotal struct {
	TotalPoints int64 `json:"total_points"`
}
