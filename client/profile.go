package client

// PointsPerLevel is the amount of points needed to go up one level.
const PointsPerLevel = 100

type (
	Profile struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Username       string `json:"username"`
		Email          string `json:"email"`
		Role           string `json:"role"`
		School         string `json:"school"`
		EducationLevel string `json:"education_level"`
		TotalPoints    int64  `json:"total_points"`
	}

	Points struct {
		TotalPoints int64 `json:"total_points"`
	}
)

func defaultProfile() Profile { return Profile{} }

// Level starts at 1 and goes up every PointsPerLevel points.
func (p Profile) Level() int64 {
	if p.TotalPoints < 0 {
		return 1
	}
	return p.TotalPoints/PointsPerLevel + 1
}

// Experience is the progress towards the next level, in points.
func (p Profile) Experience() int64 {
	if p.TotalPoints < 0 {
		return 0
	}
	return p.TotalPoints % PointsPerLevel
}
