package pgrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/ecomasomo/core/user"
)

const userColumns = `id, name, username, email, password_hash, role, school, education_level,
	total_points, is_active, created_at, updated_at, last_login`

type userRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Username       string         `db:"username"`
	Email          sql.NullString `db:"email"`
	PasswordHash   []byte         `db:"password_hash"`
	Role           string         `db:"role"`
	School         string         `db:"school"`
	EducationLevel string         `db:"education_level"`
	TotalPoints    int64          `db:"total_points"`
	IsActive       bool           `db:"is_active"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	LastLogin      sql.NullTime   `db:"last_login"`
}

func toUserRow(usr user.User) userRow {
	return userRow{
		ID:             usr.ID,
		Name:           usr.Name,
		Username:       usr.Username,
		Email:          sql.NullString{String: usr.Email, Valid: usr.Email != ""},
		PasswordHash:   usr.PasswordHash,
		Role:           usr.Role.String(),
		School:         usr.School,
		EducationLevel: usr.EducationLevel,
		TotalPoints:    usr.TotalPoints,
		IsActive:       usr.IsActive,
		CreatedAt:      usr.CreatedAt.UTC(),
		UpdatedAt:      usr.UpdatedAt.UTC(),
		LastLogin:      sql.NullTime{Time: usr.LastLogin.UTC(), Valid: !usr.LastLogin.IsZero()},
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:             r.ID,
		Name:           r.Name,
		Username:       r.Username,
		Email:          r.Email.String,
		PasswordHash:   r.PasswordHash,
		Role:           user.Role(r.Role),
		School:         r.School,
		EducationLevel: r.EducationLevel,
		TotalPoints:    r.TotalPoints,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		LastLogin:      r.LastLogin.Time.UTC(),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sql.DB) user.Repository {
	return &userRepository{db: sqlx.NewDb(db, "postgres")}
}

// trapNoRowsErr maps sql.ErrNoRows to user.ErrNotFound.
func trapNoRowsErr(err error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return err
}

// numeric_value_out_of_range
const pqNumericOutOfRange = "22003"

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excl := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excl = append(excl, usr.ID)
	}

	var found struct {
		Username string         `db:"username"`
		Email    sql.NullString `db:"email"`
	}
	err := repo.db.GetContext(ctx, &found,
		`SELECT username, email FROM users
		WHERE (username = $1 OR ($2 <> '' AND email = $2)) AND NOT (id::text = ANY($3))
		LIMIT 1`,
		username, email, pq.Array(excl),
	)
	switch {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return errors.Wrap(err, "checking username uniqueness")
	case found.Username == username:
		return user.ErrUsernameExists
	default:
		return user.ErrEmailExists
	}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		VALUES (:id, :name, :username, :email, :password_hash, :role, :school, :education_level,
			:total_points, :is_active, :created_at, :updated_at, :last_login)`,
		toUserRow(usr),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		where string
		arg   string
	)
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		where, arg = "id = $1", filter.ID
	case filter.Username != "":
		where, arg = "username = $1", filter.Username
	case filter.Email != "":
		where, arg = "email = $1", filter.Email
	case filter.UsernameOrEmail != "":
		where, arg = "(username = $1 OR email = $1)", filter.UsernameOrEmail
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg); err != nil {
		return user.User{}, trapNoRowsErr(err)
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if !validID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}
	r := toUserRow(usr)

	var row userRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE users SET
			name = $1, username = $2, email = $3, password_hash = COALESCE($4, password_hash), role = $5,
			school = $6, education_level = $7, is_active = $8, updated_at = $9, last_login = $10
		WHERE id = $11
		RETURNING `+userColumns,
		r.Name, r.Username, r.Email, r.PasswordHash, r.Role,
		r.School, r.EducationLevel, r.IsActive, r.UpdatedAt, r.LastLogin, r.ID,
	)
	if err != nil {
		return user.User{}, trapNoRowsErr(errors.Wrap(err, "updating user"))
	}
	return row.toUser(), nil
}

func (repo *userRepository) IncrementPoints(ctx context.Context, id string, points int64) (int64, error) {
	if !validID(id) {
		return 0, user.ErrNotFound
	}
	var total int64
	err := repo.db.QueryRowxContext(ctx,
		"UPDATE users SET total_points = total_points + $1 WHERE id = $2 RETURNING total_points",
		points, id,
	).Scan(&total)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqNumericOutOfRange {
			return 0, user.ErrPointsOverflow
		}
		return 0, trapNoRowsErr(errors.Wrap(err, "incrementing points"))
	}
	return total, nil
}

func (repo *userRepository) QueryLeaderboard(ctx context.Context, filter user.LeaderboardFilter) ([]user.LeaderboardEntry, error) {
	var rows []struct {
		ID          string `db:"id"`
		Name        string `db:"name"`
		Username    string `db:"username"`
		School      string `db:"school"`
		TotalPoints int64  `db:"total_points"`
	}
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, name, username, school, total_points FROM users
		WHERE role = $1 AND is_active AND ($2 = '' OR lower(school) = $2)
		ORDER BY total_points DESC, name
		LIMIT $3`,
		user.RoleStudent.String(), strings.ToLower(filter.School), filter.Limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting leaderboard")
	}

	entries := make([]user.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, user.LeaderboardEntry{
			ID:          r.ID,
			Name:        r.Name,
			Username:    r.Username,
			School:      r.School,
			TotalPoints: r.TotalPoints,
		})
	}
	return entries, nil
}
