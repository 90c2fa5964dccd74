package inmemdb

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/ecomasomo/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded[usr.ID] = struct{}{}
	}

	for _, usr := range repo.db.table {
		if _, ok := excluded[usr.ID]; ok {
			continue
		}
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = uuid.NewString()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}

	for _, usr := range repo.db.table {
		switch {
		case filter.Username != "" && usr.Username == filter.Username,
			filter.Email != "" && usr.Email == filter.Email,
			filter.UsernameOrEmail != "" && (usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail):
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origUsr, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	// TotalPoints is kept as stored
	usr.TotalPoints = origUsr.TotalPoints
	usr.CreatedAt = origUsr.CreatedAt
	if usr.PasswordHash == nil {
		usr.PasswordHash = origUsr.PasswordHash
	}
	*origUsr = usr
	return usr, nil
}

func (repo *userRepository) IncrementPoints(_ context.Context, id string, points int64) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.table[id]
	if !ok {
		return 0, user.ErrNotFound
	}
	if points > math.MaxInt64-usr.TotalPoints {
		return 0, user.ErrPointsOverflow
	}
	usr.TotalPoints += points
	return usr.TotalPoints, nil
}

func (repo *userRepository) QueryLeaderboard(_ context.Context, filter user.LeaderboardFilter) ([]user.LeaderboardEntry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]user.User, 0)
	for _, usr := range repo.query() {
		if !usr.IsStudent() || !usr.IsActive {
			continue
		}
		if filter.School != "" && !strings.EqualFold(usr.School, filter.School) {
			continue
		}
		students = append(students, usr)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].TotalPoints != students[j].TotalPoints {
			return students[i].TotalPoints > students[j].TotalPoints
		}
		return students[i].Name < students[j].Name
	})
	if filter.Limit > 0 && len(students) > filter.Limit {
		students = students[:filter.Limit]
	}

	entries := make([]user.LeaderboardEntry, 0, len(students))
	for _, usr := range students {
		entries = append(entries, user.LeaderboardEntry{
			ID:          usr.ID,
			Name:        usr.Name,
			Username:    usr.Username,
			School:      usr.School,
			TotalPoints: usr.TotalPoints,
		})
	}
	return entries, nil
}
