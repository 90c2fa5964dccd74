package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/ecomasomo/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	role user.Role,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// GivePoints adds points to the total of usr and returns the refreshed User.
func GivePoints(t *testing.T, repo user.Repository, usr user.User, points int64) user.User {
	t.Helper()
	ctx := context.Background()
	if _, err := repo.IncrementPoints(ctx, usr.ID, points); err != nil {
		t.Fatalf("GivePoints() failed: %v", err)
	}
	usr, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	if err != nil {
		t.Fatalf("GivePoints() failed: %v", err)
	}
	return usr
}
