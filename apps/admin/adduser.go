package main

import (
	"context"
	"time"

	"github.com/trezcool/ecomasomo/core"
	"github.com/trezcool/ecomasomo/core/user"
)

type newAccount struct {
	name, username, email, password string
	role                            user.Role
	school                          string
}

// addUser updates or creates an active user.User. Points of an existing user are kept.
func (cli *commandLine) addUser(ctx context.Context, acc newAccount) (user.User, error) {
	uname := core.CleanString(acc.username, true /* lower */)
	email := core.CleanString(acc.email, true /* lower */)
	name := core.CleanString(acc.name)

	if err := user.CheckPassword(acc.password, name, uname, email); err != nil {
		return user.User{}, err
	}

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: uname})
	switch {
	case err == user.ErrNotFound:
		usr = user.User{Username: uname, CreatedAt: now}
	case err != nil:
		return user.User{}, err
	}

	if err = cli.usrRepo.CheckUsernameUniqueness(ctx, uname, email, usr); err != nil {
		return user.User{}, err
	}

	usr.Name = name
	usr.Email = email
	usr.Role = acc.role
	usr.School = core.CleanString(acc.school)
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(acc.password); err != nil {
		return user.User{}, err
	}

	if usr.ID == "" {
		return cli.usrRepo.CreateUser(ctx, usr)
	}
	return cli.usrRepo.UpdateUser(ctx, usr)
}
