package main

import (
	"context"
	"database/sql"

	"github.com/trezcool/ecomasomo/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

// migrator runs goose commands against the embedded migrations.
type migrator struct {
	db *sql.DB
}

func (m migrator) migrate(ctx context.Context, args []string) error {
	return gooseRunFunc(ctx, args[0], m.db, args[1:]...)
}
