package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/trezcool/ecomasomo/assets"
	"github.com/trezcool/ecomasomo/core"
	"github.com/trezcool/ecomasomo/core/user"
	logsvc "github.com/trezcool/ecomasomo/services/logger"
	"github.com/trezcool/ecomasomo/storage/database"
	pgrepos "github.com/trezcool/ecomasomo/storage/database/postgres"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := user.LoadCommonPasswords(assets.FS, assets.CommonPasswordsPath); err != nil {
		logger.Error(fmt.Sprintf("loading common passwords: %v", err), err)
		return 1
	}

	// set up DB
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Error(fmt.Sprintf("creating database: %v", err), err)
		return 1
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Error(fmt.Sprintf("opening database: %v", err), err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close", err)
		}
	}()

	// start CLI
	cli := commandLine{
		migrator: migrator{db: db},
		usrRepo:  pgrepos.NewUserRepository(db),
		out:      os.Stdout,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		return 1
	}
	return 0
}
