package dig_container

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/ecomasomo/apps/api/echo"
	"github.com/trezcool/ecomasomo/assets"
	"github.com/trezcool/ecomasomo/core"
	"github.com/trezcool/ecomasomo/core/user"
	cachesvc "github.com/trezcool/ecomasomo/services/cache"
	emailsvc "github.com/trezcool/ecomasomo/services/email"
	logsvc "github.com/trezcool/ecomasomo/services/logger"
	"github.com/trezcool/ecomasomo/storage/database"
	pgrepos "github.com/trezcool/ecomasomo/storage/database/postgres"
)

const setUpTimeout = 30 * time.Second

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	UserSvc    user.Service
	Validate   *validator.Validate
	Translator ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sql.DB {
	setUp := func() (*sql.DB, error) {
		ctx, cancel := context.WithTimeout(context.Background(), setUpTimeout)
		defer cancel()

		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(ctx, db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newEmailRenderer(conf *core.Config) (*core.EmailRenderer, error) {
	return core.NewEmailRenderer(assets.FS, assets.EmailTemplatesDir, conf)
}

func newEmailService(conf *core.Config, renderer *core.EmailRenderer, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, renderer, logger)
	}
	return emailsvc.NewSendgridService(conf, renderer, logger)
}

// newLeaderboardCache caches leaderboards in Redis when an address is configured.
func newLeaderboardCache(conf *core.Config, logger core.Logger) user.LeaderboardCache {
	if conf.Redis.Addr == "" {
		logger.Info("redis address not set: leaderboard caching disabled")
		return cachesvc.NewNopCache()
	}
	return cachesvc.NewLeaderboardCache(cachesvc.NewRedisClient(conf), conf)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		UserSvc:    p.UserSvc,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailRenderer))
	must(c.Provide(newEmailService))
	must(c.Provide(newLeaderboardCache))
	must(c.Provide(pgrepos.NewUserRepository))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(newServer))

	return c
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
