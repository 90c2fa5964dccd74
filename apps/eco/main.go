package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/trezcool/ecomasomo/client"
	"github.com/trezcool/ecomasomo/core"
	logsvc "github.com/trezcool/ecomasomo/services/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ECO : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tokens := client.NewFileTokenStore(conf.Client.CredentialsPath)
	api := client.NewAPI(conf.Client.APIBaseURL, tokens, client.WithTimeout(conf.Client.RequestTimeout))

	cli := commandLine{
		api:     api,
		store:   client.NewStore(api, tokens, logger),
		awarder: client.NewAwarder(api, logger),
		out:     os.Stdout,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}
