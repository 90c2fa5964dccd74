package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/ecomasomo/client"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in: run `eco login -username USERNAME`")
)

type commandLine struct {
	api     *client.API
	store   *client.Store
	awarder *client.Awarder
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  login -username USERNAME|EMAIL - log in (the password is prompted)")
	_, _ = fmt.Fprintln(cli.out, "  logout - forget the stored credential")
	_, _ = fmt.Fprintln(cli.out, "  profile - show your dashboard")
	_, _ = fmt.Fprintln(cli.out, "  complete -game NAME -points N - record a completed game")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginCmd.SetOutput(cli.out)
	loginUname := loginCmd.String("username", "", "Your username or email. The password will be prompted next.")

	completeCmd := flag.NewFlagSet("complete", flag.ContinueOnError)
	completeCmd.SetOutput(cli.out)
	completeGame := completeCmd.String("game", "", "The game you completed.")
	completePoints := completeCmd.Int64("points", 0, "The points you earned.")

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginUname == "" {
			loginCmd.Usage()
			return errHelp
		}
		_, _ = fmt.Fprint(cli.out, "Password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		_, _ = fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if err = cli.api.Login(ctx, *loginUname, string(pwd)); err != nil {
			if client.IsStatus(err, http.StatusBadRequest) || client.IsStatus(err, http.StatusForbidden) {
				return errors.New("login failed: check your username and password")
			}
			return err
		}
		return cli.profile(ctx)
	case "logout":
		if err := cli.api.Logout(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cli.out, "Bye!")
		return nil
	case "profile":
		return cli.profile(ctx)
	case "complete":
		if err := completeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *completeGame == "" {
			completeCmd.Usage()
			return errHelp
		}
		return cli.complete(ctx, *completeGame, *completePoints)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) profile(ctx context.Context) error {
	if err := cli.store.Init(ctx); err != nil && !sessionExpired(err) {
		return fmt.Errorf("loading profile: %w", err)
	}
	st := cli.store.State()
	if st.Profile == nil {
		return errNotLoggedIn
	}
	cli.renderDashboard(*st.Profile)
	return nil
}

func sessionExpired(err error) bool {
	return errors.Is(err, client.ErrUnauthorized) || client.IsStatus(err, http.StatusUnauthorized)
}

func (cli *commandLine) complete(ctx context.Context, game string, points int64) error {
	var loggedIn bool
	awarded := client.CompleteGame(ctx, cli.awarder, cli.store, points, func(st client.State) {
		_, _ = fmt.Fprintf(cli.out, "Well done, %q complete!\n", game)
		if st.Profile == nil {
			return
		}
		loggedIn = true
		cli.renderDashboard(*st.Profile)
	})
	if !loggedIn {
		return errNotLoggedIn
	}
	if !awarded {
		_, _ = fmt.Fprintln(cli.out, "(your points could not be saved this time)")
	}
	return nil
}

func (cli *commandLine) renderDashboard(prof client.Profile) {
	school := prof.School
	if school == "" {
		school = "-"
	}
	_, _ = fmt.Fprintf(cli.out, "%s (@%s)\n", prof.Name, prof.Username)
	_, _ = fmt.Fprintf(cli.out, "  School:     %s\n", school)
	_, _ = fmt.Fprintf(cli.out, "  Points:     %d\n", prof.TotalPoints)
	_, _ = fmt.Fprintf(cli.out, "  Level:      %d\n", prof.Level())
	_, _ = fmt.Fprintf(cli.out, "  Experience: %d/%d\n", prof.Experience(), client.PointsPerLevel)
}
