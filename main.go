package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/config"
	"github.com/cybertec-postgresql/pg_timetable_web/internal/log"
	"github.com/cybertec-postgresql/pg_timetable_web/internal/pgengine"
	"github.com/cybertec-postgresql/pg_timetable_web/internal/web"
)

/**
 * pg_timetable_web is the administration panel for pg_timetable configuration: tasks, chains,
 * chain execution configs and their parameters stored in the timetable schema. The scheduler itself
 * runs separately and picks up the changes from the database.
 */

// Exit codes
const (
	ExitCodeOK int = iota
	ExitCodeConfigError
	ExitCodeDBEngineError
	ExitCodeWebError
)

var exitCode = ExitCodeOK

// version output variables
var (
	commit  = "000000"
	version = "master"
	date    = "unknown"
)

func printVersion() {
	fmt.Printf(`pg_timetable_web:
  Version:      %s
  Git Commit:   %s
  Built:        %s
  Go version:   %s
`, version, commit, date, runtime.Version())
}

func main() {
	defer func() { os.Exit(exitCode) }()
	cmdOpts, err := config.NewConfig(os.Stdout)
	if err != nil {
		if errors.Is(err, config.ErrHelpShown) {
			return
		}
		fmt.Println("Configuration error: ", err)
		exitCode = ExitCodeConfigError
		return
	}
	if cmdOpts.Version {
		printVersion()
		if cmdOpts.VersionOnly() {
			return
		}
	}
	logger := log.Init(cmdOpts.Logging)
	for _, name := range cmdOpts.UnknownEnv {
		logger.WithField("variable", name).Warn("Unknown environment variable ignored")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pge, err := pgengine.New(ctx, *cmdOpts, logger)
	if err != nil {
		logger.WithError(err).Error("Connection failed")
		exitCode = ExitCodeDBEngineError
		return
	}
	defer pge.Finalize()
	if cmdOpts.Logging.LogDBLevel != "none" {
		logger.AddHook(pgengine.NewHook(ctx, pge, cmdOpts.Logging.LogDBLevel))
	}

	srv, err := web.New(cmdOpts.Web, pge, logger)
	if err != nil {
		logger.WithError(err).Error("Cannot create admin panel")
		exitCode = ExitCodeWebError
		return
	}
	if err = srv.Serve(ctx); err != nil {
		logger.WithError(err).Error("Admin panel stopped")
		exitCode = ExitCodeWebError
	}
}
