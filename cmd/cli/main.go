package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"scout-sync-go/pkg/cli"
	"scout-sync-go/pkg/cli/logger"
	"scout-sync-go/pkg/config"
	"scout-sync-go/pkg/models"

	"go.uber.org/zap"
)

func main() {
	var (
		photos   = flag.Bool("photos", false, "Start photo scraping and follow its progress")
		data     = flag.Bool("data", false, "Start player data scraping and follow its progress")
		status   = flag.String("status", "", "Show the status of a task by id")
		cancel   = flag.String("cancel", "", "Cancel a task by id")
		syncMode = flag.Bool("sync", false, "Import players from Google Sheets")
		export   = flag.Bool("export", false, "Export players to Google Sheets")
		history  = flag.Bool("history", false, "Show recent sync runs")
		limit    = flag.Int("limit", 10, "Number of sync runs to show with --history")
		register = flag.String("register", "", "Register a new user with the given email")
		debug    = flag.Bool("debug", false, "Write debug logs")

		// Config commands
		configShow = flag.Bool("config-show", false, "Show current configuration")
		configSet  = flag.String("config-set", "", "Set a config value (format: section.key=value)")
	)
	flag.Parse()

	log, closeLog := logger.New(*debug)
	defer closeLog()

	cfg, err := config.Load()
	if err != nil {
		fail(log, "failed to load config", err)
	}

	app := cli.NewApp(cfg, log)

	// Handle config commands first (no server needed)
	if *configShow {
		app.ShowConfig()
		return
	}
	if *configSet != "" {
		if err := app.SetConfig(*configSet); err != nil {
			fail(log, "failed to set config", err)
		}
		fmt.Println("Configuration updated successfully")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cmdErr error
	switch {
	case *photos:
		cmdErr = app.RunScraping(ctx, models.JobPhotos)
	case *data:
		cmdErr = app.RunScraping(ctx, models.JobData)
	case *status != "":
		cmdErr = app.ShowStatus(ctx, *status)
	case *cancel != "":
		cmdErr = app.CancelTask(ctx, *cancel)
	case *syncMode:
		cmdErr = app.Sync(ctx, false)
	case *export:
		cmdErr = app.Sync(ctx, true)
	case *history:
		cmdErr = app.ShowHistory(ctx, *limit)
	case *register != "":
		cmdErr = app.RegisterUser(ctx, *register)
	default:
		// Interactive TUI mode
		cmdErr = app.Run()
	}

	if cmdErr != nil {
		stop()
		fail(log, "command failed", cmdErr)
	}
}

func fail(log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err))
	_ = log.Sync()
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
