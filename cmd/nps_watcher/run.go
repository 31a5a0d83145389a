package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/nps-watcher/internal/config"
	"github.com/jonathan/nps-watcher/internal/fetch"
	"github.com/jonathan/nps-watcher/internal/ingest"
	"github.com/jonathan/nps-watcher/internal/ledger"
	"github.com/jonathan/nps-watcher/internal/logging"
	"github.com/jonathan/nps-watcher/internal/notify"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run one fetch-parse-notify-commit cycle",
	Long: `Fetches the dashboard once with the persisted session (signing in first if
none exists), parses the comments on it, posts anything not seen before to
the main Chat webhook, and records what was posted.`,
	RunE: runWatcherCmd,
}

func init() {
	rootCmd.AddCommand(runCommand)
}

func runWatcherCmd(*cobra.Command, []string) error {
	return runCycle(false)
}

// runCycle wires the collaborators from configuration and performs one
// ingestion cycle. forceLogin discards the persisted session artifact first.
func runCycle(forceLogin bool) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogFile)

	sessions := fetch.NewSessionStore(cfg.AuthStatePath)
	if forceLogin {
		if err := sessions.Discard(); err != nil {
			return fmt.Errorf("discard session artifact: %w", err)
		}
		log.Info().Str("path", cfg.AuthStatePath).Msg("session artifact discarded, re-authentication forced")
	}

	browser := fetch.NewBrowser(fetch.Options{
		ReportURL: cfg.ReportURL,
		Credentials: fetch.Credentials{
			Email:    cfg.GoogleEmail,
			Password: cfg.GooglePassword,
		},
		Sessions:      sessions,
		ScreenshotDir: cfg.ScreenshotDir,
		Timeouts: fetch.Timeouts{
			Navigation:   cfg.NavigationTimeout,
			Selector:     cfg.SelectorTimeout,
			LoginSuccess: cfg.LoginSuccessTimeout,
			PushApproval: cfg.PushApprovalTimeout,
		},
	}, log)

	var comments ingest.Ledger
	if cfg.DatabaseURL != "" {
		pg, err := ledger.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		comments = pg
	} else {
		comments = ledger.NewFileLedger(cfg.CommentsLogPath)
	}

	service := ingest.NewService(
		browser,
		browser,
		sessions,
		comments,
		notify.NewChatClient(cfg.MainWebhook),
		notify.NewAlertClient(cfg.AlertWebhook),
		cfg.DispatchInterval,
		log,
	)
	return service.RunOnce(ctx)
}
