package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warnigo/upwork-job-notifier-bot/internal/bot"
	"github.com/warnigo/upwork-job-notifier-bot/internal/scheduler"
	"github.com/warnigo/upwork-job-notifier-bot/internal/store"
	"github.com/warnigo/upwork-job-notifier-bot/internal/users"
	"github.com/warnigo/upwork-job-notifier-bot/internal/webapp"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scanning daemon",
	Long:  "Runs the scan scheduler, the Telegram command bot and the session web app; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.ScanInterval.String(),
		"concurrency", cfg.Concurrency,
		"notifier", cfg.Notification.Type,
		"webapp", cfg.WebApp.Enabled,
	)

	recordStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer recordStore.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sc := buildScanner(cfg, recordStore, logger)
	userService := users.NewService(recordStore, logger)

	if cfg.Notification.Type == "telegram" {
		// A long-poll cycle holds the connection open for up to 30s, so the
		// poll client must out-wait it.
		pollClient := &http.Client{Timeout: 60 * time.Second}
		commandBot := bot.New(cfg.Telegram.APIURL, cfg.Telegram.Token, pollClient, userService, logger)
		go func() {
			if err := commandBot.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("command bot stopped", "error", err)
			}
		}()
	}

	if cfg.WebApp.Enabled {
		webServer := webapp.New(userService, logger)
		go func() {
			if err := webServer.ListenAndServe(ctx, cfg.WebApp.ListenAddr); err != nil && err != http.ErrServerClosed {
				logger.Error("webapp stopped", "error", err)
			}
		}()
	}

	sched := scheduler.New(sc, cfg.ScanInterval, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	sched.Stop()
	logger.Info("goodbye")
	return nil
}
