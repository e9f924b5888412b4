package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/warnigo/upwork-job-notifier-bot/internal/config"
	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
	"github.com/warnigo/upwork-job-notifier-bot/internal/notifier"
	"github.com/warnigo/upwork-job-notifier-bot/internal/ratelimit"
	"github.com/warnigo/upwork-job-notifier-bot/internal/scanner"
	"github.com/warnigo/upwork-job-notifier-bot/internal/store"
	"github.com/warnigo/upwork-job-notifier-bot/internal/upwork"
	"github.com/warnigo/upwork-job-notifier-bot/internal/users"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "upworkbot",
	Short: "Upwork job alerts in your Telegram",
	Long:  "upworkbot scans Upwork for postings matching your filters and delivers each new one exactly once.",
	// Default to `start` so that `upworkbot` with no args runs the daemon.
	// This preserves compatibility with systemd unit files that invoke the binary directly.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: UPWORKBOT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > UPWORKBOT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("UPWORKBOT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "telegram":
		logger.Info("using telegram notifier")
		return notifier.NewTelegramNotifier(cfg.Telegram.APIURL, cfg.Telegram.Token, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// buildScanner wires the store, scraper and notifier into a scan orchestrator.
func buildScanner(cfg *config.Config, recordStore *store.SQLiteStore, logger *slog.Logger) *scanner.Scanner {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	userService := users.NewService(recordStore, logger)
	limiter := ratelimit.NewEndpointLimiter(cfg.RateLimit.MinDelay)
	source := upwork.NewClient(cfg.Upwork, userService, limiter, httpClient, logger)
	n := setupNotifier(cfg, httpClient, logger)

	return scanner.New(recordStore, source, n, cfg.Concurrency, cfg.Telegram.Timeout, logger)
}
