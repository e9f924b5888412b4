package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/warnigo/upwork-job-notifier-bot/internal/store"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan cycle and exit",
	Long:  "One-shot scan: processes every active user once, delivers matches, exits.",
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	recordStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer recordStore.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sc := buildScanner(cfg, recordStore, logger)
	sc.RunScanCycle(ctx)

	logger.Info("scan complete")
	return nil
}
