package main

import (
	"github.com/spf13/cobra"

	"github.com/warnigo/upwork-job-notifier-bot/internal/browse"
)

var (
	browseUserID string
	browseLimit  int
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse delivered jobs interactively (TUI)",
	RunE:  runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseUserID, "user", "", "chat user id")
	browseCmd.Flags().IntVar(&browseLimit, "limit", 100, "max jobs to load")
	browseCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	recordStore, svc, err := openUserService()
	if err != nil {
		return err
	}
	defer recordStore.Close()

	jobs, err := svc.RecentJobs(browseUserID, browseLimit)
	if err != nil {
		return err
	}
	filters, err := svc.ListFilters(browseUserID)
	if err != nil {
		return err
	}

	return browse.Run(jobs, filters)
}
