package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	recentUserID string
	recentLimit  int
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show a user's recently delivered jobs",
	RunE:  runRecent,
}

func init() {
	recentCmd.Flags().StringVar(&recentUserID, "user", "", "chat user id")
	recentCmd.Flags().IntVar(&recentLimit, "limit", 10, "max jobs to show")
	recentCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(recentCmd)
}

func runRecent(cmd *cobra.Command, args []string) error {
	recordStore, svc, err := openUserService()
	if err != nil {
		return err
	}
	defer recordStore.Close()

	jobs, err := svc.RecentJobs(recentUserID, recentLimit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("Nothing delivered yet.")
		return nil
	}

	for _, j := range jobs {
		line := fmt.Sprintf("%s  %s", j.CreatedAt.Format("Jan 02 15:04"), j.Title)
		if j.Budget != nil {
			line += fmt.Sprintf("  ($%d)", *j.Budget)
		}
		fmt.Println(line)
		if j.URL != "" {
			fmt.Printf("    %s\n", j.URL)
		}
	}
	return nil
}
