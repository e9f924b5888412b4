package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
	"github.com/warnigo/upwork-job-notifier-bot/internal/store"
	"github.com/warnigo/upwork-job-notifier-bot/internal/users"
)

var filterUserID string

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Manage a user's job filters",
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the user's filters",
	RunE:  runFiltersList,
}

var (
	addKeywords string
	addExclude  string
	addMin      int
	addMax      int
	addCategory string
)

var filtersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a filter",
	RunE:  runFiltersAdd,
}

var filtersRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a filter by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiltersRemove,
}

func init() {
	filtersCmd.PersistentFlags().StringVar(&filterUserID, "user", "", "chat user id the filters belong to")
	filtersCmd.MarkPersistentFlagRequired("user")

	filtersAddCmd.Flags().StringVar(&addKeywords, "keywords", "", "comma-separated include keywords")
	filtersAddCmd.Flags().StringVar(&addExclude, "exclude", "", "comma-separated exclude keywords")
	filtersAddCmd.Flags().IntVar(&addMin, "min", -1, "minimum budget in dollars")
	filtersAddCmd.Flags().IntVar(&addMax, "max", -1, "maximum budget in dollars")
	filtersAddCmd.Flags().StringVar(&addCategory, "category", "", "category label")
	filtersAddCmd.MarkFlagRequired("keywords")

	filtersCmd.AddCommand(filtersListCmd, filtersAddCmd, filtersRemoveCmd)
	rootCmd.AddCommand(filtersCmd)
}

// openUserService opens the store and wraps it in the user service. The
// caller must Close the returned store.
func openUserService() (*store.SQLiteStore, *users.Service, error) {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	recordStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return recordStore, users.NewService(recordStore, logger), nil
}

func runFiltersList(cmd *cobra.Command, args []string) error {
	recordStore, svc, err := openUserService()
	if err != nil {
		return err
	}
	defer recordStore.Close()

	filters, err := svc.ListFilters(filterUserID)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		fmt.Println("No filters.")
		return nil
	}

	for _, f := range filters {
		line := fmt.Sprintf("#%d  %s", f.ID, f.Keywords)
		if f.ExcludeKeywords != "" {
			line += fmt.Sprintf("  exclude: %s", f.ExcludeKeywords)
		}
		if f.MinBudget != nil {
			line += fmt.Sprintf("  min: $%d", *f.MinBudget)
		}
		if f.MaxBudget != nil {
			line += fmt.Sprintf("  max: $%d", *f.MaxBudget)
		}
		if f.Category != "" {
			line += fmt.Sprintf("  category: %s", f.Category)
		}
		if !f.Active {
			line += "  [paused]"
		}
		fmt.Println(line)
	}
	return nil
}

func runFiltersAdd(cmd *cobra.Command, args []string) error {
	recordStore, svc, err := openUserService()
	if err != nil {
		return err
	}
	defer recordStore.Close()

	f := model.Filter{
		Keywords:        addKeywords,
		ExcludeKeywords: addExclude,
		Category:        addCategory,
	}
	if addMin >= 0 {
		min := addMin
		f.MinBudget = &min
	}
	if addMax >= 0 {
		max := addMax
		f.MaxBudget = &max
	}

	created, err := svc.AddFilter(filterUserID, f)
	if err != nil {
		return err
	}
	fmt.Printf("Filter #%d added.\n", created.ID)
	return nil
}

func runFiltersRemove(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid filter id %q", args[0])
	}

	recordStore, svc, err := openUserService()
	if err != nil {
		return err
	}
	defer recordStore.Close()

	removed, err := svc.RemoveFilter(id, filterUserID)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("No filter #%d found.\n", id)
		os.Exit(1)
	}
	fmt.Printf("Filter #%d removed.\n", id)
	return nil
}
