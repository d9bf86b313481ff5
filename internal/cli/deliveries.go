// deliveries.go implements the "auditbot deliveries" command that lists journal entries.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrey78787878/audit/internal/journal"
)

var (
	deliveriesLimit  int
	deliveriesStatus string
)

var deliveriesCmd = &cobra.Command{
	Use:   "deliveries",
	Short: "List recent collector deliveries",
	Long: `Show the latest delivery attempts recorded in the journal, newest
first, followed by per-category totals.`,
	Args: cobra.NoArgs,
	RunE: runDeliveries,
}

func init() {
	deliveriesCmd.Flags().IntVarP(&deliveriesLimit, "limit", "n", 20, "Number of entries to show")
	deliveriesCmd.Flags().StringVar(&deliveriesStatus, "status", "", "Only show entries with this status (delivered, failed)")
}

func runDeliveries(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Journal.Path == "" {
		return errors.New("no journal configured; set JOURNAL_PATH")
	}

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(deliveriesLimit, deliveriesStatus)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No deliveries recorded.")
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(out, "%s  %-9s  %6dms  %-10s  %-15s  %s",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Status, e.DurationMs, e.UserID, e.Category, e.Answer)
		if e.Error != "" {
			fmt.Fprintf(out, "  (%s)", e.Error)
		}
		fmt.Fprintln(out)
	}

	summaries, err := store.Summaries()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	for _, s := range summaries {
		fmt.Fprintf(out, "%-20s delivered %d, failed %d\n", s.Category, s.Delivered, s.Failed)
	}
	return nil
}
