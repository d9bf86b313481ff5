// prune.go implements the "auditbot prune" command for journal retention.
package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrey78787878/audit/internal/journal"
)

var (
	pruneMaxAgeDays int
	pruneKeep       int
	pruneDryRun     bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old entries from the delivery journal",
	Long: `Delete journal entries older than --max-age-days, or all but the
--keep most recent entries.`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().IntVar(&pruneMaxAgeDays, "max-age-days", 0, "Remove entries older than this many days")
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "Keep only the N most recent entries")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "Show how many entries would be removed")
}

func runPrune(cmd *cobra.Command, args []string) error {
	if (pruneMaxAgeDays > 0) == (pruneKeep > 0) {
		return errors.New("exactly one of --max-age-days or --keep is required")
	}

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

	var n int64
	if pruneMaxAgeDays > 0 {
		n, err = store.PruneByAge(time.Now().AddDate(0, 0, -pruneMaxAgeDays), pruneDryRun)
	} else {
		n, err = store.PruneKeepRecent(pruneKeep, pruneDryRun)
	}
	if err != nil {
		return err
	}

	if pruneDryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Would remove %d entries.\n", n)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries.\n", n)
	}
	return nil
}
