// report.go implements the "auditbot report" command for audit trail summaries.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	auditlog "github.com/andrey78787878/audit/internal/log"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize checklist activity",
	Long: `Read the JSONL audit trail and show, per category, how many
checklists were started, finished and cancelled, and how many answers
were recorded.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.AuditLog.Path == "" {
		return errors.New("no audit log configured; set AUDIT_LOG_PATH")
	}

	audit, err := auditlog.NewAuditLog(cfg.AuditLog.Path)
	if err != nil {
		return err
	}
	events, err := audit.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	out := cmd.OutOrStdout()
	stats := auditlog.Summarize(events)
	if len(stats) == 0 {
		fmt.Fprintln(out, "No checklist activity recorded.")
		return nil
	}

	fmt.Fprintf(out, "%-20s %8s %8s %9s %8s\n", "CATEGORY", "STARTED", "FINISHED", "CANCELLED", "ANSWERS")
	for _, s := range stats {
		fmt.Fprintf(out, "%-20s %8d %8d %9d %8d\n", s.Category, s.Started, s.Finished, s.Cancelled, s.Answers)
	}
	return nil
}
