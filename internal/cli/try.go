// try.go implements the "auditbot try" command, a local simulator.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/andrey78787878/audit/internal/catalog"
	"github.com/andrey78787878/audit/internal/delivery"
	"github.com/andrey78787878/audit/internal/engine"
	auditlog "github.com/andrey78787878/audit/internal/log"
	"github.com/andrey78787878/audit/internal/session"
	"github.com/andrey78787878/audit/internal/tui"
)

var tryUser string

var tryCmd = &cobra.Command{
	Use:   "try",
	Short: "Walk through a checklist in the terminal",
	Long: `Run the checklist engine locally without Telegram. Answers are sent
to the collector when one is configured, otherwise they are logged.`,
	Args: cobra.NoArgs,
	RunE: runTry,
}

func init() {
	tryCmd.Flags().StringVar(&tryUser, "user", "local", "User id to answer as")
}

func runTry(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Log lines would corrupt the full-screen view.
	logger := auditlog.Discard()
	if !tui.IsTTY() {
		if logger, err = newLogger(cfg); err != nil {
			return err
		}
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	var sub delivery.Submitter = delivery.SubmitterFunc(func(rec delivery.Record) {
		logger.Info("answer recorded",
			slog.String("category", rec.Category),
			slog.String("task", rec.Task),
			slog.String("answer", rec.Answer),
			slog.String("comment", rec.Comment))
	})
	if cfg.Collector.URL != "" {
		pipe, closeJournal, err := newPipeline(cfg, nil, logger)
		if err != nil {
			return err
		}
		defer closeJournal()
		defer pipe.Wait()
		sub = pipe
	}

	eng := engine.New(cat, session.NewStore(), sub, engine.Options{Logger: logger})
	return tui.Run(tui.NewSimulator(eng, tryUser))
}
