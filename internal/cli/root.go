// Package cli defines Cobra command definitions for the auditbot CLI.
// This file contains the root command and shared setup helpers.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrey78787878/audit/internal/config"
	auditlog "github.com/andrey78787878/audit/internal/log"
)

var (
	configPath string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "auditbot",
	Short: "Telegram checklist survey bot",
	Long: `auditbot walks users through code-review checklists in Telegram.
Each answer is forwarded to an external collector; "Нет" and "Частично"
answers are sent together with the user's comment.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (environment variables override it)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(tryCmd)
	rootCmd.AddCommand(deliveriesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(initCmd)
}

// loadConfig reads the effective configuration for the current invocation.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := auditlog.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}
	return logger, nil
}
