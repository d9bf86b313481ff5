// validate.go implements the "auditbot validate" command.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrey78787878/audit/internal/catalog"
	"github.com/andrey78787878/audit/internal/telegram"
)

var validateCmd = &cobra.Command{
	Use:   "validate [questions.json]",
	Short: "Check a question catalog",
	Long: `Load the question catalog and print its categories with question
counts. Without an argument the configured catalog path is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Catalog.Path
	}

	cat, err := catalog.Load(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d questions\n", path, cat.Len())
	for _, c := range cat.Categories() {
		fmt.Fprintf(out, "  %-30s %d\n", c, len(cat.QuestionsInCategory(c)))
		if data := telegram.CategoryData(c); len(data) > telegram.MaxCallbackData {
			fmt.Fprintf(out, "    warning: category name is %d bytes over the Telegram button limit\n", len(data)-telegram.MaxCallbackData)
		}
	}
	return nil
}
