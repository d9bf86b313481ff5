// init.go implements the "auditbot init" command that writes a starter config file.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andrey78787878/audit/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [auditbot.yaml]",
	Short: "Write a config file with default settings",
	Long: `Write a YAML config file populated with defaults. Secrets such as the
bot token are best left empty in the file and supplied through
TELEGRAM_TOKEN instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file without asking")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "auditbot.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	if _, statErr := os.Stat(path); statErr == nil && !initForce {
		fmt.Fprintf(cmd.OutOrStdout(), "Warning: %s already exists.\n", path)
		fmt.Fprint(cmd.OutOrStdout(), "Overwrite? [y/N]: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	if err := config.WriteConfig(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
