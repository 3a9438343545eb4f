// Command flow is a terminal task manager with a list, a board and a weekly
// calendar over one local data file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dataFile   string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "flow failed: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flow",
	Short: "To-do list, kanban board and calendar in the terminal",
	Long: `flow keeps tasks in a single local data file and shows them as a list,
a kanban board or a week/day calendar. With an API key configured it can
break tasks into steps and add brainstorming or "unstuck" notes.

Settings come from built-in defaults, then the YAML config file, then
FLOW_* environment variables (FLOW_ASSISTANT_API_KEY, FLOW_STORAGE_DRIVER, ...).`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runApp,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config.yaml (default <user config dir>/flow/config.yaml)")
	rootCmd.Flags().StringVar(&dataFile, "data-file", "", "override storage.path")
}
