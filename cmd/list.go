package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all targets",
	Long: `List all addressable targets of the active backend.

Inside tmux these are the panes of the current window; outside they are
the windows of the owned session. The first column is the canonical
address accepted by every other command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		targets, err := a.ctrl.ListTargets(ctx)
		if err != nil {
			return fmt.Errorf("failed to list targets: %w", err)
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(targets)
		}

		current := a.ctrl.Current()
		for _, t := range targets {
			marker := " "
			if t.ID == current {
				marker = "*"
			}
			active := " "
			if t.Active {
				active = "a"
			}
			fmt.Printf("%s %-10s %2d  %-20s %s  %-8s %s\n",
				marker, t.ID, t.Index, t.Title, active, t.Size, t.Command)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
