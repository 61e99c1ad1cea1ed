package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var flagLaunchName string

var launchCmd = &cobra.Command{
	Use:   "launch [command...]",
	Short: "Create a new target, optionally running a command",
	Long: `Create a new pane (inside tmux) or window (remote mode) and select it
as the current target. With a command argument the target starts running
it; without one it starts an interactive shell.

The printed address can be passed to any other command via --target.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		command := strings.Join(args, " ")
		id, err := a.ctrl.CreateTarget(ctx, command, flagLaunchName)
		if err != nil {
			return fmt.Errorf("failed to create target: %w", err)
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	launchCmd.Flags().StringVarP(&flagLaunchName, "name", "n", "", "name for the new target (resolvable via --target)")
	rootCmd.AddCommand(launchCmd)
}
