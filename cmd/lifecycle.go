package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Destroy a target",
	Long: `Destroy a pane (inside tmux) or window (remote mode).

Killing the pane pane-pilot itself runs in is refused.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		if err := a.ctrl.Kill(ctx, flagTarget); err != nil {
			return fmt.Errorf("failed to kill %q: %w", a.ctrl.Format(ctx, flagTarget), err)
		}
		return nil
	},
}

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Attach the terminal to the owned session",
	Long: `Attach interactively to the owned session, taking over the terminal
until the user detaches (prefix + d). Remote mode only: inside tmux the
panes are already on screen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		return a.ctrl.Attach(ctx)
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove everything pane-pilot created",
	Long: `Remove everything this tool created: the owned session in remote mode,
or only the panes pane-pilot itself opened when inside tmux. Panes a
human created are never touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		if err := a.ctrl.CleanupAll(ctx); err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(cleanupCmd)
}
