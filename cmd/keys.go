package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var interruptCmd = &cobra.Command{
	Use:   "interrupt",
	Short: "Send Ctrl-C to a target",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		if err := a.ctrl.Interrupt(ctx, flagTarget); err != nil {
			return fmt.Errorf("failed to interrupt %q: %w", a.ctrl.Format(ctx, flagTarget), err)
		}
		return nil
	},
}

var escapeCmd = &cobra.Command{
	Use:   "escape",
	Short: "Send the Escape key to a target",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		if err := a.ctrl.Escape(ctx, flagTarget); err != nil {
			return fmt.Errorf("failed to send escape to %q: %w", a.ctrl.Format(ctx, flagTarget), err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(interruptCmd)
	rootCmd.AddCommand(escapeCmd)
}
