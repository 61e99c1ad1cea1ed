package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagCaptureLines int

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture the content of a target",
	Long: `Capture a target's content and print it to stdout.

By default only the visible screen is captured; --lines N includes the
last N lines of scrollback. This is pure transport — no interpretation
of the content.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		content, err := a.ctrl.Capture(ctx, flagTarget, flagCaptureLines)
		if err != nil {
			return fmt.Errorf("failed to capture %q: %w", a.ctrl.Format(ctx, flagTarget), err)
		}
		fmt.Fprint(os.Stdout, content)
		return nil
	},
}

func init() {
	captureCmd.Flags().IntVar(&flagCaptureLines, "lines", 0, "include the last N lines of scrollback")
	rootCmd.AddCommand(captureCmd)
}
