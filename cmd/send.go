package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/timvw/pane-pilot/internal/controller"
)

var (
	flagSendNoEnter    bool
	flagSendDelayEnter time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send <text...>",
	Short: "Send keystrokes to a target",
	Long: `Send text to a target, followed by Enter unless --no-enter is given.

Use --delay-enter for TUIs that debounce input and drop an Enter arriving
in the same instant as the text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		text := strings.Join(args, " ")
		opts := controller.SendOptions{
			Enter:      !flagSendNoEnter,
			DelayEnter: flagSendDelayEnter,
		}
		if err := a.ctrl.Send(ctx, flagTarget, text, opts); err != nil {
			return fmt.Errorf("failed to send to %q: %w", a.ctrl.Format(ctx, flagTarget), err)
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().BoolVar(&flagSendNoEnter, "no-enter", false, "do not press Enter after the text")
	sendCmd.Flags().DurationVar(&flagSendDelayEnter, "delay-enter", 0, "pause between text and Enter (e.g. 1s)")
	rootCmd.AddCommand(sendCmd)
}
