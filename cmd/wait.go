package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/timvw/pane-pilot/internal/controller"
)

var (
	flagIdleTime      time.Duration
	flagCheckInterval time.Duration
	flagWaitTimeout   time.Duration
)

var waitIdleCmd = &cobra.Command{
	Use:   "wait-idle",
	Short: "Wait until a target's content stops changing",
	Long: `Block until the target's content has been unchanged for the idle
duration, then exit 0. Useful after sending input to an interactive
program with no detectable completion signal.

With --timeout the wait is bounded; when it elapses first the command
exits with status 1.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		opts := controller.IdleOptions{
			IdleTime:      flagIdleTime,
			CheckInterval: flagCheckInterval,
			Timeout:       flagWaitTimeout,
			CaptureLines:  a.cfg.CaptureLines,
		}
		if opts.IdleTime <= 0 {
			opts.IdleTime = a.cfg.IdleTimeDuration
		}
		if opts.CheckInterval <= 0 {
			opts.CheckInterval = a.cfg.CheckIntervalDuration
		}
		if opts.Timeout <= 0 {
			opts.Timeout = a.cfg.IdleTimeoutDuration
		}

		idle, err := a.ctrl.WaitForIdle(ctx, flagTarget, opts)
		if err != nil {
			return fmt.Errorf("failed to wait on %q: %w", a.ctrl.Format(ctx, flagTarget), err)
		}
		if !idle {
			fmt.Fprintln(os.Stderr, "timeout: target still active")
			a.Close(ctx)
			os.Exit(1)
		}
		return nil
	},
}

var waitForCmd = &cobra.Command{
	Use:   "wait-for <pattern>",
	Short: "Wait until a target's content matches a pattern",
	Long: `Block until the target's content matches the regular expression, then
exit 0. Faster than wait-idle when the expected prompt text is known,
since there is no settling delay.

When the timeout elapses without a match the command exits with status 1.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		timeout := flagWaitTimeout
		if timeout <= 0 {
			timeout = a.cfg.PromptTimeoutDuration
		}

		found, err := a.ctrl.WaitForPrompt(ctx, flagTarget, args[0], timeout)
		if err != nil {
			return fmt.Errorf("failed to wait on %q: %w", a.ctrl.Format(ctx, flagTarget), err)
		}
		if !found {
			fmt.Fprintln(os.Stderr, "timeout: pattern not found")
			a.Close(ctx)
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	waitIdleCmd.Flags().DurationVar(&flagIdleTime, "idle-time", 0, "how long content must stay unchanged (default from config, 2s)")
	waitIdleCmd.Flags().DurationVar(&flagCheckInterval, "check-interval", 0, "sleep between content checks (default from config, 500ms)")
	waitIdleCmd.Flags().DurationVar(&flagWaitTimeout, "timeout", 0, "overall bound; 0 waits forever")
	waitForCmd.Flags().DurationVar(&flagWaitTimeout, "timeout", 0, "overall bound (default from config, 10s)")
	rootCmd.AddCommand(waitIdleCmd)
	rootCmd.AddCommand(waitForCmd)
}
