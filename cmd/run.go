package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/timvw/pane-pilot/internal/controller"
	"github.com/timvw/pane-pilot/internal/history"
)

// exitCodeTimeout is reported when the protocol could not observe
// completion, matching the coreutils timeout(1) convention.
const exitCodeTimeout = 124

var (
	flagRunHidden  bool
	flagRunClean   bool
	flagRunTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <command...>",
	Short: "Run a command in a target and report its exit code",
	Long: `Run a shell command inside a target, wait for it to finish, print its
output, and exit with the command's exit code.

The command executes in whatever shell the target is running, so aliases,
working directory, environment, and any active SSH session all apply.

--hidden suppresses terminal echo and shell history for the transmitted
command. --clean additionally clears the screen and scrollback afterwards,
leaving no trace for anyone watching the pane.

If the command does not complete within the timeout it keeps running in
the target; pane-pilot exits with status 124 and prints the last capture.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		command := strings.Join(args, " ")
		opts := controller.ExecOptions{
			Hidden:       flagRunHidden,
			Timeout:      flagRunTimeout,
			PollInterval: a.cfg.PollIntervalDuration,
			CaptureLines: a.cfg.CaptureLines,
		}
		if opts.Timeout <= 0 {
			opts.Timeout = a.cfg.ExecTimeoutDuration
		}

		var res controller.Result
		if flagRunClean {
			res, err = a.ctrl.ExecuteClean(ctx, command, flagTarget, opts)
		} else {
			res, err = a.ctrl.Execute(ctx, command, flagTarget, opts)
		}
		if err != nil {
			return fmt.Errorf("failed to run in %q: %w", a.ctrl.Format(ctx, flagTarget), err)
		}

		if store := a.openHistory(); store != nil {
			_, recErr := store.Record(ctx, history.Entry{
				Mode:     a.ctrl.Mode(),
				Target:   a.ctrl.Format(ctx, flagTarget),
				Command:  command,
				Output:   res.Output,
				ExitCode: res.ExitCode,
				Hidden:   flagRunHidden || flagRunClean,
				Duration: res.Duration,
			})
			if recErr != nil {
				fmt.Fprintf(os.Stderr, "warning: history record failed: %v\n", recErr)
			}
			store.Close()
		}

		if res.Output != "" {
			fmt.Println(res.Output)
		}
		if flagVerbose {
			fmt.Fprintf(os.Stderr, "exit=%d duration=%s\n", res.ExitCode, res.Duration.Round(time.Millisecond))
		}

		if res.ExitCode != 0 {
			a.Close(ctx)
			if res.ExitCode < 0 {
				os.Exit(exitCodeTimeout)
			}
			os.Exit(res.ExitCode)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&flagRunHidden, "hidden", false, "suppress echo and shell history for the transmitted command")
	runCmd.Flags().BoolVar(&flagRunClean, "clean", false, "hidden, plus clear screen and scrollback afterwards")
	runCmd.Flags().DurationVar(&flagRunTimeout, "timeout", 0, "completion timeout (default from config, 30s)")
	rootCmd.AddCommand(runCmd)
}
