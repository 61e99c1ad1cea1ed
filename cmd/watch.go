package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/timvw/pane-pilot/internal/watch"
)

var (
	flagWatchRefresh time.Duration
	flagWatchTheme   string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard over all targets",
	Long: `Open an interactive dashboard listing every target with its activity
state (idle/busy) and a preview of its last output line.

Keys: up/down navigate, Enter selects the target, i interrupts it,
t types text into it, r refreshes, q quits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		tui := &watch.TUI{
			Controller:      a.ctrl,
			RefreshInterval: flagWatchRefresh,
			CaptureLines:    a.cfg.CaptureLines,
			Theme:           flagWatchTheme,
		}
		return tui.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&flagWatchRefresh, "refresh", 2*time.Second, "refresh interval")
	watchCmd.Flags().StringVar(&flagWatchTheme, "theme", "dark", "color theme: dark, light")
	rootCmd.AddCommand(watchCmd)
}
