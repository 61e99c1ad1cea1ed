package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagHistoryLimit int
	flagHistoryPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past executions",
	Long: `Show commands previously executed through pane-pilot, with their exit
codes and timing, newest first. Filter by target with --target.

--prune deletes entries older than the given age instead of listing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		store := a.openHistory()
		if store == nil {
			return fmt.Errorf("history is disabled (PANE_PILOT_HISTORY=off)")
		}
		defer store.Close()

		if flagHistoryPrune > 0 {
			n, err := store.Prune(ctx, time.Now().Add(-flagHistoryPrune))
			if err != nil {
				return err
			}
			fmt.Printf("pruned %d entries\n", n)
			return nil
		}

		entries, err := store.List(ctx, flagTarget, flagHistoryLimit)
		if err != nil {
			return err
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		for _, e := range entries {
			fmt.Printf("%s  %-8s %-12s exit=%-4d %8s  %s\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				e.Mode, e.Target, e.ExitCode,
				e.Duration.Round(time.Millisecond), e.Command)
			if flagVerbose && e.Output != "" {
				fmt.Printf("    %s\n", e.Output)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "maximum entries to show")
	historyCmd.Flags().DurationVar(&flagHistoryPrune, "prune", 0, "delete entries older than this age (e.g. 720h)")
	rootCmd.AddCommand(historyCmd)
}
