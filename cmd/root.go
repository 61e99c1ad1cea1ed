package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/pane-pilot/internal/config"
	"github.com/timvw/pane-pilot/internal/controller"
	"github.com/timvw/pane-pilot/internal/history"
	telem "github.com/timvw/pane-pilot/internal/otel"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

var (
	// Global flags.
	flagSession string
	flagTarget  string
	flagJSON    bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pane-pilot",
	Short: "Drive interactive terminal sessions through tmux",
	Long: `pane-pilot runs commands inside tmux panes and windows, captures their
output, and reports their exit codes — turning a scrolling terminal into
something a script can drive.

Inside tmux it manages panes of the current window; outside it owns a
detached session and uses its windows. Long-running TUIs, REPLs, and SSH
sessions stay alive between invocations.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagSession, "session", "s", envOrDefault("PANE_PILOT_SESSION", ""), "owned session name for remote mode (default: pane-pilot)")
	rootCmd.PersistentFlags().StringVarP(&flagTarget, "target", "t", "", "target pane/window: id, index, name, or session:window address (default: current)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON output")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "include additional detail in output")
}

// app bundles everything a subcommand needs: resolved config, the
// selected backend, and telemetry. Built once per invocation.
type app struct {
	cfg  *config.Config
	ctrl controller.Controller
	tel  *telem.Telemetry
}

// newApp loads config, initializes telemetry, and constructs the
// controller (creating the owned session in remote mode).
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagSession != "" {
		cfg.Session = flagSession
	}

	telem.Version = Version
	tel, err := telem.Init(ctx, telem.Config{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: otel init failed: %v\n", err)
	}

	opts := controller.Options{Session: cfg.Session}
	if tel != nil {
		opts.Metrics = tel.Metrics
		opts.Tracer = tel.Tracer
	}
	ctrl, err := controller.New(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, ctrl: ctrl, tel: tel}, nil
}

// Close flushes telemetry.
func (a *app) Close(ctx context.Context) {
	if a.tel != nil {
		a.tel.Shutdown(ctx)
	}
}

// openHistory opens the execution log, or returns nil when disabled.
// Failures are downgraded to warnings: a broken history database must
// not block command execution.
func (a *app) openHistory() *history.Store {
	if !a.cfg.HistoryEnabled() {
		return nil
	}
	store, err := history.Open(a.cfg.HistoryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		return nil
	}
	return store
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
