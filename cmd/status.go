package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type statusReport struct {
	Mode       string `json:"mode"`
	Session    string `json:"session,omitempty"`
	Current    string `json:"current,omitempty"`
	Targets    int    `json:"targets"`
	ConfigFile string `json:"config_file,omitempty"`
	Version    string `json:"version"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend mode and target summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		targets, err := a.ctrl.ListTargets(ctx)
		if err != nil {
			return fmt.Errorf("failed to list targets: %w", err)
		}

		report := statusReport{
			Mode:       a.ctrl.Mode(),
			Current:    a.ctrl.Current(),
			Targets:    len(targets),
			ConfigFile: a.cfg.ConfigFile,
			Version:    Version,
		}
		if report.Mode == "remote" {
			report.Session = a.cfg.Session
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		fmt.Printf("mode:     %s\n", report.Mode)
		if report.Session != "" {
			fmt.Printf("session:  %s\n", report.Session)
		}
		if report.Current != "" {
			fmt.Printf("current:  %s\n", report.Current)
		}
		fmt.Printf("targets:  %d\n", report.Targets)
		if report.ConfigFile != "" {
			fmt.Printf("config:   %s\n", report.ConfigFile)
		}
		fmt.Printf("version:  %s\n", report.Version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
