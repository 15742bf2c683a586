package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one stale goal sweep and send the reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig()
		if err != nil {
			return err
		}

		app, err := newApplication(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		n, err := app.worker.RunOnce(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d stale goal(s) notified\n", n)
		return nil
	},
}
