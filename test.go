package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrcode/nightscout-widget/internal/nightscout"
)

func testCmd() *cobra.Command {
	var notify bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the connection to the Nightscout server",
		Long:  "Fetches a single entry and the server status to verify the URL and token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			fmt.Fprintln(out, "[entries]")
			if err := a.TestConnection(ctx); err != nil {
				fmt.Fprintf(out, "  ERROR: %s\n", nightscout.Describe(err))
				return err
			}
			fmt.Fprintln(out, "  OK")

			fmt.Fprintln(out, "[status]")
			status, err := a.Client.FetchStatus(ctx)
			if err != nil {
				fmt.Fprintf(out, "  ERROR: %s\n", nightscout.Describe(err))
			} else {
				fmt.Fprintf(out, "  OK: %s %s (units=%s, low=%.0f, high=%.0f)\n",
					status.Name, status.Version, status.Units, status.Thresholds.LowMgDl, status.Thresholds.HighMgDl)
			}

			if notify {
				fmt.Fprintln(out, "[notification]")
				if err := a.Alerts.SendTestNotification(); err != nil {
					fmt.Fprintf(out, "  ERROR: %v\n", err)
				} else {
					fmt.Fprintln(out, "  OK")
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&notify, "notify", false, "also send a test desktop notification")
	return cmd
}
