package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrcode/nightscout-widget/internal/autostart"
)

func autostartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Start the widget host at login",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Register the host to start at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := autostart.Default().Enable(); err != nil {
					return fmt.Errorf("failed to enable autostart: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Autostart enabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Stop starting the host at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := autostart.Default().Disable(); err != nil {
					return fmt.Errorf("failed to disable autostart: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Autostart disabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether the host starts at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				l := autostart.Default()
				enabled, err := l.IsEnabled()
				if err != nil {
					return err
				}
				path, _ := l.Path()
				switch {
				case enabled && path != "":
					fmt.Fprintf(cmd.OutOrStdout(), "Enabled (%s)\n", path)
				case enabled:
					fmt.Fprintln(cmd.OutOrStdout(), "Enabled")
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Disabled")
				}
				return nil
			},
		},
	)

	return cmd
}
