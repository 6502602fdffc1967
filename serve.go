package main

import (
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the widget host",
		Long: "Refreshes the widget on a fixed cadence and serves it over HTTP. " +
			"On Linux the host also answers Reload calls on the session D-Bus.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			return a.Serve(cmd.Context())
		},
	}
}
