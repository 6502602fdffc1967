package main

import (
	"fmt"

	go_json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mrcode/nightscout-widget/internal/render"
)

func snapshotCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch the latest readings and print the widget",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			snapshot := a.Snapshot(ctx)

			if asJSON {
				data, err := go_json.MarshalIndent(snapshot, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode snapshot: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), render.Text(snapshot, a.Display(ctx)))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw snapshot as JSON")
	return cmd
}
