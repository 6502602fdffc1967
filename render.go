package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrcode/nightscout-widget/internal/app"
	"github.com/mrcode/nightscout-widget/internal/render"
)

const sizeAll = "all"

func renderCmd() *cobra.Command {
	var (
		size string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the widget to PNG",
		Long: "Fetches the latest readings and renders the widget at one size (small, medium, large), " +
			"or every size into a directory with --size all.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			snapshot := a.Snapshot(ctx)
			opts := a.Display(ctx)

			if size == sizeAll {
				if out == "" {
					out = "."
				}
				if err := app.ExportWidgets(ctx, out, snapshot, opts); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d images to %s\n", len(render.Sizes), out)
				return nil
			}

			s, err := render.ParseSize(size)
			if err != nil {
				return err
			}
			data, err := render.PNG(snapshot, s, opts)
			if err != nil {
				return err
			}

			switch out {
			case "-":
				_, err = cmd.OutOrStdout().Write(data)
				return err
			case "":
				out = string(s) + ".png"
			}
			if err := os.WriteFile(out, data, 0o644); err != nil { //nolint:gosec // output image, not a secret
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&size, "size", "s", string(render.SizeMedium), "small, medium, large or all")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (- for stdout), or directory with --size all")
	return cmd
}
