package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/nightscout"
)

func thresholdsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Show or update the low/high glucose thresholds",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the stored thresholds",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer closeApp(a)

				printThresholds(cmd.OutOrStdout(), a.Thresholds.Get(cmd.Context()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Load the thresholds from the server's status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer closeApp(a)

				t, err := a.Thresholds.Refresh(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s: %w", nightscout.Describe(err), err)
				}
				printThresholds(cmd.OutOrStdout(), t)
				return nil
			},
		},
		thresholdsSetCmd(),
		&cobra.Command{
			Use:   "reset",
			Short: "Forget stored thresholds and use the defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer closeApp(a)

				if err := a.Thresholds.Reset(cmd.Context()); err != nil {
					return err
				}
				printThresholds(cmd.OutOrStdout(), models.DefaultThresholds())
				return nil
			},
		},
	)

	return cmd
}

func thresholdsSetCmd() *cobra.Command {
	var mmol bool

	cmd := &cobra.Command{
		Use:   "set <low> <high>",
		Short: "Store thresholds, in mg/dL unless --mmol is given",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			low, err := parseThreshold(args[0], mmol)
			if err != nil {
				return fmt.Errorf("invalid low threshold: %w", err)
			}
			high, err := parseThreshold(args[1], mmol)
			if err != nil {
				return fmt.Errorf("invalid high threshold: %w", err)
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			t, err := a.Thresholds.Set(cmd.Context(), low, high)
			if err != nil {
				return err
			}
			printThresholds(cmd.OutOrStdout(), t)
			return nil
		},
	}

	cmd.Flags().BoolVar(&mmol, "mmol", false, "values are in mmol/L")
	return cmd
}

// parseThreshold returns s in mg/dL
func parseThreshold(s string, mmol bool) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if mmol {
		return float64(models.ToMgDl(v)), nil
	}
	return v, nil
}

func printThresholds(w io.Writer, t models.GlucoseThresholds) {
	fmt.Fprintf(w, "Low:  %.0f mg/dL (%.1f mmol/L)\n", t.LowMgDl, t.LowMmolL)
	fmt.Fprintf(w, "High: %.0f mg/dL (%.1f mmol/L)\n", t.HighMgDl, t.HighMmolL)
}
