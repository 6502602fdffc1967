package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrcode/nightscout-widget/internal/models"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and edit the shared widget settings",
		Long: "Settings keys: " + strings.Join(models.SettingKeys, ", ") + ". " +
			models.KeyThresholds + " is managed by the thresholds command.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print every setting (the token is masked)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer closeApp(a)

				for _, key := range models.SettingKeys {
					value := a.Settings.String(cmd.Context(), key)
					if key == models.KeyAccessToken {
						value = maskToken(value)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", key, value)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer closeApp(a)

				fmt.Fprintln(cmd.OutOrStdout(), a.Settings.String(cmd.Context(), args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Validate and store one setting",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer closeApp(a)

				return a.Settings.Set(cmd.Context(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "unset <key>",
			Short: "Remove one setting, restoring its default",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer closeApp(a)

				return a.Settings.Unset(cmd.Context(), args[0])
			},
		},
	)

	return cmd
}

// maskToken keeps the first four characters of a token
func maskToken(token string) string {
	const visible = 4
	switch {
	case token == "":
		return ""
	case len(token) <= visible:
		return strings.Repeat("*", len(token))
	default:
		return token[:visible] + strings.Repeat("*", len(token)-visible)
	}
}
