// Package main is the entry point for the Nightscout widget host and CLI
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mrcode/nightscout-widget/internal/app"
	"github.com/mrcode/nightscout-widget/internal/config"
	"github.com/mrcode/nightscout-widget/internal/version"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "nightscout-widget",
		Short:         "Nightscout glucose widget",
		Long:          "Fetches the latest glucose readings from a Nightscout server and renders them as a widget.",
		Version:       version.Get(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		snapshotCmd(),
		renderCmd(),
		serveCmd(),
		reloadCmd(),
		testCmd(),
		thresholdsCmd(),
		settingsCmd(),
		autostartCmd(),
	)

	if err := fang.Execute(context.Background(), rootCmd, fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM)); err != nil {
		os.Exit(1)
	}
}

// readConfig parses the environment and installs the default logger
func readConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Read()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to read config: %w", err)
	}
	logger := xslog.NewLogger(cmd.ErrOrStderr(), cfg.Level())
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openApp builds the application for one command. The caller closes it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, logger, err := readConfig(cmd)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Error("failed to close settings store", xslog.Error(err))
	}
}
