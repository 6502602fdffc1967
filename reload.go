package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mrcode/nightscout-widget/internal/hostbus"
	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/xhttp"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

const reloadTimeout = 45 * time.Second

func reloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the running widget host to refresh now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := readConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), reloadTimeout)
			defer cancel()

			state, err := hostbus.CallReload(ctx)
			if err != nil {
				logger.DebugContext(ctx, "dbus reload failed, trying http", xslog.Error(err))
				state, err = reloadHTTP(ctx, "http://"+cfg.ListenAddr)
				if err != nil {
					return fmt.Errorf("no widget host reachable: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reloaded (%s)\n", state)
			return nil
		},
	}
}

// reloadHTTP posts to the host's reload endpoint and returns the new snapshot state
func reloadHTTP(ctx context.Context, base string) (models.SnapshotState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/reload", nil)
	if err != nil {
		return "", err
	}
	xhttp.SetRequestHeaderAcceptJSON(req)

	resp, err := xhttp.NewHTTPClient().Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reload returned %d: %s", resp.StatusCode, body)
	}

	var result struct {
		State models.SnapshotState `json:"state"`
	}
	if err := go_json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decoding reload response: %w", err)
	}
	return result.State, nil
}
