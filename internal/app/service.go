package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrcode/nightscout-widget/internal/hostbus"
	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/render"
	"github.com/mrcode/nightscout-widget/internal/server"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the refresh loop, the HTTP host and the D-Bus reload endpoint until ctx is done.
// The D-Bus endpoint is optional; hosts without a session bus still get HTTP.
// Stored thresholds are left alone; only an explicit refresh or set replaces them.
func (a *App) Serve(ctx context.Context) error {
	a.subscribe()

	srv := server.New(a.Scheduler, a.Thresholds, a.Display, a.Logger)

	bus, err := hostbus.Serve(ctx, a.Scheduler, a.Logger)
	if err != nil {
		a.Logger.WarnContext(ctx, "dbus reload endpoint unavailable", xslog.Error(err))
	} else {
		defer func() {
			_ = bus.Close()
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Scheduler.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.Listen(a.Config.ListenAddr); err != nil {
			return fmt.Errorf("http host: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.Logger.InfoContext(ctx, "widget host stopped")
	return nil
}

// subscribe registers the optional snapshot consumers selected by the config
func (a *App) subscribe() {
	if a.Config.AlertsEnabled {
		a.Scheduler.Subscribe(a.Alerts.Subscriber(a.alertDisplay))
	}
	if a.Config.WidgetDir != "" {
		a.Scheduler.Subscribe(a.exportWidgets)
	}
}

// exportWidgets renders every size of snapshot into WidgetDir
func (a *App) exportWidgets(ctx context.Context, snapshot models.WidgetSnapshot) {
	if err := ExportWidgets(ctx, a.Config.WidgetDir, snapshot, a.Display(ctx)); err != nil {
		a.Logger.WarnContext(ctx, "failed to export widget images", xslog.Error(err))
	}
}

// ExportWidgets writes <size>.png for every size into dir, replacing each file atomically
func ExportWidgets(ctx context.Context, dir string, snapshot models.WidgetSnapshot, opts render.Options) error {
	images, err := render.RenderAll(ctx, snapshot, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	for _, size := range render.Sizes {
		path := filepath.Join(dir, string(size)+".png")
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, images[size], 0o644); err != nil { //nolint:gosec // widget images are meant to be read by other programs
			return fmt.Errorf("failed to write %s: %w", tmp, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			return fmt.Errorf("failed to replace %s: %w", path, err)
		}
	}
	return nil
}
