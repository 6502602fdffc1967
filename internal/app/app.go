// Package app wires the widget's components together
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrcode/nightscout-widget/internal/config"
	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/nightscout"
	"github.com/mrcode/nightscout-widget/internal/notifications"
	"github.com/mrcode/nightscout-widget/internal/render"
	"github.com/mrcode/nightscout-widget/internal/settings"
	"github.com/mrcode/nightscout-widget/internal/thresholds"
	"github.com/mrcode/nightscout-widget/internal/widget"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

// App holds the widget's long-lived components
type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Settings   *settings.Settings
	Client     *nightscout.Client
	Thresholds *thresholds.Store
	Provider   *widget.Provider
	Scheduler  *widget.Scheduler
	Alerts     *notifications.Manager

	store settings.Store
}

// Option configures an App
type Option func(*appOptions)

type appOptions struct {
	store    settings.Store
	notifier notifications.Notifier
	client   []nightscout.Option
}

// WithStore uses store instead of opening the configured backend
func WithStore(store settings.Store) Option {
	return func(o *appOptions) { o.store = store }
}

// WithNotifier replaces the desktop notifier
func WithNotifier(n notifications.Notifier) Option {
	return func(o *appOptions) { o.notifier = n }
}

// WithClientOptions passes extra options to the Nightscout client
func WithClientOptions(opts ...nightscout.Option) Option {
	return func(o *appOptions) { o.client = append(o.client, opts...) }
}

// New opens the settings store and builds every component from cfg
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = settings.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open settings store: %w", err)
		}
	}
	logger.DebugContext(ctx, "settings store opened", xslog.Backend(cfg.SettingsBackend))

	prefs := settings.New(store, logger)
	clientOpts := append([]nightscout.Option{
		nightscout.WithTimeout(cfg.HTTPTimeout),
		nightscout.WithLogger(logger),
	}, o.client...)
	client := nightscout.NewClient(prefs, clientOpts...)
	provider := widget.NewProvider(client, prefs, widget.WithLogger(logger))

	return &App{
		Config:     cfg,
		Logger:     logger,
		Settings:   prefs,
		Client:     client,
		Thresholds: thresholds.NewStore(store, client, logger),
		Provider:   provider,
		Scheduler:  widget.NewScheduler(provider, cfg.RefreshInterval, logger),
		Alerts:     notifications.NewManager(o.notifier, cfg.AlertRepeat, logger),
		store:      store,
	}, nil
}

// Display returns the render options for the current settings
func (a *App) Display(ctx context.Context) render.Options {
	return render.Options{
		Unit:       a.Settings.Units(ctx),
		Thresholds: a.Thresholds.Get(ctx),
	}
}

// alertDisplay resolves what the alert subscriber classifies against
func (a *App) alertDisplay(ctx context.Context) (models.GlucoseThresholds, models.Unit) {
	opts := a.Display(ctx)
	return opts.Thresholds, opts.Unit
}

// Snapshot runs one refresh outside the scheduler
func (a *App) Snapshot(ctx context.Context) models.WidgetSnapshot {
	return a.Provider.Snapshot(ctx)
}

// TestConnection checks that the configured server answers an entries request
func (a *App) TestConnection(ctx context.Context) error {
	return a.Client.TestConnection(ctx)
}

// Close releases the settings store
func (a *App) Close() error {
	return a.store.Close()
}
