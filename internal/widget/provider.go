// Package widget produces the snapshots rendered by the widget host
package widget

import (
	"context"
	"log/slog"
	"time"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/nightscout"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

// RefreshAfter is how long a timeline stays valid
const RefreshAfter = time.Minute

// NoDataMessage is shown when the server returns an empty entry list
const NoDataMessage = "no data from server"

// Source is the subset of the Nightscout client the provider needs
type Source interface {
	FetchEntries(ctx context.Context, count int) ([]models.GlucoseSample, error)
	FetchProperties(ctx context.Context) (models.LoopProperties, error)
}

// Preferences reports the user's display preferences
type Preferences interface {
	ShowLoopData(ctx context.Context) bool
}

// Timeline is a list of snapshots plus when the host should ask again
type Timeline struct {
	Entries     []models.WidgetSnapshot `json:"entries"`
	NextRefresh time.Time               `json:"nextRefresh"`
}

// Provider turns one round of fetches into a snapshot
type Provider struct {
	source Source
	prefs  Preferences
	now    func() time.Time
	logger *slog.Logger
}

// ProviderOption configures a Provider
type ProviderOption func(*Provider)

// WithClock sets the clock used to stamp snapshots
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) { p.now = now }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewProvider(source Source, prefs Preferences, opts ...ProviderOption) *Provider {
	p := &Provider{
		source: source,
		prefs:  prefs,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot fetches entries and, if enabled, loop properties. It never fails:
// entry errors become an error snapshot and property errors are only logged.
func (p *Provider) Snapshot(ctx context.Context) models.WidgetSnapshot {
	date := p.now()

	entries, err := p.source.FetchEntries(ctx, models.HistoryLimit)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to fetch entries", xslog.Error(err))
		return models.WidgetSnapshot{Date: date, Error: nightscout.Describe(err)}
	}
	if len(entries) == 0 {
		p.logger.WarnContext(ctx, NoDataMessage)
		return models.WidgetSnapshot{Date: date, Error: NoDataMessage}
	}

	history := entries[:min(len(entries), models.HistoryLimit)]
	headline := history[0]

	snapshot := models.WidgetSnapshot{
		Date:    date,
		Sample:  &headline,
		History: history,
	}

	if p.prefs != nil && p.prefs.ShowLoopData(ctx) {
		loop, err := p.source.FetchProperties(ctx)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to fetch loop properties", xslog.Error(err))
		} else {
			snapshot.Loop = loop
		}
	}

	p.logger.DebugContext(ctx, "snapshot ready",
		xslog.MgDl(headline.ValueMgDl),
		xslog.Count(len(history)),
	)
	return snapshot
}

// Timeline returns a single-entry timeline that expires after RefreshAfter
func (p *Provider) Timeline(ctx context.Context) Timeline {
	snapshot := p.Snapshot(ctx)
	return Timeline{
		Entries:     []models.WidgetSnapshot{snapshot},
		NextRefresh: snapshot.Date.Add(RefreshAfter),
	}
}

// Placeholder returns the preview snapshot shown before real data exists
func (p *Provider) Placeholder() models.WidgetSnapshot {
	return Placeholder(p.now())
}

// Placeholder returns a 120 mg/dL Flat reading taken at now
func Placeholder(now time.Time) models.WidgetSnapshot {
	sample := models.NewGlucoseSample(now, 120, models.Flat)
	return models.WidgetSnapshot{
		Date:    now,
		Sample:  &sample,
		History: []models.GlucoseSample{sample},
	}
}
