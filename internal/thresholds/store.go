// Package thresholds keeps the low/high glucose boundaries used to colour readings
package thresholds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	go_json "github.com/goccy/go-json"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/settings"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

// Fetcher loads thresholds from the server
type Fetcher interface {
	FetchThresholds(ctx context.Context) (models.GlucoseThresholds, error)
}

// InvalidError reports a low/high pair that cannot be used for classification
type InvalidError struct {
	Low, High float64
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid thresholds: low %.0f must be positive and below high %.0f", e.Low, e.High)
}

// Store persists thresholds under models.KeyThresholds
type Store struct {
	kv      settings.Store
	fetcher Fetcher
	logger  *slog.Logger
}

func NewStore(kv settings.Store, fetcher Fetcher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, fetcher: fetcher, logger: logger}
}

// Get returns the persisted thresholds, or the defaults if none are stored or the record is unreadable
func (s *Store) Get(ctx context.Context) models.GlucoseThresholds {
	raw, err := s.kv.Get(ctx, models.KeyThresholds)
	if err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to read thresholds, using defaults", xslog.Error(err))
		}
		return models.DefaultThresholds()
	}

	var t models.GlucoseThresholds
	if err := go_json.Unmarshal([]byte(raw), &t); err != nil {
		s.logger.WarnContext(ctx, "stored thresholds are corrupt, using defaults", xslog.Error(err))
		return models.DefaultThresholds()
	}
	if !t.Valid() {
		s.logger.WarnContext(ctx, "stored thresholds are out of order, using defaults",
			slog.Float64("low", t.LowMgDl),
			slog.Float64("high", t.HighMgDl),
		)
		return models.DefaultThresholds()
	}
	// The mmol mirrors always follow mg/dL, whatever the record says
	return t.Normalize()
}

// Refresh fetches thresholds from the server and persists them. On failure, including
// a server pair that is out of order, the stored record is left untouched.
func (s *Store) Refresh(ctx context.Context) (models.GlucoseThresholds, error) {
	fetched, err := s.fetcher.FetchThresholds(ctx)
	if err != nil {
		return models.GlucoseThresholds{}, err
	}
	t := fetched.Normalize()
	if !t.Valid() {
		return models.GlucoseThresholds{}, &InvalidError{Low: t.LowMgDl, High: t.HighMgDl}
	}
	if err := s.save(ctx, t); err != nil {
		return models.GlucoseThresholds{}, err
	}
	s.logger.InfoContext(ctx, "thresholds refreshed",
		slog.Float64("low", t.LowMgDl),
		slog.Float64("high", t.HighMgDl),
	)
	return t, nil
}

// Set persists thresholds given in mg/dL
func (s *Store) Set(ctx context.Context, lowMgDl, highMgDl float64) (models.GlucoseThresholds, error) {
	t := models.NewThresholds(lowMgDl, highMgDl)
	if !t.Valid() {
		return models.GlucoseThresholds{}, &InvalidError{Low: lowMgDl, High: highMgDl}
	}
	if err := s.save(ctx, t); err != nil {
		return models.GlucoseThresholds{}, err
	}
	return t, nil
}

// Reset removes the stored thresholds so the defaults apply
func (s *Store) Reset(ctx context.Context) error {
	if err := s.kv.Remove(ctx, models.KeyThresholds); err != nil {
		return fmt.Errorf("failed to remove thresholds: %w", err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, t models.GlucoseThresholds) error {
	data, err := go_json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal thresholds: %w", err)
	}
	if err := s.kv.Set(ctx, models.KeyThresholds, string(data)); err != nil {
		return fmt.Errorf("failed to save thresholds: %w", err)
	}
	return nil
}
