package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/nightscout"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

var _ nightscout.ConfigSource = (*Settings)(nil)

// Settings reads and writes typed values on top of a Store. Readers tolerate
// absent or unreadable keys by falling back to defaults.
type Settings struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Settings {
	if logger == nil {
		logger = slog.Default()
	}
	return &Settings{store: store, logger: logger}
}

// Store returns the underlying store
func (s *Settings) Store() Store {
	return s.store
}

// String returns the raw value of key, or "" when absent
func (s *Settings) String(ctx context.Context, key string) string {
	v, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to read setting", xslog.Key(key), xslog.Error(err))
		}
		return ""
	}
	return v
}

// Load returns all user settings with defaults for anything absent
func (s *Settings) Load(ctx context.Context) models.Settings {
	settings := models.DefaultSettings()
	settings.NightscoutURL = s.String(ctx, models.KeyNightscoutURL)
	settings.AccessToken = s.String(ctx, models.KeyAccessToken)
	settings.Units = s.Units(ctx)
	settings.ShowLoopData = s.ShowLoopData(ctx)
	return settings
}

// Save writes every field of settings
func (s *Settings) Save(ctx context.Context, settings models.Settings) error {
	values := map[string]string{
		models.KeyNightscoutURL: settings.NightscoutURL,
		models.KeyAccessToken:   settings.AccessToken,
		models.KeyUnits:         string(settings.Units),
		models.KeyShowLoopData:  strconv.FormatBool(settings.ShowLoopData),
	}
	for _, key := range models.SettingKeys {
		v, ok := values[key]
		if !ok {
			continue
		}
		if err := s.Set(ctx, key, v); err != nil {
			return err
		}
	}
	return nil
}

// NightscoutConfig implements nightscout.ConfigSource
func (s *Settings) NightscoutConfig(ctx context.Context) (nightscout.Config, error) {
	return nightscout.Config{
		BaseURL: s.String(ctx, models.KeyNightscoutURL),
		Token:   s.String(ctx, models.KeyAccessToken),
	}, nil
}

// Units returns the display unit, mg/dL when absent or unrecognized
func (s *Settings) Units(ctx context.Context) models.Unit {
	raw := s.String(ctx, models.KeyUnits)
	unit, err := models.ParseUnit(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "ignoring unknown unit setting", xslog.Key(models.KeyUnits), slog.String("value", raw))
		return models.UnitMgDl
	}
	return unit
}

// ShowLoopData reports whether loop properties should be fetched and shown
func (s *Settings) ShowLoopData(ctx context.Context) bool {
	raw := s.String(ctx, models.KeyShowLoopData)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "ignoring invalid boolean setting", xslog.Key(models.KeyShowLoopData), slog.String("value", raw))
		return false
	}
	return v
}

// Set validates and writes one user-editable key
func (s *Settings) Set(ctx context.Context, key, value string) error {
	normalized, err := Normalize(key, value)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, key, normalized); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Unset removes key, restoring its default
func (s *Settings) Unset(ctx context.Context, key string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := s.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// IsKnownKey reports whether key is one the application uses
func IsKnownKey(key string) bool {
	for _, k := range models.SettingKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Normalize validates value for key and returns the form that is stored
func Normalize(key, value string) (string, error) {
	value = strings.TrimSpace(value)

	switch key {
	case models.KeyNightscoutURL:
		if value == "" {
			return "", nil
		}
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", fmt.Errorf("invalid nightscout url %q: want http(s)://host", value)
		}
		return strings.TrimRight(value, "/"), nil
	case models.KeyAccessToken:
		return value, nil
	case models.KeyUnits:
		unit, err := models.ParseUnit(value)
		if err != nil {
			return "", err
		}
		return string(unit), nil
	case models.KeyShowLoopData:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("invalid boolean %q for %s", value, key)
		}
		return strconv.FormatBool(b), nil
	case models.KeyThresholds:
		return "", fmt.Errorf("%s is managed by the thresholds command", key)
	default:
		return "", fmt.Errorf("unknown setting %q", key)
	}
}
