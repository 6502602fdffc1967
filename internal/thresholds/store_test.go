package thresholds

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/nightscout"
	"github.com/mrcode/nightscout-widget/internal/settings"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

type fetcherFunc func(ctx context.Context) (models.GlucoseThresholds, error)

func (f fetcherFunc) FetchThresholds(ctx context.Context) (models.GlucoseThresholds, error) {
	return f(ctx)
}

func TestStore_GetDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stored string
	}{
		{"absent", ""},
		{"corrupt", "{not json"},
		{"inverted", `{"bgLowMgdl":200,"bgHighMgdl":100}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			kv := settings.NewMemoryStore()
			if tt.stored != "" {
				_ = kv.Set(t.Context(), models.KeyThresholds, tt.stored)
			}
			got := NewStore(kv, nil, xslog.Discard()).Get(t.Context())
			if diff := cmp.Diff(models.DefaultThresholds(), got); diff != "" {
				t.Errorf("Get() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_RefreshPersists(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"settings":{"thresholds":{"bgLow":80,"bgHigh":160}}}`))
	}))
	defer server.Close()

	kv := settings.NewMemoryStore()
	client := nightscout.NewClient(nightscout.StaticConfig{BaseURL: server.URL}, nightscout.WithLogger(xslog.Discard()))
	store := NewStore(kv, client, xslog.Discard())

	got, err := store.Refresh(t.Context())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	want := models.GlucoseThresholds{LowMgDl: 80, HighMgDl: 160, LowMmolL: 4.4, HighMmolL: 8.9}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Refresh() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, store.Get(t.Context())); diff != "" {
		t.Errorf("Get() after Refresh mismatch (-want +got):\n%s", diff)
	}

	raw, _ := kv.Get(t.Context(), models.KeyThresholds)
	const wantJSON = `{"bgLowMgdl":80,"bgHighMgdl":160,"bgLowMmol":4.4,"bgHighMmol":8.9}`
	if raw != wantJSON {
		t.Errorf("stored record = %s, want %s", raw, wantJSON)
	}
}

func TestStore_RefreshFailureLeavesRecord(t *testing.T) {
	t.Parallel()

	kv := settings.NewMemoryStore()
	fetchErr := &nightscout.ServerError{Endpoint: nightscout.EndpointStatus, StatusCode: 500}
	store := NewStore(kv, fetcherFunc(func(context.Context) (models.GlucoseThresholds, error) {
		return models.GlucoseThresholds{}, fetchErr
	}), xslog.Discard())

	previous, err := store.Set(t.Context(), 75, 170)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, err := store.Refresh(t.Context()); !errors.Is(err, fetchErr) {
		t.Fatalf("Refresh() error = %v, want the fetch error", err)
	}
	if diff := cmp.Diff(previous, store.Get(t.Context())); diff != "" {
		t.Errorf("record changed after failed refresh (-want +got):\n%s", diff)
	}
}

func TestStore_GetRecomputesMmol(t *testing.T) {
	t.Parallel()

	kv := settings.NewMemoryStore()
	_ = kv.Set(t.Context(), models.KeyThresholds, `{"bgLowMgdl":80,"bgHighMgdl":160,"bgLowMmol":1,"bgHighMmol":99}`)

	got := NewStore(kv, nil, xslog.Discard()).Get(t.Context())
	want := models.GlucoseThresholds{LowMgDl: 80, HighMgDl: 160, LowMmolL: 4.4, HighMmolL: 8.9}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_RefreshRejectsOutOfOrder(t *testing.T) {
	t.Parallel()

	kv := settings.NewMemoryStore()
	// Server reports only bgLow=200, so the default high of 180 stays below it
	store := NewStore(kv, fetcherFunc(func(context.Context) (models.GlucoseThresholds, error) {
		return models.NewThresholds(200, models.DefaultHighMgDl), nil
	}), xslog.Discard())

	previous, err := store.Set(t.Context(), 75, 170)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := store.Refresh(t.Context())
	var invalid *InvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("Refresh() = %+v, %v; want InvalidError", got, err)
	}
	if invalid.Low != 200 || invalid.High != 180 {
		t.Errorf("InvalidError = %+v, want 200/180", invalid)
	}
	if diff := cmp.Diff(previous, store.Get(t.Context())); diff != "" {
		t.Errorf("record changed after rejected refresh (-want +got):\n%s", diff)
	}
}

func TestStore_RefreshNotConfigured(t *testing.T) {
	t.Parallel()

	client := nightscout.NewClient(nightscout.StaticConfig{}, nightscout.WithLogger(xslog.Discard()))
	store := NewStore(settings.NewMemoryStore(), client, xslog.Discard())

	if _, err := store.Refresh(t.Context()); !errors.Is(err, nightscout.ErrNotConfigured) {
		t.Errorf("Refresh() error = %v, want ErrNotConfigured", err)
	}
}

func TestStore_SetAndReset(t *testing.T) {
	t.Parallel()

	store := NewStore(settings.NewMemoryStore(), nil, xslog.Discard())

	var invalid *InvalidError
	if _, err := store.Set(t.Context(), 180, 70); !errors.As(err, &invalid) {
		t.Errorf("Set() with low above high error = %v, want InvalidError", err)
	}

	got, err := store.Set(t.Context(), 63, 198)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got.LowMmolL != 3.5 || got.HighMmolL != 11.0 {
		t.Errorf("mmol mirrors = %v/%v, want 3.5/11.0", got.LowMmolL, got.HighMmolL)
	}

	if err := store.Reset(t.Context()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if diff := cmp.Diff(models.DefaultThresholds(), store.Get(t.Context())); diff != "" {
		t.Errorf("Get() after Reset mismatch (-want +got):\n%s", diff)
	}
}
