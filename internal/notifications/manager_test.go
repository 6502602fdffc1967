package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

type recorder struct {
	titles   []string
	messages []string
	err      error
}

func (r *recorder) Notify(title, message string) error {
	if r.err != nil {
		return r.err
	}
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(repeat time.Duration) (*Manager, *recorder, *clock) {
	rec := &recorder{}
	clk := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(rec, repeat, xslog.Discard())
	m.now = clk.now
	return m, rec, clk
}

func sampleAt(c *clock, mgdl int) models.GlucoseSample {
	return models.NewGlucoseSample(c.now(), mgdl, models.SingleDown)
}

func TestManager_AlertsOutsideRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mgdl      int
		wantTitle string
	}{
		{"low", 60, "⬇️ Low Glucose"},
		{"high", 250, "⬆️ High Glucose"},
		{"in range", 120, ""},
		{"low boundary", 70, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, rec, clk := newTestManager(15 * time.Minute)
			if err := m.CheckAndNotify(sampleAt(clk, tt.mgdl), models.DefaultThresholds(), models.UnitMgDl); err != nil {
				t.Fatalf("CheckAndNotify() error = %v", err)
			}

			if tt.wantTitle == "" {
				if len(rec.titles) != 0 {
					t.Errorf("unexpected alert %q", rec.titles[0])
				}
				return
			}
			if len(rec.titles) != 1 || rec.titles[0] != tt.wantTitle {
				t.Errorf("titles = %v, want [%s]", rec.titles, tt.wantTitle)
			}
		})
	}
}

func TestManager_MessageUsesUnit(t *testing.T) {
	t.Parallel()

	m, rec, clk := newTestManager(0)
	if err := m.CheckAndNotify(sampleAt(clk, 54), models.DefaultThresholds(), models.UnitMmolL); err != nil {
		t.Fatal(err)
	}
	if len(rec.messages) != 1 || !strings.Contains(rec.messages[0], "3.0 mmol/L ↓") {
		t.Errorf("messages = %v, want mmol value with arrow", rec.messages)
	}
}

func TestManager_Repeat(t *testing.T) {
	t.Parallel()

	m, rec, clk := newTestManager(15 * time.Minute)
	th := models.DefaultThresholds()

	_ = m.CheckAndNotify(sampleAt(clk, 60), th, models.UnitMgDl)
	clk.advance(5 * time.Minute)
	_ = m.CheckAndNotify(sampleAt(clk, 58), th, models.UnitMgDl)
	if len(rec.titles) != 1 {
		t.Fatalf("alerts within repeat interval = %d, want 1", len(rec.titles))
	}

	clk.advance(10 * time.Minute)
	_ = m.CheckAndNotify(sampleAt(clk, 57), th, models.UnitMgDl)
	if len(rec.titles) != 2 {
		t.Errorf("alerts after repeat interval = %d, want 2", len(rec.titles))
	}
}

func TestManager_NoRepeatAlertsOncePerExcursion(t *testing.T) {
	t.Parallel()

	m, rec, clk := newTestManager(0)
	th := models.DefaultThresholds()

	_ = m.CheckAndNotify(sampleAt(clk, 200), th, models.UnitMgDl)
	clk.advance(time.Hour)
	_ = m.CheckAndNotify(sampleAt(clk, 210), th, models.UnitMgDl)
	if len(rec.titles) != 1 {
		t.Fatalf("alerts = %d, want 1", len(rec.titles))
	}

	clk.advance(5 * time.Minute)
	_ = m.CheckAndNotify(sampleAt(clk, 150), th, models.UnitMgDl)
	clk.advance(5 * time.Minute)
	_ = m.CheckAndNotify(sampleAt(clk, 200), th, models.UnitMgDl)
	if len(rec.titles) != 2 {
		t.Errorf("alerts after returning to range = %d, want 2", len(rec.titles))
	}
}

func TestManager_IgnoresStaleReadings(t *testing.T) {
	t.Parallel()

	m, rec, clk := newTestManager(0)
	old := models.NewGlucoseSample(clk.now().Add(-20*time.Minute), 50, models.Flat)

	if err := m.CheckAndNotify(old, models.DefaultThresholds(), models.UnitMgDl); err != nil {
		t.Fatal(err)
	}
	if len(rec.titles) != 0 {
		t.Errorf("stale reading raised %d alerts", len(rec.titles))
	}
}

func TestManager_NotifierError(t *testing.T) {
	t.Parallel()

	m, rec, clk := newTestManager(0)
	rec.err = errors.New("no dbus")

	err := m.CheckAndNotify(sampleAt(clk, 50), models.DefaultThresholds(), models.UnitMgDl)
	if !errors.Is(err, rec.err) {
		t.Fatalf("CheckAndNotify() error = %v, want wrapped notifier error", err)
	}

	// A failed delivery is retried on the next reading
	rec.err = nil
	_ = m.CheckAndNotify(sampleAt(clk, 50), models.DefaultThresholds(), models.UnitMgDl)
	if len(rec.titles) != 1 {
		t.Errorf("alerts after recovery = %d, want 1", len(rec.titles))
	}
}

func TestManager_Subscriber(t *testing.T) {
	t.Parallel()

	m, rec, clk := newTestManager(0)
	sub := m.Subscriber(func(context.Context) (models.GlucoseThresholds, models.Unit) {
		return models.NewThresholds(80, 160), models.UnitMgDl
	})

	s := sampleAt(clk, 75)
	sub(t.Context(), models.WidgetSnapshot{Error: "boom"})
	sub(t.Context(), models.WidgetSnapshot{Sample: &s, History: []models.GlucoseSample{s}})

	if len(rec.titles) != 1 || rec.titles[0] != "⬇️ Low Glucose" {
		t.Errorf("titles = %v, want one low alert", rec.titles)
	}
}

func TestManager_SendTestNotification(t *testing.T) {
	t.Parallel()

	m, rec, _ := newTestManager(0)
	if err := m.SendTestNotification(); err != nil {
		t.Fatal(err)
	}
	if len(rec.titles) != 1 || rec.titles[0] != appName {
		t.Errorf("titles = %v", rec.titles)
	}
}
