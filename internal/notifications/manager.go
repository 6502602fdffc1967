// Package notifications raises desktop alerts for low and high readings
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

const appName = "Nightscout Widget"

// Notifier delivers one notification
type Notifier interface {
	Notify(title, message string) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(title, message string) error

func (f NotifierFunc) Notify(title, message string) error {
	return f(title, message)
}

// Desktop sends notifications through the platform notification service
var Desktop Notifier = NotifierFunc(func(title, message string) error {
	return beeep.Notify(title, message, "")
})

// Manager handles glucose alerts and notifications
type Manager struct {
	notifier Notifier
	repeat   time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu            sync.Mutex
	lastAlertTime map[models.Range]time.Time
}

// NewManager creates a manager. A repeat of zero alerts once per excursion.
func NewManager(notifier Notifier, repeat time.Duration, logger *slog.Logger) *Manager {
	if notifier == nil {
		notifier = Desktop
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		notifier:      notifier,
		repeat:        repeat,
		now:           time.Now,
		logger:        logger,
		lastAlertTime: make(map[models.Range]time.Time),
	}
}

// CheckAndNotify alerts if sample is fresh and outside the thresholds. A reading back
// in range resets the alert state so the next excursion alerts immediately.
func (m *Manager) CheckAndNotify(sample models.GlucoseSample, t models.GlucoseThresholds, unit models.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if sample.IsStale(now) {
		return nil
	}

	r := models.ClassifySample(sample, t, unit)
	if r == models.RangeInRange {
		clear(m.lastAlertTime)
		return nil
	}

	// Check if we should repeat the alert
	if lastTime, ok := m.lastAlertTime[r]; ok {
		if m.repeat <= 0 || now.Sub(lastTime) < m.repeat {
			return nil
		}
	}

	title, message := formatNotification(sample, r, unit)
	if err := m.notifier.Notify(title, message); err != nil {
		return fmt.Errorf("failed to send %s alert: %w", r, err)
	}

	m.lastAlertTime[r] = now
	return nil
}

// Subscriber returns a widget subscriber that checks every data snapshot. The display
// settings are resolved per snapshot so that changes apply without a restart.
func (m *Manager) Subscriber(display func(ctx context.Context) (models.GlucoseThresholds, models.Unit)) func(context.Context, models.WidgetSnapshot) {
	return func(ctx context.Context, snapshot models.WidgetSnapshot) {
		if snapshot.State() != models.StateData {
			return
		}
		t, unit := display(ctx)
		if err := m.CheckAndNotify(*snapshot.Sample, t, unit); err != nil {
			m.logger.WarnContext(ctx, "notification error", xslog.Error(err))
		}
	}
}

// ClearAlertState forgets previous alerts
func (m *Manager) ClearAlertState() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.lastAlertTime)
}

// SendTestNotification sends a test notification
func (m *Manager) SendTestNotification() error {
	return m.notifier.Notify(appName, "Test notification - alerts are working!")
}

func formatNotification(sample models.GlucoseSample, r models.Range, unit models.Unit) (title, message string) {
	value := unit.Format(sample.Value(unit)) + " " + unit.Label()

	switch r {
	case models.RangeLow:
		title = "⬇️ Low Glucose"
		message = fmt.Sprintf("Glucose is low: %s %s", value, sample.Direction.Arrow())
	case models.RangeHigh:
		title = "⬆️ High Glucose"
		message = fmt.Sprintf("Glucose is high: %s %s", value, sample.Direction.Arrow())
	}
	return title, message
}
