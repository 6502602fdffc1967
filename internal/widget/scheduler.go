package widget

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

// MinInterval is the fastest the scheduler refreshes on its own
const MinInterval = time.Minute

// Subscriber is called with every new snapshot, in registration order
type Subscriber func(ctx context.Context, snapshot models.WidgetSnapshot)

// Scheduler refreshes the provider on a fixed cadence and on demand, keeping the latest snapshot
type Scheduler struct {
	provider *Provider
	interval time.Duration
	logger   *slog.Logger

	// refreshMu allows one refresh at a time
	refreshMu sync.Mutex

	mu          sync.RWMutex
	last        models.WidgetSnapshot
	hasLast     bool
	nextRefresh time.Time
	subscribers []Subscriber

	kick chan struct{}
}

func NewScheduler(provider *Provider, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval < MinInterval {
		interval = MinInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		provider: provider,
		interval: interval,
		logger:   logger,
		kick:     make(chan struct{}, 1),
	}
}

// Interval returns the effective refresh interval
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Subscribe registers fn for future snapshots
func (s *Scheduler) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Run refreshes immediately and then on every tick until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "refresh loop started", xslog.Duration(s.interval))
	s.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "refresh loop stopped")
			return nil
		case <-ticker.C:
			s.Refresh(ctx)
		case <-s.kick:
			// A reload just ran; restart the cadence from now
			ticker.Reset(s.interval)
		}
	}
}

// Reload refreshes now, outside the regular cadence, and returns the new snapshot
func (s *Scheduler) Reload(ctx context.Context) models.WidgetSnapshot {
	snapshot := s.Refresh(ctx)
	select {
	case s.kick <- struct{}{}:
	default:
	}
	return snapshot
}

// Refresh produces a snapshot, stores it and notifies subscribers
func (s *Scheduler) Refresh(ctx context.Context) models.WidgetSnapshot {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	snapshot := s.provider.Snapshot(ctx)

	s.mu.Lock()
	s.last = snapshot
	s.hasLast = true
	s.nextRefresh = snapshot.Date.Add(s.interval)
	subscribers := make([]Subscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "refreshed",
		xslog.State(string(snapshot.State())),
		xslog.Duration(time.Since(start)),
	)

	for _, fn := range subscribers {
		fn(ctx, snapshot)
	}
	return snapshot
}

// Last returns the latest snapshot, or false if no refresh has completed
func (s *Scheduler) Last() (models.WidgetSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.hasLast
}

// Current returns the latest snapshot, or the placeholder before the first refresh
func (s *Scheduler) Current() models.WidgetSnapshot {
	if snapshot, ok := s.Last(); ok {
		return snapshot
	}
	return s.provider.Placeholder()
}

// Timeline returns the latest snapshot with the time of the next scheduled refresh
func (s *Scheduler) Timeline() Timeline {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasLast {
		placeholder := s.provider.Placeholder()
		return Timeline{
			Entries:     []models.WidgetSnapshot{placeholder},
			NextRefresh: placeholder.Date.Add(RefreshAfter),
		}
	}
	return Timeline{
		Entries:     []models.WidgetSnapshot{s.last},
		NextRefresh: s.nextRefresh,
	}
}
