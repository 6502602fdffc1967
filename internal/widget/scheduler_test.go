package widget

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

func TestNewScheduler_ClampsInterval(t *testing.T) {
	t.Parallel()

	s := NewScheduler(newTestProvider(&fakeSource{}, nil), 10*time.Second, xslog.Discard())
	if s.Interval() != MinInterval {
		t.Errorf("Interval() = %v, want %v", s.Interval(), MinInterval)
	}
}

func TestScheduler_CurrentBeforeRefresh(t *testing.T) {
	t.Parallel()

	s := NewScheduler(newTestProvider(&fakeSource{}, nil), time.Minute, xslog.Discard())

	if _, ok := s.Last(); ok {
		t.Error("Last() reported a snapshot before any refresh")
	}
	if cur := s.Current(); cur.Sample == nil || cur.Sample.ValueMgDl != 120 {
		t.Errorf("Current() = %+v, want placeholder", cur)
	}
	if tl := s.Timeline(); len(tl.Entries) != 1 {
		t.Errorf("Timeline() entries = %d, want 1", len(tl.Entries))
	}
}

func TestScheduler_ReloadNotifiesSubscribers(t *testing.T) {
	t.Parallel()

	src := &fakeSource{entries: samples(2)}
	s := NewScheduler(newTestProvider(src, nil), time.Minute, xslog.Discard())

	var got []models.SnapshotState
	s.Subscribe(func(_ context.Context, snap models.WidgetSnapshot) {
		got = append(got, snap.State())
	})

	snap := s.Reload(t.Context())
	if snap.State() != models.StateData {
		t.Fatalf("Reload() state = %s, want data", snap.State())
	}

	last, ok := s.Last()
	if !ok || last.Sample.ID != snap.Sample.ID {
		t.Error("Last() does not return the reloaded snapshot")
	}
	if len(got) != 1 || got[0] != models.StateData {
		t.Errorf("subscriber saw %v, want [data]", got)
	}
	if want := testNow.Add(time.Minute); !s.Timeline().NextRefresh.Equal(want) {
		t.Errorf("NextRefresh = %v, want %v", s.Timeline().NextRefresh, want)
	}
}

func TestScheduler_RunRefreshesImmediately(t *testing.T) {
	t.Parallel()

	src := &fakeSource{entries: samples(1)}
	s := NewScheduler(newTestProvider(src, nil), time.Hour, xslog.Discard())

	refreshed := make(chan struct{}, 1)
	s.Subscribe(func(context.Context, models.WidgetSnapshot) {
		select {
		case refreshed <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-refreshed:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not refresh on start")
	}

	// A reload while running must not block on the loop
	s.Reload(ctx)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}

	if n := src.entryCalls.Load(); n != 2 {
		t.Errorf("entry fetches = %d, want 2", n)
	}
}

func TestScheduler_RefreshesOneAtATime(t *testing.T) {
	t.Parallel()

	src := &fakeSource{entries: samples(1)}
	s := NewScheduler(newTestProvider(src, nil), time.Minute, xslog.Discard())

	var (
		mu      sync.Mutex
		active  int
		overlap bool
	)
	s.Subscribe(func(context.Context, models.WidgetSnapshot) {
		mu.Lock()
		active++
		if active > 1 {
			overlap = true
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Reload(t.Context())
		}()
	}
	wg.Wait()

	if overlap {
		t.Error("refreshes overlapped")
	}
	if n := src.entryCalls.Load(); n != 8 {
		t.Errorf("entry fetches = %d, want 8", n)
	}
}
