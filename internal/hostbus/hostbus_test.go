package hostbus

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/xslog"
)

type countingReloader struct {
	calls    atomic.Int32
	snapshot models.WidgetSnapshot
}

func (r *countingReloader) Reload(context.Context) models.WidgetSnapshot {
	r.calls.Add(1)
	return r.snapshot
}

func TestHandler_Reload(t *testing.T) {
	t.Parallel()

	sample := models.NewGlucoseSample(time.Now(), 120, models.Flat)
	tests := []struct {
		name     string
		snapshot models.WidgetSnapshot
		want     string
	}{
		{"data", models.WidgetSnapshot{Sample: &sample}, "data"},
		{"error", models.WidgetSnapshot{Error: "Cannot reach Nightscout server"}, "error"},
		{"empty", models.WidgetSnapshot{}, "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &countingReloader{snapshot: tt.snapshot}
			h := &handler{ctx: t.Context(), reloader: r, logger: xslog.Discard()}

			got, derr := h.Reload()
			if derr != nil {
				t.Fatalf("Reload() error = %v", derr)
			}
			if got != tt.want {
				t.Errorf("Reload() = %q, want %q", got, tt.want)
			}
			if r.calls.Load() != 1 {
				t.Errorf("reloader called %d times, want 1", r.calls.Load())
			}
		})
	}
}

func sessionBus(t *testing.T) *dbus.Conn {
	t.Helper()

	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no session bus")
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		t.Skipf("session bus unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestExportAndCall(t *testing.T) {
	server := sessionBus(t)
	client := sessionBus(t)

	r := &countingReloader{snapshot: models.WidgetSnapshot{Error: "no data from server"}}
	if err := Export(t.Context(), server, r, xslog.Discard()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	// The unique connection name avoids clashing with a host running on this bus
	state, err := Call(ctx, client, server.Names()[0])
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if state != models.StateError {
		t.Errorf("state = %q, want %q", state, models.StateError)
	}
	if r.calls.Load() != 1 {
		t.Errorf("reloader called %d times, want 1", r.calls.Load())
	}
}
