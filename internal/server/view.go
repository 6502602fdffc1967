package server

import (
	"time"

	"github.com/mrcode/nightscout-widget/internal/models"
	"github.com/mrcode/nightscout-widget/internal/render"
)

// snapshotView is a snapshot plus the values derived for display at request time
type snapshotView struct {
	models.WidgetSnapshot

	State      models.SnapshotState `json:"state"`
	Unit       models.Unit          `json:"unit"`
	Display    string               `json:"display,omitempty"`
	Arrow      string               `json:"arrow,omitempty"`
	Range      models.Range         `json:"range,omitempty"`
	Color      string               `json:"color"`
	Stale      bool                 `json:"stale"`
	MinutesAgo *int                 `json:"minutesAgo,omitempty"`
}

type timelineView struct {
	Entries     []snapshotView `json:"entries"`
	NextRefresh time.Time      `json:"nextRefresh"`
}

func newSnapshotView(snapshot models.WidgetSnapshot, opts render.Options) snapshotView {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	v := snapshotView{
		WidgetSnapshot: snapshot,
		State:          snapshot.State(),
		Unit:           opts.Unit,
		Color:          render.SnapshotTone(snapshot, opts).Hex(),
	}
	if v.State != models.StateData {
		return v
	}

	s := *snapshot.Sample
	minutes := s.MinutesAgo(now)
	v.Display = opts.Unit.Format(s.Value(opts.Unit)) + " " + opts.Unit.Label()
	v.Arrow = s.Direction.Arrow()
	v.Range = models.ClassifySample(s, opts.Thresholds, opts.Unit)
	v.Stale = s.IsStale(now)
	v.MinutesAgo = &minutes
	return v
}
