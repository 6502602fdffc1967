package models

import "time"

// HistoryLimit is the maximum number of samples carried by a snapshot
const HistoryLimit = 60

// LoopProperties holds the advisory loop/pump display strings
type LoopProperties struct {
	IOB           string `json:"iob"`
	COB           string `json:"cob"`
	PumpReservoir string `json:"pumpReservoir"`
	PumpBattery   string `json:"pumpBattery"`
}

// IsEmpty returns true if no property was reported
func (l LoopProperties) IsEmpty() bool {
	return l == LoopProperties{}
}

// SnapshotState is the renderable state of a snapshot
type SnapshotState string

// Snapshot states
const (
	StateData  SnapshotState = "data"
	StateError SnapshotState = "error"
	StateEmpty SnapshotState = "empty"
)

// WidgetSnapshot is the rendering contract handed to the display layer
type WidgetSnapshot struct {
	Date    time.Time       `json:"date"`
	Sample  *GlucoseSample  `json:"sample,omitempty"`
	History []GlucoseSample `json:"history"` // Newest first
	Loop    LoopProperties  `json:"loop"`
	Error   string          `json:"error,omitempty"`
}

// State returns which of the three render states the snapshot is in
func (w WidgetSnapshot) State() SnapshotState {
	switch {
	case w.Error != "":
		return StateError
	case w.Sample != nil:
		return StateData
	default:
		return StateEmpty
	}
}

// Window returns history samples newer than d before now, newest first
func (w WidgetSnapshot) Window(now time.Time, d time.Duration) []GlucoseSample {
	cutoff := now.Add(-d)
	out := make([]GlucoseSample, 0, len(w.History))
	for _, s := range w.History {
		if s.Timestamp.After(cutoff) {
			out = append(out, s)
		}
	}
	return out
}
