// Package render draws widget snapshots as PNG images and terminal text
package render

import (
	"fmt"
	"time"

	"github.com/mrcode/nightscout-widget/internal/models"
)

// Tone is the colour a reading is drawn in
type Tone int

const (
	ToneNeutral Tone = iota
	ToneInRange
	ToneLow
	ToneHigh
	ToneStale
)

func (t Tone) String() string {
	switch t {
	case ToneInRange:
		return "in_range"
	case ToneLow:
		return "low"
	case ToneHigh:
		return "high"
	case ToneStale:
		return "stale"
	default:
		return "neutral"
	}
}

// Hex returns the tone's colour as #rrggbb
func (t Tone) Hex() string {
	switch t {
	case ToneInRange:
		return "#4ade80" // Green
	case ToneLow:
		return "#ef4444" // Red
	case ToneHigh:
		return "#facc15" // Yellow
	case ToneStale:
		return "#f97316" // Orange
	default:
		return "#9ca3af" // Gray
	}
}

// RGB returns the tone's colour components
func (t Tone) RGB() (r, g, b uint8) {
	return parseHexColor(t.Hex())
}

// SampleTone picks the headline colour. Staleness wins over the threshold classification.
func SampleTone(s models.GlucoseSample, t models.GlucoseThresholds, unit models.Unit, now time.Time) Tone {
	if s.IsStale(now) {
		return ToneStale
	}
	return RangeTone(models.ClassifySample(s, t, unit))
}

// RangeTone maps a classification to its colour
func RangeTone(r models.Range) Tone {
	switch r {
	case models.RangeLow:
		return ToneLow
	case models.RangeHigh:
		return ToneHigh
	default:
		return ToneInRange
	}
}

// SnapshotTone is the headline tone of snapshot, neutral when it carries no reading
func SnapshotTone(snapshot models.WidgetSnapshot, opts Options) Tone {
	if snapshot.State() != models.StateData {
		return ToneNeutral
	}
	return SampleTone(*snapshot.Sample, opts.Thresholds, opts.Unit, opts.now())
}

// parseHexColor parses a hex color string to RGB values
func parseHexColor(hex string) (r, g, b uint8) {
	if len(hex) == 7 && hex[0] == '#' {
		_, _ = fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b)
	}
	return
}
