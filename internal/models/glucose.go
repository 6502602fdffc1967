// Package models contains data structures used throughout the application
package models

import (
	"time"

	"github.com/google/uuid"
)

// StaleAfter is the age after which a reading is shown as outdated
const StaleAfter = 15 * time.Minute

// TrendDirection is the Nightscout rate-of-change token for a reading
type TrendDirection string

// Known trend directions
const (
	DoubleUp      TrendDirection = "DoubleUp"
	SingleUp      TrendDirection = "SingleUp"
	FortyFiveUp   TrendDirection = "FortyFiveUp"
	Flat          TrendDirection = "Flat"
	FortyFiveDown TrendDirection = "FortyFiveDown"
	SingleDown    TrendDirection = "SingleDown"
	DoubleDown    TrendDirection = "DoubleDown"
	DirectionNone TrendDirection = "NONE"
	Unknown       TrendDirection = "Unknown"
)

var knownDirections = map[TrendDirection]struct{}{
	DoubleUp:      {},
	SingleUp:      {},
	FortyFiveUp:   {},
	Flat:          {},
	FortyFiveDown: {},
	SingleDown:    {},
	DoubleDown:    {},
	DirectionNone: {},
}

// ParseDirection maps a wire token to a TrendDirection.
// Nightscout's "could not compute" tokens yield Unknown; empty or unrecognized tokens yield NONE.
func ParseDirection(s string) TrendDirection {
	d := TrendDirection(s)
	if _, ok := knownDirections[d]; ok {
		return d
	}
	switch s {
	case "NOT COMPUTABLE", "RATE OUT OF RANGE", string(Unknown):
		return Unknown
	}
	return DirectionNone
}

// Arrow returns the Unicode arrow for the direction
func (d TrendDirection) Arrow() string {
	switch d {
	case DoubleUp:
		return "⇈"
	case SingleUp:
		return "↑"
	case FortyFiveUp:
		return "↗"
	case FortyFiveDown:
		return "↘"
	case SingleDown:
		return "↓"
	case DoubleDown:
		return "⇊"
	default:
		// Flat, NONE and anything we could not read render the same
		return "→"
	}
}

// DecodeFlags records which fields of a sample fell back to a default while decoding
type DecodeFlags uint8

// Decode flags
const (
	DefaultedTime DecodeFlags = 1 << iota
	DefaultedValue
)

// Has reports whether all bits of f are set
func (d DecodeFlags) Has(f DecodeFlags) bool {
	return d&f == f
}

// GlucoseSample is one normalized glucose reading
type GlucoseSample struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	ValueMgDl  int            `json:"valueMgDl"`  // Canonical value
	ValueMmolL float64        `json:"valueMmolL"` // Always derived from ValueMgDl
	Direction  TrendDirection `json:"direction"`
	Defaulted  DecodeFlags    `json:"defaulted,omitempty"`
}

// NewGlucoseSample builds a sample with a fresh ID and the mmol/L value derived from mgdl
func NewGlucoseSample(ts time.Time, mgdl int, direction TrendDirection) GlucoseSample {
	return GlucoseSample{
		ID:         uuid.NewString(),
		Timestamp:  ts,
		ValueMgDl:  mgdl,
		ValueMmolL: ToMmolL(mgdl),
		Direction:  direction,
	}
}

// Value returns the reading in the given unit
func (g GlucoseSample) Value(unit Unit) float64 {
	if unit == UnitMmolL {
		return g.ValueMmolL
	}
	return float64(g.ValueMgDl)
}

// Age returns how long ago the reading was taken relative to now
func (g GlucoseSample) Age(now time.Time) time.Duration {
	return now.Sub(g.Timestamp)
}

// MinutesAgo returns the whole minutes elapsed since the reading
func (g GlucoseSample) MinutesAgo(now time.Time) int {
	return int(g.Age(now).Minutes())
}

// IsStale returns true if the reading is older than StaleAfter at now
func (g GlucoseSample) IsStale(now time.Time) bool {
	return g.Age(now) > StaleAfter
}
