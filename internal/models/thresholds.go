package models

// Default threshold boundaries in mg/dL
const (
	DefaultLowMgDl  = 70
	DefaultHighMgDl = 180
)

// GlucoseThresholds holds the low/high boundaries in both units
type GlucoseThresholds struct {
	LowMgDl   float64 `json:"bgLowMgdl"`
	HighMgDl  float64 `json:"bgHighMgdl"`
	LowMmolL  float64 `json:"bgLowMmol"`
	HighMmolL float64 `json:"bgHighMmol"`
}

// NewThresholds builds thresholds from mg/dL boundaries, deriving the mmol/L mirrors
func NewThresholds(lowMgDl, highMgDl float64) GlucoseThresholds {
	return GlucoseThresholds{
		LowMgDl:   lowMgDl,
		HighMgDl:  highMgDl,
		LowMmolL:  RoundToPlaces(lowMgDl/MgDlPerMmolL, 1),
		HighMmolL: RoundToPlaces(highMgDl/MgDlPerMmolL, 1),
	}
}

// DefaultThresholds returns 70/180 mg/dL (3.9/10.0 mmol/L)
func DefaultThresholds() GlucoseThresholds {
	return NewThresholds(DefaultLowMgDl, DefaultHighMgDl)
}

// Normalize recomputes the mmol/L mirrors from the mg/dL boundaries
func (t GlucoseThresholds) Normalize() GlucoseThresholds {
	return NewThresholds(t.LowMgDl, t.HighMgDl)
}

// Valid reports whether the boundaries are usable for classification
func (t GlucoseThresholds) Valid() bool {
	return t.LowMgDl > 0 && t.HighMgDl > t.LowMgDl
}

// Bounds returns low and high in the given unit
func (t GlucoseThresholds) Bounds(unit Unit) (low, high float64) {
	if unit == UnitMmolL {
		return t.LowMmolL, t.HighMmolL
	}
	return t.LowMgDl, t.HighMgDl
}

// Range is the classification of a reading against the thresholds
type Range string

// Ranges
const (
	RangeLow     Range = "low"
	RangeInRange Range = "in_range"
	RangeHigh    Range = "high"
)

// Classify places value against thresholds in unit. Both boundaries are in range.
func Classify(value float64, t GlucoseThresholds, unit Unit) Range {
	low, high := t.Bounds(unit)
	switch {
	case value < low:
		return RangeLow
	case value > high:
		return RangeHigh
	default:
		return RangeInRange
	}
}

// ClassifySample classifies a sample in the given display unit
func ClassifySample(s GlucoseSample, t GlucoseThresholds, unit Unit) Range {
	return Classify(s.Value(unit), t, unit)
}
