package models

import (
	"testing"
	"time"
)

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()

	if th.LowMgDl != 70 || th.HighMgDl != 180 {
		t.Errorf("mg/dL = %v/%v, want 70/180", th.LowMgDl, th.HighMgDl)
	}
	if th.LowMmolL != 3.9 || th.HighMmolL != 10.0 {
		t.Errorf("mmol/L = %v/%v, want 3.9/10.0", th.LowMmolL, th.HighMmolL)
	}
}

func TestGlucoseThresholds_Normalize(t *testing.T) {
	th := GlucoseThresholds{LowMgDl: 80, HighMgDl: 160, LowMmolL: 1, HighMmolL: 99}.Normalize()

	if th.LowMmolL != 4.4 || th.HighMmolL != 8.9 {
		t.Errorf("mmol/L = %v/%v, want 4.4/8.9", th.LowMmolL, th.HighMmolL)
	}
}

func TestGlucoseThresholds_Valid(t *testing.T) {
	if !DefaultThresholds().Valid() {
		t.Error("default thresholds should be valid")
	}
	if (GlucoseThresholds{}).Valid() {
		t.Error("zero thresholds should be invalid")
	}
	if NewThresholds(180, 70).Valid() {
		t.Error("inverted thresholds should be invalid")
	}
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name     string
		value    float64
		unit     Unit
		expected Range
	}{
		{"Low", 65, UnitMgDl, RangeLow},
		{"High", 200, UnitMgDl, RangeHigh},
		{"In range", 120, UnitMgDl, RangeInRange},
		{"Low boundary", 70, UnitMgDl, RangeInRange},
		{"High boundary", 180, UnitMgDl, RangeInRange},
		{"Low mmol", 3.5, UnitMmolL, RangeLow},
		{"High boundary mmol", 10.0, UnitMmolL, RangeInRange},
		{"High mmol", 10.1, UnitMmolL, RangeHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.value, th, tt.unit); got != tt.expected {
				t.Errorf("Classify(%v) = %s, want %s", tt.value, got, tt.expected)
			}
		})
	}
}

func TestClassifySample(t *testing.T) {
	s := NewGlucoseSample(time.Now(), 181, Flat)

	if got := ClassifySample(s, DefaultThresholds(), UnitMgDl); got != RangeHigh {
		t.Errorf("mg/dL classification = %s, want high", got)
	}
	// 181 mg/dL is 10.0 mmol/L after rounding, which sits on the boundary
	if got := ClassifySample(s, DefaultThresholds(), UnitMmolL); got != RangeInRange {
		t.Errorf("mmol/L classification = %s, want in_range", got)
	}
}
