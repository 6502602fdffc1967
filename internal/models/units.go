package models

import (
	"fmt"
	"math"
	"strings"
)

// MgDlPerMmolL is the conversion factor between the two glucose units
const MgDlPerMmolL = 18.018018

// Unit is the user's display unit as stored in settings
type Unit string

// Supported display units
const (
	UnitMgDl  Unit = "mgdl"
	UnitMmolL Unit = "mmol"
)

// ParseUnit accepts the stored token as well as the usual spellings of both units
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mgdl", "mg/dl", "":
		return UnitMgDl, nil
	case "mmol", "mmol/l":
		return UnitMmolL, nil
	default:
		return "", fmt.Errorf("invalid unit: %q (valid: mgdl, mmol)", s)
	}
}

// Label returns the unit as shown next to a value
func (u Unit) Label() string {
	if u == UnitMmolL {
		return "mmol/L"
	}
	return "mg/dL"
}

// Format renders a value in the unit's usual precision
func (u Unit) Format(v float64) string {
	if u == UnitMmolL {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.0f", v)
}

// RoundToPlaces rounds half away from zero to the given number of decimal places
func RoundToPlaces(value float64, places int) float64 {
	divisor := math.Pow(10, float64(places))
	return math.Round(value*divisor) / divisor
}

// ToMmolL converts mg/dL to mmol/L with one decimal place
func ToMmolL(mgdl int) float64 {
	return RoundToPlaces(float64(mgdl)/MgDlPerMmolL, 1)
}

// ToMgDl converts mmol/L to the nearest whole mg/dL
func ToMgDl(mmol float64) int {
	return int(math.Round(mmol * MgDlPerMmolL))
}
