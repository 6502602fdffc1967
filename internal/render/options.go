package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/mrcode/nightscout-widget/internal/models"
)

// ChartWindow is how far back the chart reaches
const ChartWindow = 45 * time.Minute

// Options carries the display settings a render depends on
type Options struct {
	Unit       models.Unit
	Thresholds models.GlucoseThresholds
	// Now is the render instant; zero means the wall clock
	Now time.Time
}

// DefaultOptions renders in mg/dL against the default thresholds
func DefaultOptions() Options {
	return Options{Unit: models.UnitMgDl, Thresholds: models.DefaultThresholds()}
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// Size is one of the widget size variants
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Sizes lists every variant
var Sizes = []Size{SizeSmall, SizeMedium, SizeLarge}

func ParseSize(s string) (Size, error) {
	switch Size(strings.ToLower(strings.TrimSpace(s))) {
	case SizeSmall:
		return SizeSmall, nil
	case SizeMedium:
		return SizeMedium, nil
	case SizeLarge:
		return SizeLarge, nil
	default:
		return "", fmt.Errorf("invalid widget size: %q (valid: small, medium, large)", s)
	}
}

// Dimensions returns the image size in pixels
func (s Size) Dimensions() (width, height int) {
	switch s {
	case SizeMedium:
		return 364, 170
	case SizeLarge:
		return 364, 382
	default:
		return 170, 170
	}
}

// MinutesAgoLabel formats the age of a reading
func MinutesAgoLabel(s models.GlucoseSample, now time.Time) string {
	minutes := s.MinutesAgo(now)
	if minutes < 1 {
		return "just now"
	}
	return fmt.Sprintf("%d min", minutes)
}
