package render

import (
	"slices"
	"time"

	"github.com/mrcode/nightscout-widget/internal/models"
)

// Chart padding and the range used when there is nothing to plot
const (
	chartPaddingMgDl  = 20.0
	chartPaddingMmolL = 1.0
)

var (
	fallbackRangeMgDl  = [2]float64{50, 220}
	fallbackRangeMmolL = [2]float64{3, 12}
)

// ChartPoint is one plotted reading
type ChartPoint struct {
	Time  time.Time
	Value float64
	Tone  Tone
}

// Series returns the readings of the last ChartWindow, oldest first, in the display unit
func Series(snapshot models.WidgetSnapshot, opts Options) []ChartPoint {
	window := snapshot.Window(opts.now(), ChartWindow)
	points := make([]ChartPoint, 0, len(window))
	for _, s := range window {
		v := s.Value(opts.Unit)
		points = append(points, ChartPoint{
			Time:  s.Timestamp,
			Value: v,
			Tone:  RangeTone(models.Classify(v, opts.Thresholds, opts.Unit)),
		})
	}
	slices.Reverse(points)
	return points
}

// YRange returns the vertical extent of the chart: the data range padded on both
// sides, or a fixed fallback range when there is no data.
func YRange(points []ChartPoint, unit models.Unit) (lo, hi float64) {
	if len(points) == 0 {
		if unit == models.UnitMmolL {
			return fallbackRangeMmolL[0], fallbackRangeMmolL[1]
		}
		return fallbackRangeMgDl[0], fallbackRangeMgDl[1]
	}

	lo, hi = points[0].Value, points[0].Value
	for _, p := range points[1:] {
		lo = min(lo, p.Value)
		hi = max(hi, p.Value)
	}

	padding := chartPaddingMgDl
	if unit == models.UnitMmolL {
		padding = chartPaddingMmolL
	}
	return lo - padding, hi + padding
}

// plotArea maps times and values into a pixel rectangle
type plotArea struct {
	x, y, w, h float64
	start, end time.Time
	lo, hi     float64
}

func (a plotArea) px(t time.Time) float64 {
	span := a.end.Sub(a.start).Seconds()
	if span <= 0 {
		return a.x + a.w
	}
	return a.x + a.w*t.Sub(a.start).Seconds()/span
}

func (a plotArea) py(v float64) float64 {
	span := a.hi - a.lo
	if span <= 0 {
		return a.y + a.h/2
	}
	return a.y + a.h - a.h*(v-a.lo)/span
}

func (a plotArea) contains(v float64) bool {
	return v >= a.lo && v <= a.hi
}
