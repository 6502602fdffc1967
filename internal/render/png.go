package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/sync/errgroup"

	"github.com/mrcode/nightscout-widget/internal/models"
)

const (
	cornerRadius   = 22
	padding        = 16
	backgroundHex  = "#111827"
	chartFillHex   = "#1f2937"
	secondaryHex   = "#9ca3af"
	primaryTextHex = "#f9fafb"
)

// canvas is one render in progress
type canvas struct {
	dc   *gg.Context
	w, h float64
	opts Options
}

// Image draws snapshot at the given size
func Image(snapshot models.WidgetSnapshot, size Size, opts Options) (image.Image, error) {
	opts.Now = opts.now()

	w, h := size.Dimensions()
	c := &canvas{dc: gg.NewContext(w, h), w: float64(w), h: float64(h), opts: opts}
	c.background()

	var err error
	switch snapshot.State() {
	case models.StateError:
		err = c.drawError(snapshot.Error)
	case models.StateEmpty:
		err = c.drawEmpty()
	default:
		switch size {
		case SizeMedium:
			err = c.drawMedium(snapshot)
		case SizeLarge:
			err = c.drawLarge(snapshot)
		default:
			err = c.drawSmall(snapshot)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("render %s widget: %w", size, err)
	}
	return c.dc.Image(), nil
}

// PNG draws snapshot at the given size and encodes it
func PNG(snapshot models.WidgetSnapshot, size Size, opts Options) ([]byte, error) {
	img, err := Image(snapshot, size, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderAll draws every size concurrently
func RenderAll(ctx context.Context, snapshot models.WidgetSnapshot, opts Options) (map[Size][]byte, error) {
	opts.Now = opts.now()
	results := make([][]byte, len(Sizes))

	g, ctx := errgroup.WithContext(ctx)
	for i, size := range Sizes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := PNG(snapshot, size, opts)
			if err != nil {
				return err
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[Size][]byte, len(Sizes))
	for i, size := range Sizes {
		out[size] = results[i]
	}
	return out, nil
}

func (c *canvas) background() {
	c.dc.SetRGBA(0, 0, 0, 0)
	c.dc.Clear()
	c.dc.SetHexColor(backgroundHex)
	c.dc.DrawRoundedRectangle(0, 0, c.w, c.h, cornerRadius)
	c.dc.Fill()
}

func (c *canvas) setFont(bold bool, size float64) error {
	face, err := newFace(bold, size)
	if err != nil {
		return err
	}
	c.dc.SetFontFace(face)
	return nil
}

// text draws s with its left edge (ax=0), centre (0.5) or right edge (1) at x, vertically centred on y
func (c *canvas) text(s string, x, y, ax float64, hex string, bold bool, size float64) error {
	if err := c.setFont(bold, size); err != nil {
		return err
	}
	c.dc.SetHexColor(hex)
	c.dc.DrawStringAnchored(s, x, y, ax, 0.5)
	return nil
}

// headline draws value and trend arrow starting at x, centred on y
func (c *canvas) headline(sample models.GlucoseSample, x, y, size float64) error {
	tone := SampleTone(sample, c.opts.Thresholds, c.opts.Unit, c.opts.Now)
	value := c.opts.Unit.Format(sample.Value(c.opts.Unit))
	if c.opts.Unit == models.UnitMmolL {
		size *= 0.85
	}

	if err := c.text(value, x, y, 0, tone.Hex(), true, size); err != nil {
		return err
	}
	tw, _ := c.dc.MeasureString(value)

	arrowSize := size * 0.55
	ax := x + tw + arrowSize*0.75
	c.dc.SetHexColor(tone.Hex())
	drawArrow(c.dc, ax, y, arrowSize, sample.Direction)
	return nil
}

// age draws the minutes-ago label and, for old readings, the stale marker
func (c *canvas) age(sample models.GlucoseSample, x, y float64, staleX, staleAx float64) error {
	if err := c.text(MinutesAgoLabel(sample, c.opts.Now), x, y, 0, secondaryHex, false, 14); err != nil {
		return err
	}
	if sample.IsStale(c.opts.Now) {
		return c.text("stale", staleX, y, staleAx, ToneStale.Hex(), true, 14)
	}
	return nil
}

func (c *canvas) drawSmall(snapshot models.WidgetSnapshot) error {
	sample := *snapshot.Sample

	if err := c.headline(sample, padding, 58, 52); err != nil {
		return err
	}
	if err := c.text(c.opts.Unit.Label(), padding, 98, 0, secondaryHex, false, 14); err != nil {
		return err
	}
	return c.age(sample, padding, c.h-padding-8, c.w-padding, 1)
}

func (c *canvas) drawMedium(snapshot models.WidgetSnapshot) error {
	sample := *snapshot.Sample

	if err := c.headline(sample, padding, 58, 46); err != nil {
		return err
	}
	if err := c.text(c.opts.Unit.Label(), padding, 96, 0, secondaryHex, false, 14); err != nil {
		return err
	}
	if err := c.age(sample, padding, c.h-padding-8, padding+110, 1); err != nil {
		return err
	}

	chartX := 164.0
	chartW := c.w - chartX - padding
	chartH := c.h - 2*padding - 24
	c.drawChart(chartX, padding, chartW, chartH, Series(snapshot, c.opts))
	return c.text("Last 45 min", chartX+chartW/2, c.h-padding-8, 0.5, secondaryHex, false, 12)
}

func (c *canvas) drawLarge(snapshot models.WidgetSnapshot) error {
	sample := *snapshot.Sample

	if err := c.headline(sample, padding+4, 50, 56); err != nil {
		return err
	}
	if err := c.text(c.opts.Unit.Label(), c.w-padding, 36, 1, secondaryHex, false, 14); err != nil {
		return err
	}
	if err := c.text(MinutesAgoLabel(sample, c.opts.Now), c.w-padding, 58, 1, secondaryHex, false, 14); err != nil {
		return err
	}
	if sample.IsStale(c.opts.Now) {
		if err := c.text("stale", c.w-padding, 80, 1, ToneStale.Hex(), true, 14); err != nil {
			return err
		}
	}

	chartTop := 100.0
	chartBottom := c.h - padding - 24
	if !snapshot.Loop.IsEmpty() {
		chartBottom -= 64
	}
	c.drawChart(padding, chartTop, c.w-2*padding, chartBottom-chartTop, Series(snapshot, c.opts))
	if err := c.text("Last 45 min", c.w/2, chartBottom+14, 0.5, secondaryHex, false, 12); err != nil {
		return err
	}

	if snapshot.Loop.IsEmpty() {
		return nil
	}
	return c.drawLoop(snapshot.Loop, c.h-padding-48)
}

// drawLoop lays the loop properties out in four equal columns starting at y
func (c *canvas) drawLoop(loop models.LoopProperties, y float64) error {
	cells := loopCells(loop)
	colW := (c.w - 2*padding) / float64(len(cells))
	for i, cell := range cells {
		cx := padding + colW*(float64(i)+0.5)
		if err := c.text(cell.label, cx, y+8, 0.5, secondaryHex, false, 12); err != nil {
			return err
		}
		value := cell.value
		if value == "" {
			value = "-"
		}
		if err := c.text(value, cx, y+30, 0.5, primaryTextHex, true, 16); err != nil {
			return err
		}
	}
	return nil
}

type loopCell struct {
	label, value string
}

func loopCells(loop models.LoopProperties) []loopCell {
	return []loopCell{
		{"IOB", loop.IOB},
		{"COB", loop.COB},
		{"Reservoir", loop.PumpReservoir},
		{"Battery", loop.PumpBattery},
	}
}

func (c *canvas) drawChart(x, y, w, h float64, points []ChartPoint) {
	dc := c.dc
	lo, hi := YRange(points, c.opts.Unit)
	area := plotArea{
		x: x, y: y, w: w, h: h,
		start: c.opts.Now.Add(-ChartWindow),
		end:   c.opts.Now,
		lo:    lo,
		hi:    hi,
	}

	dc.SetHexColor(chartFillHex)
	dc.DrawRoundedRectangle(x, y, w, h, 8)
	dc.Fill()

	// Threshold lines
	low, high := c.opts.Thresholds.Bounds(c.opts.Unit)
	dc.SetLineWidth(1)
	dc.SetDash(5, 5)
	for _, rule := range []struct {
		v    float64
		tone Tone
	}{{low, ToneLow}, {high, ToneHigh}} {
		if !area.contains(rule.v) {
			continue
		}
		r, g, b := rule.tone.RGB()
		dc.SetRGBA255(int(r), int(g), int(b), 110)
		dc.DrawLine(x, area.py(rule.v), x+w, area.py(rule.v))
		dc.Stroke()
	}
	dc.SetDash()

	dc.SetLineWidth(2)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		dc.SetHexColor(cur.Tone.Hex())
		dc.DrawLine(area.px(prev.Time), area.py(prev.Value), area.px(cur.Time), area.py(cur.Value))
		dc.Stroke()
	}
	for _, p := range points {
		dc.SetHexColor(p.Tone.Hex())
		dc.DrawCircle(area.px(p.Time), area.py(p.Value), 2.5)
		dc.Fill()
	}
}

func (c *canvas) drawError(message string) error {
	cx, cy := c.w/2, c.h/2-22

	c.dc.SetHexColor(ToneStale.Hex())
	c.dc.NewSubPath()
	c.dc.MoveTo(cx, cy-16)
	c.dc.LineTo(cx+18, cy+14)
	c.dc.LineTo(cx-18, cy+14)
	c.dc.ClosePath()
	c.dc.Fill()
	if err := c.text("!", cx, cy+4, 0.5, backgroundHex, true, 18); err != nil {
		return err
	}

	if err := c.setFont(false, 14); err != nil {
		return err
	}
	c.dc.SetHexColor(primaryTextHex)
	c.dc.DrawStringWrapped(message, cx, cy+30, 0.5, 0, c.w-2*padding, 1.3, gg.AlignCenter)
	return nil
}

func (c *canvas) drawEmpty() error {
	return c.text("No data", c.w/2, c.h/2, 0.5, secondaryHex, false, 16)
}

// drawArrow draws a vector arrow for direction centred at x, y
func drawArrow(dc *gg.Context, x, y, size float64, direction models.TrendDirection) {
	dc.Push()
	defer dc.Pop()

	dc.Translate(x, y)

	var angle float64
	switch direction {
	case models.DoubleUp, models.SingleUp:
		angle = 0
	case models.FortyFiveUp:
		angle = 45
	case models.FortyFiveDown:
		angle = 135
	case models.DoubleDown, models.SingleDown:
		angle = 180
	default:
		// Flat, NONE and Unknown
		angle = 90
	}
	dc.Rotate(gg.Radians(angle))

	halfSize := size / 2
	if direction == models.DoubleUp || direction == models.DoubleDown {
		drawSingleArrow(dc, 0, -halfSize/2, size*0.8)
		drawSingleArrow(dc, 0, halfSize/2, size*0.8)
		return
	}
	drawSingleArrow(dc, 0, 0, size)
}

func drawSingleArrow(dc *gg.Context, ox, oy, s float64) {
	w := s * 0.5

	dc.NewSubPath()
	dc.MoveTo(ox, oy-s/2)
	dc.LineTo(ox+w/2, oy)
	dc.LineTo(ox+w/6, oy)
	dc.LineTo(ox+w/6, oy+s/2)
	dc.LineTo(ox-w/6, oy+s/2)
	dc.LineTo(ox-w/6, oy)
	dc.LineTo(ox-w/2, oy)
	dc.ClosePath()
	dc.Fill()
}
