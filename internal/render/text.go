package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/mrcode/nightscout-widget/internal/models"
)

// SparklineHeight is the number of text rows the terminal chart uses
const SparklineHeight = 6

// Braille blocks, 4 sub-blocks per row: empty, 1/4, 1/2, 3/4, full
var blocks = []rune{'⠀', '⣀', '⣤', '⣶', '⣿'}

const subBlocksPerRow = 4.0

// Text renders snapshot for a terminal
func Text(snapshot models.WidgetSnapshot, opts Options) string {
	opts.Now = opts.now()

	switch snapshot.State() {
	case models.StateError:
		return "⚠ " + snapshot.Error + "\n"
	case models.StateEmpty:
		return "No data\n"
	}

	sample := *snapshot.Sample
	tone := SampleTone(sample, opts.Thresholds, opts.Unit, opts.Now)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s  %s  [%s]\n",
		opts.Unit.Format(sample.Value(opts.Unit)),
		opts.Unit.Label(),
		sample.Direction.Arrow(),
		MinutesAgoLabel(sample, opts.Now),
		tone,
	)

	points := Series(snapshot, opts)
	if rows := Sparkline(points, opts.Unit, SparklineHeight); len(rows) > 0 {
		lo, hi := YRange(points, opts.Unit)
		fmt.Fprintf(&b, "%s\n", opts.Unit.Format(hi))
		for _, row := range rows {
			b.WriteString(row)
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  (last 45 min)\n", opts.Unit.Format(lo))
	}

	if !snapshot.Loop.IsEmpty() {
		parts := make([]string, 0, 4)
		for _, cell := range loopCells(snapshot.Loop) {
			if cell.value != "" {
				parts = append(parts, cell.label+" "+cell.value)
			}
		}
		b.WriteString(strings.Join(parts, "  "))
		b.WriteByte('\n')
	}

	return b.String()
}

// Sparkline draws points as height rows of braille bars, one column per point,
// scaled to YRange. Fewer than two points draw nothing.
func Sparkline(points []ChartPoint, unit models.Unit, height int) []string {
	if len(points) < 2 || height < 1 {
		return nil
	}

	lo, hi := YRange(points, unit)
	span := hi - lo

	rows := make([][]rune, height)
	for i := range rows {
		rows[i] = []rune(strings.Repeat(string(blocks[0]), len(points)))
	}

	for x, p := range points {
		normalized := (p.Value - lo) / span
		total := normalized * float64(height) * subBlocksPerRow

		// Fill rows from the bottom up
		for y := 0; y < height; y++ {
			row := height - 1 - y
			rowStart := float64(y) * subBlocksPerRow
			rowEnd := float64(y+1) * subBlocksPerRow

			switch {
			case total >= rowEnd:
				rows[row][x] = blocks[len(blocks)-1]
			case total > rowStart:
				remainder := int(math.Round(total - rowStart))
				remainder = max(0, min(remainder, len(blocks)-1))
				rows[row][x] = blocks[remainder]
			}
		}
	}

	out := make([]string, height)
	for i, row := range rows {
		out[i] = string(row)
	}
	return out
}
