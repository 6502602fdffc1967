package nightscout

import (
	"bytes"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	go_json "github.com/goccy/go-json"

	"github.com/mrcode/nightscout-widget/internal/models"
)

// rawEntry mirrors the fields of an /api/v1/entries record we read.
// Each field stays raw so one bad field cannot fail the record.
type rawEntry struct {
	DateString go_json.RawMessage `json:"dateString"`
	Date       go_json.RawMessage `json:"date"` // Unix timestamp in milliseconds
	SGV        go_json.RawMessage `json:"sgv"`  // Sensor glucose value in mg/dL, number or string
	Direction  go_json.RawMessage `json:"direction"`
}

// Decoder turns raw entry records into samples. Now is used when no timestamp can be read.
type Decoder struct {
	Now func() time.Time
}

// DecodeEntry decodes one record with the wall clock as fallback time
func DecodeEntry(raw []byte) models.GlucoseSample {
	return Decoder{}.Entry(raw)
}

// DecodeEntries decodes an entries array with the wall clock as fallback time
func DecodeEntries(data []byte) ([]models.GlucoseSample, error) {
	return Decoder{}.Entries(data)
}

func (d Decoder) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Entry decodes one record. It never fails: unreadable parts fall back to defaults and
// are flagged in the sample's Defaulted field.
func (d Decoder) Entry(raw []byte) models.GlucoseSample {
	var entry rawEntry
	// A record that is not an object decodes as all-defaults
	_ = go_json.Unmarshal(raw, &entry)

	var flags models.DecodeFlags

	ts, ok := parseEntryTime(entry)
	if !ok {
		ts = d.now()
		flags |= models.DefaultedTime
	}

	mgdl, ok := parseSGV(entry.SGV)
	if !ok {
		flags |= models.DefaultedValue
	}

	var direction string
	_ = go_json.Unmarshal(entry.Direction, &direction)

	sample := models.NewGlucoseSample(ts, mgdl, models.ParseDirection(direction))
	sample.Defaulted = flags
	return sample
}

// Entries decodes a JSON array of records, newest first. Only a body that is not an
// array is an error; individual records always decode.
func (d Decoder) Entries(data []byte) ([]models.GlucoseSample, error) {
	var records []go_json.RawMessage
	if err := go_json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	samples := make([]models.GlucoseSample, 0, len(records))
	for _, raw := range records {
		samples = append(samples, d.Entry(raw))
	}
	SortNewestFirst(samples)
	return samples, nil
}

// SortNewestFirst orders samples by timestamp descending, keeping the order of equal times
func SortNewestFirst(samples []models.GlucoseSample) {
	slices.SortStableFunc(samples, func(a, b models.GlucoseSample) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}

func parseEntryTime(entry rawEntry) (time.Time, bool) {
	var dateString string
	if err := go_json.Unmarshal(entry.DateString, &dateString); err == nil {
		if ts, ok := parseDateString(dateString); ok {
			return ts, true
		}
	}
	// Every Nightscout entry also carries the epoch-ms "date" field
	if ms, ok := parseEpochMillis(unquote(entry.Date)); ok {
		return ms, true
	}
	return time.Time{}, false
}

// parseDateString tries, in order: ISO-8601 with fractional seconds, ISO-8601 without,
// and a bare epoch-milliseconds number.
func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if strings.Contains(s, ".") {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts, true
		}
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, true
	}
	return parseEpochMillis(s)
}

func parseEpochMillis(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(math.Round(ms))).UTC(), true
}

// parseSGV accepts an integral JSON number or a numeric string
func parseSGV(raw go_json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	var n float64
	if err := go_json.Unmarshal(raw, &n); err == nil {
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	}

	var s string
	if err := go_json.Unmarshal(raw, &s); err == nil {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func unquote(raw go_json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	var s string
	if err := go_json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}
	return string(raw)
}
