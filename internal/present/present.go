// Package present turns a ranking into rows for display and renders them.
package present

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"jumbotron/internal/schedule"
)

// DefaultCycle is the spacing between a slot's occurrences and the full length of a bar.
const DefaultCycle = 45 * time.Minute

// ErrTargetMissing is returned when a renderer has nowhere to draw.
var ErrTargetMissing = errors.New("present: render target missing")

// Renderer draws one frame. previousColor is the declaration-order predecessor of
// the most urgent slot ("" when unknown).
type Renderer interface {
	Render(rows []Row, previousColor string) error
}

// Row is the view model of one ranked slot.
type Row struct {
	Rank      int
	Color     string
	Next      time.Time
	Remaining time.Duration
	// Percent of the cycle still remaining, never below 0.
	Percent float64
	Timer   string
}

// BuildRows converts a ranking prefix into rows. cycle <= 0 means DefaultCycle.
func BuildRows(ranked []schedule.RankedReset, cycle time.Duration) []Row {
	if cycle <= 0 {
		cycle = DefaultCycle
	}
	rows := make([]Row, 0, len(ranked))
	for i, r := range ranked {
		rows = append(rows, Row{
			Rank:      i + 1,
			Color:     r.SlotID,
			Next:      r.Next,
			Remaining: r.Remaining,
			Percent:   Percent(r.Remaining, cycle),
			Timer:     FormatTimer(r.Remaining),
		})
	}
	return rows
}

// Percent returns remaining as a percentage of cycle, clamped at 0.
func Percent(remaining, cycle time.Duration) float64 {
	if cycle <= 0 {
		return 0
	}
	return math.Max(0, 100*float64(remaining)/float64(cycle))
}

// FormatTimer renders a duration as m:ss with truncated seconds (75m5s -> "75:05").
func FormatTimer(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%d:%02d", ms/60000, (ms%60000)/1000)
}

// Bar draws a progress bar of width cells for pct (0..100, overflow clamps full).
func Bar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(pct / 100 * float64(width)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
