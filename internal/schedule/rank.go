package schedule

import (
	"errors"
	"sort"
	"time"
)

// RankedReset is one slot's next occurrence relative to a ranking instant.
type RankedReset struct {
	SlotID    string
	Next      time.Time
	Remaining time.Duration
}

// Calculator ranks a timetable's slots by time remaining until their next occurrence.
type Calculator struct {
	tt      *Timetable
	convert Converter
}

type CalculatorOption func(*Calculator)

// WithConverter replaces the time-of-day conversion primitive.
func WithConverter(fn Converter) CalculatorOption {
	return func(c *Calculator) {
		if fn != nil {
			c.convert = fn
		}
	}
}

func NewCalculator(tt *Timetable, opts ...CalculatorOption) *Calculator {
	c := &Calculator{tt: tt, convert: ZonedTime}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Calculator) Timetable() *Timetable { return c.tt }

// Rank returns every slot's next occurrence after now, soonest first. Ties keep
// declaration order.
//
// A slot whose occurrences cannot be converted is left out of this ranking only;
// its *TimeConversionError is returned (joined with others) next to the partial result.
func (c *Calculator) Rank(now time.Time) ([]RankedReset, error) {
	out := make([]RankedReset, 0, len(c.tt.slots))
	var errs []error
	for _, s := range c.tt.slots {
		next, err := c.next(s, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, RankedReset{SlotID: s.ID, Next: next, Remaining: next.Sub(now)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Remaining < out[j].Remaining })
	return out, errors.Join(errs...)
}

// next finds the earliest of today's occurrences strictly after now. When all of
// today's occurrences have passed, the earliest one moves to the next calendar day.
func (c *Calculator) next(s Slot, now time.Time) (time.Time, error) {
	var (
		earliest time.Time
		best     time.Time
	)
	for _, tod := range s.Times {
		at, err := c.convert(tod, c.tt.zone, now)
		if err != nil {
			return time.Time{}, &TimeConversionError{Slot: s.ID, Time: tod, Err: err}
		}
		if earliest.IsZero() || at.Before(earliest) {
			earliest = at
		}
		if at.After(now) && (best.IsZero() || at.Before(best)) {
			best = at
		}
	}
	if !best.IsZero() {
		return best, nil
	}
	e := earliest.In(c.tt.zone)
	return time.Date(e.Year(), e.Month(), e.Day()+1, e.Hour(), e.Minute(), e.Second(), e.Nanosecond(), c.tt.zone), nil
}

// Top returns at most n leading entries of ranked.
func Top(ranked []RankedReset, n int) []RankedReset {
	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}
