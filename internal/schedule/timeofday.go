package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var reTimeOfDay = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// TimeOfDay is a wall-clock time (24-hour) without a date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:mm" (24-hour, leading zero optional).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := reTimeOfDay.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	if mm > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: mm}, nil
}

// MustTimeOfDay is ParseTimeOfDay for literals; it panics on bad input.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Converter places a time-of-day on the calendar day of ref, as seen in loc.
type Converter func(tod TimeOfDay, loc *time.Location, ref time.Time) (time.Time, error)

var errNilLocation = errors.New("nil location")

// ZonedTime is the default Converter. Times that fall into a DST gap are
// normalized forward by the time package.
func ZonedTime(tod TimeOfDay, loc *time.Location, ref time.Time) (time.Time, error) {
	if loc == nil {
		return time.Time{}, errNilLocation
	}
	r := ref.In(loc)
	return time.Date(r.Year(), r.Month(), r.Day(), tod.Hour, tod.Minute, 0, 0, loc), nil
}
