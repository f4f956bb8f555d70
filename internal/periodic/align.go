package periodic

import (
	"time"

	"github.com/robfig/cron/v3"
)

// UntilNextQuarterHour returns the time until the next wall-clock multiple of 15
// minutes. Exactly on a boundary it returns 0.
func UntilNextQuarterHour(now time.Time) time.Duration {
	into := time.Duration(now.Minute()%15)*time.Minute +
		time.Duration(now.Second())*time.Second +
		time.Duration(now.Nanosecond())
	if into == 0 {
		return 0
	}
	return 15*time.Minute - into
}

// UntilNextMinuteMark returns the time until the next hh:mm:00 with mm == minute.
// At or past the mark within the current hour, it returns the mark of the next hour.
func UntilNextMinuteMark(now time.Time, minute int) time.Duration {
	minute = ((minute % 60) + 60) % 60
	mins := minute - now.Minute()
	if mins <= 0 {
		mins += 60
	}
	return time.Duration(mins)*time.Minute -
		time.Duration(now.Second())*time.Second -
		time.Duration(now.Nanosecond())
}

// alignedSchedule runs first at an aligned instant and then every period after the
// previous activation. It wraps cron.Every the way the startup-spread schedule does.
type alignedSchedule struct {
	base  cron.Schedule
	first time.Time
}

func newAlignedSchedule(first time.Time, period time.Duration) *alignedSchedule {
	return &alignedSchedule{base: cron.Every(period), first: first}
}

func (s *alignedSchedule) Next(t time.Time) time.Time {
	if !s.first.IsZero() && t.Before(s.first) {
		return s.first
	}
	return s.base.Next(t)
}
