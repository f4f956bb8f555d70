package schedule

import (
	"fmt"
	"time"

	// The reference zone must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"
)

// DefaultZone is the reference zone of the published timetable.
const DefaultZone = "America/Los_Angeles"

// defaultSlots is the published timetable. Late entries wrap past midnight.
var defaultSlots = []struct {
	color string
	times []string
}{
	{"black", []string{"10:30", "13:00", "15:30", "18:00", "20:30", "23:00"}},
	{"orange", []string{"10:45", "13:15", "15:45", "18:15", "20:45", "23:15"}},
	{"silver", []string{"11:00", "13:30", "16:00", "18:30", "21:00", "23:30"}},
	{"pink", []string{"11:15", "13:45", "16:15", "18:45", "21:15", "23:45"}},
	{"blue", []string{"11:30", "14:00", "16:30", "19:00", "21:30", "00:00"}},
	{"gold", []string{"11:45", "14:15", "16:45", "19:15", "21:45", "00:15"}},
	{"purple", []string{"12:00", "14:30", "17:00", "19:30", "22:00", "00:30"}},
	{"yellow", []string{"12:15", "14:45", "17:15", "19:45", "22:15", "00:45"}},
	{"red", []string{"12:30", "15:00", "17:30", "20:00", "22:30", "01:00"}},
	{"green", []string{"12:45", "15:15", "17:45", "20:15", "22:45", "01:15"}},
}

// DefaultSlots returns the published slots.
func DefaultSlots() []Slot {
	out := make([]Slot, 0, len(defaultSlots))
	for _, d := range defaultSlots {
		s := Slot{ID: d.color}
		for _, raw := range d.times {
			s.Times = append(s.Times, MustTimeOfDay(raw))
		}
		out = append(out, s)
	}
	return out
}

// DefaultTimetable returns the published timetable in DefaultZone.
func DefaultTimetable() (*Timetable, error) {
	loc, err := time.LoadLocation(DefaultZone)
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("load zone %s: %v", DefaultZone, err)}
	}
	return NewTimetable(loc, DefaultSlots())
}
