package config

import (
	"fmt"
	"strings"
	"time"

	"jumbotron/internal/schedule"
)

// BuildTimetable validates the timetable section and builds the schedule model.
func (c *Config) BuildTimetable() (*schedule.Timetable, error) {
	zone := strings.TrimSpace(c.Timetable.Zone)
	if zone == "" {
		zone = schedule.DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, &schedule.ConfigurationError{Reason: fmt.Sprintf("timetable.zone: invalid %q: %v", zone, err)}
	}
	if len(c.Timetable.Slots) == 0 {
		return schedule.NewTimetable(loc, schedule.DefaultSlots())
	}

	slots := make([]schedule.Slot, 0, len(c.Timetable.Slots))
	for i, sc := range c.Timetable.Slots {
		s, err := schedule.ParseSlot(sc.Color, sc.Times...)
		if err != nil {
			return nil, fmt.Errorf("timetable.slots[%d]: %w", i, err)
		}
		slots = append(slots, s)
	}
	return schedule.NewTimetable(loc, slots)
}

// LoadLocation resolves an optional zone name; empty means time.Local.
func LoadLocation(field, name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid %q: %w", field, name, err)
	}
	return loc, nil
}
