package schedule

import (
	"strings"
	"time"
)

// Slot is one recurring color slot and its daily occurrences in the reference zone.
type Slot struct {
	ID    string
	Times []TimeOfDay
}

// Timetable is the validated, immutable set of slots.
type Timetable struct {
	zone  *time.Location
	slots []Slot
	index map[string]int
}

// NewTimetable validates slots and returns the timetable. Slot IDs are matched
// case-insensitively and stored lower-case.
func NewTimetable(zone *time.Location, slots []Slot) (*Timetable, error) {
	if zone == nil {
		return nil, &ConfigurationError{Reason: "reference zone required"}
	}
	if len(slots) == 0 {
		return nil, &ConfigurationError{Reason: "no slots"}
	}
	tt := &Timetable{
		zone:  zone,
		slots: make([]Slot, 0, len(slots)),
		index: make(map[string]int, len(slots)),
	}
	for _, s := range slots {
		id := strings.ToLower(strings.TrimSpace(s.ID))
		if id == "" {
			return nil, &ConfigurationError{Reason: "slot id required"}
		}
		if _, dup := tt.index[id]; dup {
			return nil, &ConfigurationError{Slot: id, Reason: "duplicate slot id"}
		}
		if len(s.Times) == 0 {
			return nil, &ConfigurationError{Slot: id, Reason: "no occurrences"}
		}
		tt.index[id] = len(tt.slots)
		tt.slots = append(tt.slots, Slot{ID: id, Times: append([]TimeOfDay(nil), s.Times...)})
	}
	return tt, nil
}

// ParseSlot builds a Slot from "HH:mm" strings.
func ParseSlot(id string, times ...string) (Slot, error) {
	s := Slot{ID: id, Times: make([]TimeOfDay, 0, len(times))}
	for _, raw := range times {
		t, err := ParseTimeOfDay(raw)
		if err != nil {
			return Slot{}, &ConfigurationError{Slot: id, Reason: err.Error()}
		}
		s.Times = append(s.Times, t)
	}
	return s, nil
}

func (t *Timetable) Zone() *time.Location { return t.zone }

func (t *Timetable) Len() int { return len(t.slots) }

// Slots returns a copy of the slots in declaration order.
func (t *Timetable) Slots() []Slot {
	out := make([]Slot, len(t.slots))
	for i, s := range t.slots {
		out[i] = Slot{ID: s.ID, Times: append([]TimeOfDay(nil), s.Times...)}
	}
	return out
}

// Index returns the declaration position of id, or -1.
func (t *Timetable) Index(id string) int {
	i, ok := t.index[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return -1
	}
	return i
}

// Previous returns the slot declared before id, wrapping around.
// It returns "" for an unknown id.
func (t *Timetable) Previous(id string) string {
	i := t.Index(id)
	if i < 0 {
		return ""
	}
	return t.slots[(i-1+len(t.slots))%len(t.slots)].ID
}
