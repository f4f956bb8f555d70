package escalation

import (
	"sort"
	"time"
)

// State is the escalation stage of one slot.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateVideoPending
	StateAudioEscalating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateVideoPending:
		return "video_pending"
	case StateAudioEscalating:
		return "audio_escalating"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// SlotEscalation is the escalation view of one slot that has armed at least once.
type SlotEscalation struct {
	Slot       string
	State      State
	ArmID      string
	ArmedAt    time.Time
	Occurrence time.Time
}

// Snapshot is a point-in-time view of the engine for presentation and diagnostics.
type Snapshot struct {
	Urgent         string
	Focus          string
	State          State // state of Focus
	PreviousPlayed string
	NextCue        int
	VideoVisible   bool
	Pending        []string
	Slots          []SlotEscalation
}

func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Urgent:         e.urgent,
		Focus:          e.focus,
		PreviousPlayed: e.previousPlayed,
		NextCue:        e.nextCue,
		VideoVisible:   e.videoVisible,
		Pending:        e.tasks.pending(),
	}
	if se := e.slots[e.focus]; se != nil {
		snap.State = se.state
	}
	for _, se := range e.slots {
		snap.Slots = append(snap.Slots, SlotEscalation{
			Slot:       se.slot,
			State:      se.state,
			ArmID:      se.armID,
			ArmedAt:    se.armedAt,
			Occurrence: se.occurrence,
		})
	}
	sort.Slice(snap.Slots, func(i, j int) bool { return snap.Slots[i].ArmedAt.Before(snap.Slots[j].ArmedAt) })
	return snap
}

// Pending reports whether slot has a delayed action of the given kind ("video" or "audio").
func (e *Engine) Pending(slot, kind string) bool {
	return e.tasks.has(slot + "/" + kind)
}
