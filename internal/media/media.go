// Package media is the playback boundary: the engine only issues play intents and
// registers end-of-playback hooks; a Sink decides what playing a cue means.
package media

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Well-known cue IDs.
const (
	CueEnding = "ending"
	CueVideo  = "video"
	CueChime  = "chime"
	CuePromo  = "promo"

	urgentPrefix = "urgent:"
)

// UrgentCue is the dedicated cue of a slot color.
func UrgentCue(color string) string { return urgentPrefix + strings.ToLower(color) }

// RotationCue is the n-th cue (1-based) of the escalation rotation.
func RotationCue(n int) string { return "cue" + strconv.Itoa(n) }

// Sink plays cues.
type Sink interface {
	// Play starts cue playback. A nil error means playback started.
	Play(ctx context.Context, cue string) error
	// OnEnded registers fn to run once when the current (or next) playback of cue
	// completes naturally. Hooks are dropped when playback fails.
	OnEnded(cue string, fn func())
}

var (
	// ErrUnknownCue means the sink has nothing configured for the cue.
	ErrUnknownCue = errors.New("unknown cue")
	// ErrBusy means the cue is still playing from an earlier request.
	ErrBusy = errors.New("cue already playing")
)

// PlaybackError reports a failed play attempt. It never stops the caller's state machine.
type PlaybackError struct {
	Cue string
	Err error
}

func (e *PlaybackError) Error() string { return fmt.Sprintf("play %s: %v", e.Cue, e.Err) }

func (e *PlaybackError) Unwrap() error { return e.Err }
