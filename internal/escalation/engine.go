package escalation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"jumbotron/internal/clock"
	"jumbotron/internal/media"
	"jumbotron/internal/schedule"
	logx "jumbotron/pkg/logx"
)

// Focus selects how a new arming treats escalations already in flight.
type Focus string

const (
	// FocusGlobal keeps a single escalation in flight: arming a slot cancels every
	// other slot's pending video/audio actions.
	FocusGlobal Focus = "global"
	// FocusPerSlot gives each slot its own escalation; arming only replaces the
	// same slot's pending actions.
	FocusPerSlot Focus = "per_slot"
)

// ParseFocus maps a config value to a Focus ("" means FocusGlobal).
func ParseFocus(s string) (Focus, error) {
	switch Focus(strings.ToLower(strings.TrimSpace(s))) {
	case "", FocusGlobal:
		return FocusGlobal, nil
	case FocusPerSlot, "per-slot", "perslot":
		return FocusPerSlot, nil
	default:
		return "", fmt.Errorf("invalid escalation focus %q (use global or per_slot)", s)
	}
}

// Config controls the escalation timings.
type Config struct {
	// Threshold is the remaining time under which the most urgent slot arms.
	Threshold time.Duration
	// VideoDelay and AudioDelay are measured from the arming instant.
	VideoDelay time.Duration
	AudioDelay time.Duration
	// Rotation is the number of escalation cues played in turn (cue1..cueN).
	Rotation int
	Focus    Focus
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = time.Second
	}
	if c.VideoDelay <= 0 {
		c.VideoDelay = 5 * time.Minute
	}
	if c.AudioDelay <= 0 {
		c.AudioDelay = 10 * time.Minute
	}
	if c.Rotation <= 0 {
		c.Rotation = 3
	}
	if c.Focus == "" {
		c.Focus = FocusGlobal
	}
	return c
}

type slotEscalation struct {
	slot       string
	state      State
	armID      string
	armedAt    time.Time
	occurrence time.Time
	lastKey    string
}

// Engine turns "the most urgent slot just reached zero" into a sequence of cues:
// the slot's urgent cue right away, a video after VideoDelay and one rotating
// escalation cue after AudioDelay.
//
// Engine is not safe for concurrent use. All calls, and the clock callbacks it
// schedules, must run on one goroutine (see runtime/loop).
type Engine struct {
	cfg     Config
	ctx     context.Context
	clk     clock.Clock
	sink    media.Sink
	log     logx.Logger
	sampler *logx.Sampler
	tasks   *taskSet
	newID   func(time.Time) string

	slots   map[string]*slotEscalation
	urgent  string
	lastTop schedule.RankedReset
	focus   string // most recently armed slot
	lastKey string // FocusGlobal debounce key

	previousPlayed string
	nextCue        int
	videoVisible   bool
}

type Option func(*Engine)

// WithContext sets the context handed to the media sink.
func WithContext(ctx context.Context) Option {
	return func(e *Engine) {
		if ctx != nil {
			e.ctx = ctx
		}
	}
}

func WithLogger(log logx.Logger) Option { return func(e *Engine) { e.log = log } }

// WithSampler throttles repeated playback-failure warnings.
func WithSampler(s *logx.Sampler) Option { return func(e *Engine) { e.sampler = s } }

func New(cfg Config, clk clock.Clock, sink media.Sink, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg.withDefaults(),
		ctx:     context.Background(),
		clk:     clk,
		sink:    sink,
		log:     logx.Nop(),
		tasks:   newTaskSet(clk),
		newID:   func(t time.Time) string { return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String() },
		slots:   map[string]*slotEscalation{},
		nextCue: 1,
	}
	for _, o := range opts {
		o(e)
	}
	if e.log.IsZero() {
		e.log = logx.Nop()
	}
	if e.sampler == nil {
		e.sampler = logx.NewSampler(time.Minute, 3)
	}
	return e
}

// ArmIfNeeded observes the current most urgent slot and arms its escalation when
// the slot's countdown is under the threshold. Repeated calls for the same slot
// occurrence are no-ops. A previously observed top slot whose occurrence has
// passed without arming (ticks spaced wider than the threshold) is armed late.
// It reports whether a new escalation was armed.
func (e *Engine) ArmIfNeeded(top schedule.RankedReset) bool {
	if top.SlotID == "" {
		return false
	}
	armed := e.armMissed(top.Next.Add(-top.Remaining))

	e.urgent = top.SlotID
	e.lastTop = top
	if top.Remaining < 0 || top.Remaining >= e.cfg.Threshold {
		return armed
	}

	key := armKey(top)
	se := e.slot(top.SlotID)
	if e.cfg.Focus == FocusPerSlot {
		if se.lastKey == key {
			return armed
		}
	} else if e.lastKey == key {
		return armed
	}

	e.arm(se, top, key)
	return true
}

// armMissed arms the last observed top slot when its occurrence is at or before
// now and it never armed for that occurrence.
func (e *Engine) armMissed(now time.Time) bool {
	prev := e.lastTop
	if prev.SlotID == "" || prev.Next.After(now) {
		return false
	}
	key := armKey(prev)
	se := e.slot(prev.SlotID)
	if se.lastKey == key {
		return false
	}
	e.log.Warn("arming window missed; arming late",
		logx.String("slot", prev.SlotID),
		logx.Time("occurrence", prev.Next),
		logx.Duration("late_by", now.Sub(prev.Next)),
	)
	prev.Remaining = 0
	e.lastTop = schedule.RankedReset{}
	e.arm(se, prev, key)
	return true
}

func armKey(r schedule.RankedReset) string {
	return r.SlotID + "@" + r.Next.UTC().Format(time.RFC3339)
}

func (e *Engine) slot(id string) *slotEscalation {
	se := e.slots[id]
	if se == nil {
		se = &slotEscalation{slot: id}
		e.slots[id] = se
	}
	return se
}

func (e *Engine) arm(se *slotEscalation, top schedule.RankedReset, key string) {
	now := e.clk.Now()

	// Cancel before scheduling so a stale action can never run next to the new one.
	var cancelled []string
	if e.cfg.Focus == FocusPerSlot {
		cancelled = e.tasks.cancelPrefix(se.slot + "/")
	} else {
		cancelled = e.tasks.cancelPrefix("")
		for _, other := range e.slots {
			if other != se {
				other.state = StateIdle
			}
		}
		e.lastKey = key
	}

	se.lastKey = key
	se.state = StateArmed
	se.armID = e.newID(now)
	se.armedAt = now
	se.occurrence = top.Next
	e.focus = se.slot

	log := e.log.With(logx.String("slot", se.slot), logx.String("arm_id", se.armID))
	if len(cancelled) > 0 {
		log.Debug("cancelled pending escalation", logx.String("tasks", strings.Join(cancelled, ",")))
	}

	armID := se.armID
	e.tasks.schedule(se.slot+"/video", e.cfg.VideoDelay, func() { e.fireVideo(se, armID) })
	e.tasks.schedule(se.slot+"/audio", e.cfg.AudioDelay, func() { e.fireAudio(se, armID) })

	log.Info("escalation armed",
		logx.Time("occurrence", top.Next),
		logx.Duration("video_in", e.cfg.VideoDelay),
		logx.Duration("audio_in", e.cfg.AudioDelay),
	)

	e.playUrgent(se.slot)
}

// PlayUrgent plays the current urgent slot's cue unless that color was the last
// one played. It reports whether playback started.
func (e *Engine) PlayUrgent() bool {
	if e.urgent == "" {
		return false
	}
	return e.playUrgent(e.urgent)
}

func (e *Engine) playUrgent(color string) bool {
	if color == e.previousPlayed {
		return false
	}
	cue := media.UrgentCue(color)
	if err := e.sink.Play(e.ctx, cue); err != nil {
		e.playFailed(cue, err)
		return false
	}
	e.sink.OnEnded(cue, e.playEnding)
	e.previousPlayed = color
	e.log.Debug("urgent cue started", logx.String("slot", color))
	return true
}

func (e *Engine) playEnding() {
	if err := e.sink.Play(e.ctx, media.CueEnding); err != nil {
		e.playFailed(media.CueEnding, err)
	}
}

func (e *Engine) fireVideo(se *slotEscalation, armID string) {
	if se.armID != armID {
		return
	}
	se.state = StateVideoPending
	e.log.Info("video cue due", logx.String("slot", se.slot), logx.String("arm_id", armID))

	if err := e.sink.Play(e.ctx, media.CueVideo); err != nil {
		e.playFailed(media.CueVideo, err)
		return
	}
	e.videoVisible = true
	e.sink.OnEnded(media.CueVideo, func() {
		e.videoVisible = false
		e.log.Debug("video ended", logx.String("slot", se.slot))
	})
}

func (e *Engine) fireAudio(se *slotEscalation, armID string) {
	if se.armID != armID {
		return
	}
	se.state = StateAudioEscalating

	n := e.nextCue
	// The rotation advances once per fire, whether or not playback starts.
	e.nextCue = n%e.cfg.Rotation + 1

	cue := media.RotationCue(n)
	e.log.Info("escalation cue due", logx.String("slot", se.slot), logx.String("arm_id", armID), logx.String("cue", cue))
	if err := e.sink.Play(e.ctx, cue); err != nil {
		e.playFailed(cue, err)
	}
}

func (e *Engine) playFailed(cue string, err error) {
	var pe *media.PlaybackError
	if !errors.As(err, &pe) {
		err = &media.PlaybackError{Cue: cue, Err: err}
	}
	e.sampler.Warn(e.log, "play:"+cue, "cue playback failed", logx.String("cue", cue), logx.Err(err))
}

// Stop cancels every pending delayed action.
func (e *Engine) Stop() {
	e.tasks.cancelPrefix("")
	for _, se := range e.slots {
		se.state = StateIdle
	}
}
