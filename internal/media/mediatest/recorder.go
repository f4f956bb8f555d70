// Package mediatest provides a recording media.Sink for tests.
package mediatest

import (
	"context"
	"errors"
	"sync"

	"jumbotron/internal/media"
)

// Recorder records every Play call. Cues listed in Fail return a *media.PlaybackError.
// End simulates a natural end of playback and runs the registered hooks.
type Recorder struct {
	mu    sync.Mutex
	plays []string
	fail  map[string]error
	hooks map[string][]func()
}

func New() *Recorder {
	return &Recorder{fail: map[string]error{}, hooks: map[string][]func(){}}
}

// Fail makes future Play calls for cue fail with err (nil clears it).
func (r *Recorder) Fail(cue string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, cue)
		return
	}
	r.fail[cue] = err
}

func (r *Recorder) Play(_ context.Context, cue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plays = append(r.plays, cue)
	if err, ok := r.fail[cue]; ok {
		// Like the exec sink, a busy cue keeps the running playback's hooks.
		if !errors.Is(err, media.ErrBusy) {
			delete(r.hooks, cue)
		}
		return &media.PlaybackError{Cue: cue, Err: err}
	}
	return nil
}

func (r *Recorder) OnEnded(cue string, fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.hooks[cue] = append(r.hooks[cue], fn)
	r.mu.Unlock()
}

// End runs and clears the hooks registered for cue.
func (r *Recorder) End(cue string) {
	r.mu.Lock()
	fns := r.hooks[cue]
	delete(r.hooks, cue)
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Hooks returns how many end hooks are waiting on cue.
func (r *Recorder) Hooks(cue string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hooks[cue])
}

// Plays returns a copy of every cue passed to Play, in order (failed ones included).
func (r *Recorder) Plays() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.plays...)
}

// Count returns how often cue was played.
func (r *Recorder) Count(cue string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.plays {
		if p == cue {
			n++
		}
	}
	return n
}

// Reset forgets recorded plays.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.plays = nil
	r.mu.Unlock()
}
