package media

import "sync"

// hookSet tracks end-of-playback hooks per cue. Each started playback gets a
// generation; a hook belongs to the playback running when it was registered, or
// to the next one when the cue is idle.
type hookSet struct {
	mu      sync.Mutex
	gen     map[string]uint64
	playing map[string]int
	hooks   map[string][]hook
}

type hook struct {
	gen uint64
	fn  func()
}

func newHookSet() *hookSet {
	return &hookSet{gen: map[string]uint64{}, playing: map[string]int{}, hooks: map[string][]hook{}}
}

func (h *hookSet) add(cue string, fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g := h.gen[cue]
	if h.playing[cue] == 0 {
		g++
	}
	h.hooks[cue] = append(h.hooks[cue], hook{gen: g, fn: fn})
}

// start records a new playback of cue. With exclusive set it refuses while an
// earlier playback of the same cue is running.
func (h *hookSet) start(cue string, exclusive bool) (uint64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if exclusive && h.playing[cue] > 0 {
		return 0, false
	}
	h.gen[cue]++
	h.playing[cue]++
	return h.gen[cue], true
}

// abort undoes start after the playback failed to begin. Hooks waiting for
// that playback are dropped.
func (h *hookSet) abort(cue string, g uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playing[cue]--
	h.dropLocked(cue, g)
}

// failed drops hooks waiting for a playback that never started.
func (h *hookSet) failed(cue string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(cue, h.gen[cue]+1)
}

func (h *hookSet) dropLocked(cue string, g uint64) {
	kept := h.hooks[cue][:0]
	for _, k := range h.hooks[cue] {
		if k.gen != g {
			kept = append(kept, k)
		}
	}
	h.setLocked(cue, kept)
}

// finish ends playback g and removes the hooks it owns. They are returned only
// when the playback completed naturally.
func (h *hookSet) finish(cue string, g uint64, natural bool) []func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.playing[cue] > 0 {
		h.playing[cue]--
	}
	var fns []func()
	kept := h.hooks[cue][:0]
	for _, k := range h.hooks[cue] {
		if k.gen <= g {
			fns = append(fns, k.fn)
			continue
		}
		kept = append(kept, k)
	}
	h.setLocked(cue, kept)
	if !natural {
		return nil
	}
	return fns
}

func (h *hookSet) busy(cue string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing[cue] > 0
}

func (h *hookSet) pending(cue string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hooks[cue])
}

func (h *hookSet) setLocked(cue string, hs []hook) {
	if len(hs) == 0 {
		delete(h.hooks, cue)
		return
	}
	h.hooks[cue] = hs
}
