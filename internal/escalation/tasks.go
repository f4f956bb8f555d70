package escalation

import (
	"sort"
	"strings"
	"time"

	"jumbotron/internal/clock"
)

// taskSet owns named one-shot delayed actions.
//
// Scheduling a name that is already pending replaces it. Every schedule bumps the
// name's version; a timer callback whose version is no longer current is ignored, so
// a timer that fires after it was cancelled (or replaced) never runs its action.
type taskSet struct {
	clk    clock.Clock
	timers map[string]clock.Timer
	ver    map[string]uint64
}

func newTaskSet(clk clock.Clock) *taskSet {
	return &taskSet{clk: clk, timers: map[string]clock.Timer{}, ver: map[string]uint64{}}
}

func (t *taskSet) schedule(name string, d time.Duration, fn func()) {
	t.cancel(name)
	v := t.ver[name] + 1
	t.ver[name] = v
	t.timers[name] = t.clk.AfterFunc(d, func() {
		if t.ver[name] != v {
			return
		}
		if _, ok := t.timers[name]; !ok {
			return
		}
		delete(t.timers, name)
		fn()
	})
}

// cancel stops name and invalidates its callback. It reports whether a task was pending.
func (t *taskSet) cancel(name string) bool {
	tm, ok := t.timers[name]
	if !ok {
		return false
	}
	_ = tm.Stop()
	delete(t.timers, name)
	t.ver[name]++
	return true
}

// cancelPrefix cancels every pending task whose name starts with prefix ("" = all).
func (t *taskSet) cancelPrefix(prefix string) []string {
	var out []string
	for name := range t.timers {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	for _, name := range out {
		t.cancel(name)
	}
	return out
}

func (t *taskSet) pending() []string {
	out := make([]string, 0, len(t.timers))
	for name := range t.timers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (t *taskSet) has(name string) bool {
	_, ok := t.timers[name]
	return ok
}
