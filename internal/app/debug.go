package app

import (
	"context"
	"errors"
	"time"

	"jumbotron/internal/config"
	"jumbotron/internal/debugserver"
	"jumbotron/internal/escalation"
	"jumbotron/internal/periodic"
	logx "jumbotron/pkg/logx"
)

var errLoopStopped = errors.New("event loop stopped")

// statusView is served as JSON on /status.
type statusView struct {
	Now        time.Time           `json:"now"`
	LastTick   time.Time           `json:"last_tick"`
	Ticks      uint64              `json:"ticks"`
	Panics     uint64              `json:"panics"`
	Tasks      []string            `json:"tasks"`
	Escalation escalation.Snapshot `json:"escalation"`
	Periodic   []periodic.Trigger  `json:"periodic"`
}

func (a *App) newDebugServer(cfg config.DebugConfig) *debugserver.Server {
	if !cfg.Enabled {
		return nil
	}
	return debugserver.New(debugserver.Config{
		Addr:          cfg.Addr,
		Token:         cfg.Token,
		AllowInsecure: cfg.AllowInsecure,
	}, a.log.With(logx.String("comp", "debug")), a.statusView, a.alive)
}

// statusView reads engine state on the loop goroutine.
func (a *App) statusView(ctx context.Context) (any, error) {
	ch := make(chan escalation.Snapshot, 1)
	if !a.loop.Post(func() { ch <- a.engine.Snapshot() }) {
		return nil, errLoopStopped
	}
	var snap escalation.Snapshot
	select {
	case snap = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.loop.Done():
		return nil, errLoopStopped
	}

	a.tickMu.Lock()
	last := a.lastTick
	a.tickMu.Unlock()
	a.pmu.Lock()
	p := a.periodic
	a.pmu.Unlock()

	v := statusView{
		Now:        a.clk.Now(),
		LastTick:   last,
		Ticks:      a.loop.Ticks(),
		Panics:     a.loop.Panics(),
		Escalation: snap,
		Periodic:   p.Triggers(),
	}
	if a.sup != nil {
		v.Tasks = a.sup.Active()
	}
	return v, nil
}
