package media

import (
	"context"
	"time"

	"jumbotron/internal/clock"
	logx "jumbotron/pkg/logx"
)

// LogSink only logs play intents. Each playback "ends" after length on clk (at
// once when length <= 0) so end-of-playback hooks still run.
type LogSink struct {
	log    logx.Logger
	clk    clock.Clock
	length time.Duration
	hooks  *hookSet
}

func NewLogSink(log logx.Logger, clk clock.Clock, length time.Duration) *LogSink {
	if log.IsZero() {
		log = logx.Nop()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if length < 0 {
		length = 0
	}
	return &LogSink{log: log, clk: clk, length: length, hooks: newHookSet()}
}

func (s *LogSink) Play(ctx context.Context, cue string) error {
	if err := ctx.Err(); err != nil {
		s.hooks.failed(cue)
		return &PlaybackError{Cue: cue, Err: err}
	}
	g, _ := s.hooks.start(cue, false)
	s.log.Info("cue", logx.String("cue", cue))
	s.clk.AfterFunc(s.length, func() {
		for _, fn := range s.hooks.finish(cue, g, true) {
			fn()
		}
	})
	return nil
}

func (s *LogSink) OnEnded(cue string, fn func()) {
	if fn == nil {
		return
	}
	s.hooks.add(cue, fn)
}
