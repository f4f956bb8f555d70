package media

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/sony/gobreaker"

	logx "jumbotron/pkg/logx"
)

// ExecConfig configures ExecSink.
type ExecConfig struct {
	// Player is the executable, e.g. "mpv" or "ffplay".
	Player string
	// Args are passed before the cue file.
	Args []string
	// Cues maps a cue ID to the file handed to the player.
	Cues map[string]string

	// Breaker: after FailureThreshold consecutive start failures the sink fails fast
	// for BreakerTimeout before trying the player again.
	FailureThreshold uint32
	BreakerTimeout   time.Duration
}

// ExecSink plays each cue by running an external player process.
//
// End-of-playback hooks run through post so they land on the caller's event loop;
// a nil post runs them on the goroutine that waited for the process.
type ExecSink struct {
	cfg  ExecConfig
	log  logx.Logger
	post func(func())
	cb   *gobreaker.CircuitBreaker

	// start is exec.Cmd.Start; tests replace it.
	start func(cmd *exec.Cmd) error
	wait  func(cmd *exec.Cmd) error

	hooks *hookSet
}

func NewExecSink(cfg ExecConfig, log logx.Logger, post func(func())) *ExecSink {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = time.Minute
	}
	threshold := cfg.FailureThreshold
	s := &ExecSink{
		cfg:     cfg,
		log:     log,
		post:    post,
		start:   func(cmd *exec.Cmd) error { return cmd.Start() },
		wait:    func(cmd *exec.Cmd) error { return cmd.Wait() },
		hooks:   newHookSet(),
	}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "media.exec",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("player breaker state changed", logx.String("from", from.String()), logx.String("to", to.String()))
		},
	})
	return s
}

func (s *ExecSink) Play(ctx context.Context, cue string) error {
	file, ok := s.cfg.Cues[cue]
	if !ok || file == "" {
		s.hooks.failed(cue)
		return &PlaybackError{Cue: cue, Err: ErrUnknownCue}
	}

	// A busy cue keeps the hooks of the playback already running.
	g, ok := s.hooks.start(cue, true)
	if !ok {
		return &PlaybackError{Cue: cue, Err: ErrBusy}
	}

	args := append(append([]string(nil), s.cfg.Args...), file)
	// Playback outlives the caller's tick, so the process is not bound to ctx.
	cmd := exec.Command(s.cfg.Player, args...)
	_, err := s.cb.Execute(func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, s.start(cmd)
	})
	if err != nil {
		s.hooks.abort(cue, g)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.log.Debug("player breaker open; skipping cue", logx.String("cue", cue))
		}
		return &PlaybackError{Cue: cue, Err: err}
	}

	go s.await(cue, g, cmd)
	return nil
}

func (s *ExecSink) await(cue string, g uint64, cmd *exec.Cmd) {
	err := s.wait(cmd)
	if err != nil {
		s.log.Warn("player exited with error", logx.String("cue", cue), logx.Err(err))
	}
	// Hooks are collected on the caller's loop so ones registered right after
	// Play returned are not missed.
	finish := func() {
		for _, fn := range s.hooks.finish(cue, g, err == nil) {
			fn()
		}
	}
	if s.post != nil {
		s.post(finish)
	} else {
		finish()
	}
}

func (s *ExecSink) OnEnded(cue string, fn func()) {
	if fn == nil {
		return
	}
	s.hooks.add(cue, fn)
}
