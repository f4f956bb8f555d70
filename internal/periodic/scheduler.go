package periodic

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"jumbotron/internal/clock"
	logx "jumbotron/pkg/logx"
)

const (
	QuarterHour  = 15 * time.Minute
	Hourly       = time.Hour
	DefaultMark  = 35
	triggerQuart = "quarter_hour"
	triggerMark  = "minute_mark"
)

// Config controls the periodic triggers. An empty cue disables that trigger.
type Config struct {
	Enabled        bool
	QuarterHourCue string
	MarkCue        string
	MarkMinute     int
	// Location is the wall clock the triggers align to (default time.Local).
	Location *time.Location
}

// Dispatch plays a cue. It is called from cron's goroutine; callers that need
// serialization post the work onto their own loop.
type Dispatch func(trigger, cue string)

// Trigger describes one registered periodic cue.
type Trigger struct {
	Name   string        `json:"name"`
	Cue    string        `json:"cue"`
	First  time.Time     `json:"first"`
	Period time.Duration `json:"period"`
}

type Service struct {
	mu sync.Mutex

	cfg      Config
	clk      clock.Clock
	log      logx.Logger
	dispatch Dispatch

	c        *cron.Cron
	triggers []Trigger
	entries  map[string]cron.EntryID
}

func New(cfg Config, clk clock.Clock, dispatch Dispatch, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Service{cfg: cfg, clk: clk, log: log, dispatch: dispatch, entries: map[string]cron.EntryID{}}
}

// Start registers both triggers and starts cron. Calling Start twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil || !s.cfg.Enabled {
		if !s.cfg.Enabled {
			s.log.Info("periodic cues disabled")
		}
		return nil
	}
	if s.dispatch == nil {
		return fmt.Errorf("periodic: dispatch required")
	}

	c := cron.New(
		cron.WithLocation(s.cfg.Location),
		cron.WithChain(cron.Recover(cronLogger{log: s.log})),
	)
	now := s.clk.Now().In(s.cfg.Location)

	if cue := strings.TrimSpace(s.cfg.QuarterHourCue); cue != "" {
		s.addLocked(c, Trigger{Name: triggerQuart, Cue: cue, First: now.Add(UntilNextQuarterHour(now)), Period: QuarterHour})
	}
	if cue := strings.TrimSpace(s.cfg.MarkCue); cue != "" {
		s.addLocked(c, Trigger{Name: triggerMark, Cue: cue, First: now.Add(UntilNextMinuteMark(now, s.cfg.MarkMinute)), Period: Hourly})
	}

	s.c = c
	c.Start()
	s.log.Info("service started", logx.String("tz", s.cfg.Location.String()), logx.Int("triggers", len(s.triggers)))
	return nil
}

func (s *Service) addLocked(c *cron.Cron, tr Trigger) {
	name, cue := tr.Name, tr.Cue
	job := cron.FuncJob(func() {
		s.log.Debug("periodic trigger", logx.String("trigger", name), logx.String("cue", cue))
		s.dispatch(name, cue)
	})
	s.entries[name] = c.Schedule(newAlignedSchedule(tr.First, tr.Period), job)
	s.triggers = append(s.triggers, tr)
	s.log.Debug("trigger registered",
		logx.String("trigger", name),
		logx.String("cue", cue),
		logx.Time("first", tr.First),
		logx.Duration("period", tr.Period),
	)
}

// Triggers returns the registered triggers.
func (s *Service) Triggers() []Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Trigger(nil), s.triggers...)
}

// run executes a registered trigger's job through cron's wrapper chain.
func (s *Service) run(name string) bool {
	s.mu.Lock()
	c := s.c
	id, ok := s.entries[name]
	s.mu.Unlock()
	if c == nil || !ok {
		return false
	}
	e := c.Entry(id)
	if !e.Valid() {
		return false
	}
	e.WrappedJob.Run()
	return true
}

// Stop stops cron and waits for running jobs, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.triggers = nil
	s.entries = map[string]cron.EntryID{}
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("service stopped")
}

// cronLogger adapts logx to cron.Logger so recovered job panics are logged.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logx.Err(err))...)
}

func kvFields(kv []interface{}) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
