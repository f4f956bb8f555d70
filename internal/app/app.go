package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"jumbotron/internal/clock"
	"jumbotron/internal/config"
	"jumbotron/internal/countdown"
	"jumbotron/internal/debugserver"
	"jumbotron/internal/escalation"
	"jumbotron/internal/media"
	"jumbotron/internal/periodic"
	"jumbotron/internal/present"
	"jumbotron/internal/runtime/loop"
	"jumbotron/internal/runtime/supervisor"
	"jumbotron/internal/schedule"
	logx "jumbotron/pkg/logx"
	"jumbotron/pkg/systemd"
)

var errTimetableFixed = errors.New("timetable cannot change while running; restart to apply")

// Options override process-level collaborators, mostly for tests.
type Options struct {
	// Out receives rendered frames (default color.Output).
	Out   io.Writer
	Clock clock.Clock
	Fs    afero.Fs
	// Watch enables fsnotify config reloads (only meaningful on the OS filesystem).
	Watch bool
}

type App struct {
	cfgm *config.ConfigManager
	cfg  *config.Config

	log  logx.Logger
	logs *logx.Service

	clk     clock.Clock
	loop    *loop.Loop
	engine  *escalation.Engine
	sink    media.Sink
	driver  *countdown.Driver
	term    *present.Terminal
	notify  *systemd.Notifier
	sampler *logx.Sampler

	runCtx    context.Context
	runCancel context.CancelFunc

	pmu      sync.Mutex
	periodic *periodic.Service

	debug *debugserver.Server
	watch bool
	sup   *supervisor.Supervisor

	lastTick time.Time
	tickMu   sync.Mutex
}

// New loads the config at path and builds the app without starting it.
func New(path string, opts Options) (*App, error) {
	var mopts []config.Option
	if opts.Fs != nil {
		mopts = append(mopts, config.WithFs(opts.Fs))
	}
	cfgm := config.NewConfigManager(path, mopts...)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return build(cfgm, cfg, opts)
}

// NewFromConfig builds the app from an in-memory config; reloads are disabled.
func NewFromConfig(cfg *config.Config, opts Options) (*App, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	opts.Watch = false
	return build(nil, cfg, opts)
}

func build(cfgm *config.ConfigManager, cfg *config.Config, opts Options) (*App, error) {
	logCfg, err := mapLogConfig(cfg)
	if err != nil {
		return nil, err
	}
	logSvc, log := logx.New(logCfg)

	a, err := assemble(cfgm, cfg, opts, logSvc, log)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

func assemble(cfgm *config.ConfigManager, cfg *config.Config, opts Options, logSvc *logx.Service, log logx.Logger) (*App, error) {
	tt, err := cfg.BuildTimetable()
	if err != nil {
		return nil, err
	}
	durs, err := cfg.Durations()
	if err != nil {
		return nil, err
	}
	escCfg, err := mapEscalationConfig(cfg, durs)
	if err != nil {
		return nil, err
	}
	termCfg, err := mapTerminalConfig(cfg)
	if err != nil {
		return nil, err
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	out := opts.Out
	if out == nil {
		out = color.Output
	}

	a := &App{
		cfgm:    cfgm,
		cfg:     cfg,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		clk:     clk,
		notify:  systemd.NewNotifier(log.With(logx.String("comp", "systemd"))),
		sampler: logx.NewSampler(time.Minute, 3),
		watch:   opts.Watch && cfgm != nil,
	}
	a.runCtx, a.runCancel = context.WithCancel(context.Background())

	a.loop = loop.New(clk, durs.Tick, a.tick, loop.WithLogger(log.With(logx.String("comp", "loop"))))
	lclk := a.loop.Clock()

	a.sink, err = buildSink(cfg, durs, log.With(logx.String("comp", "media")), lclk, func(fn func()) { a.loop.Post(fn) })
	if err != nil {
		return nil, err
	}

	a.engine = escalation.New(escCfg, lclk, a.sink,
		escalation.WithContext(a.runCtx),
		escalation.WithLogger(log.With(logx.String("comp", "escalation"))),
		escalation.WithSampler(a.sampler),
	)

	a.term = present.NewTerminal(out, clk, termCfg)
	a.term.SetStatus(a.status)

	a.driver = countdown.New(schedule.NewCalculator(tt), a.term, a.engine, countdown.Config{
		TopN:  cfg.Display.TopN,
		Cycle: durs.Cycle,
	}, countdown.WithLogger(log.With(logx.String("comp", "countdown"))), countdown.WithSampler(a.sampler))

	if a.periodic, err = a.newPeriodic(cfg); err != nil {
		return nil, err
	}
	a.debug = a.newDebugServer(cfg.Debug)

	a.log.Info("app built",
		logx.String("zone", tt.Zone().String()),
		logx.Int("slots", tt.Len()),
		logx.String("focus", string(escCfg.Focus)),
		logx.String("media", cfg.Media.Driver),
	)
	return a, nil
}

func (a *App) newPeriodic(cfg *config.Config) (*periodic.Service, error) {
	pcfg, err := mapPeriodicConfig(cfg)
	if err != nil {
		return nil, err
	}
	return periodic.New(pcfg, a.clk, a.dispatchPeriodic, a.log.With(logx.String("comp", "periodic"))), nil
}

// dispatchPeriodic runs on cron's goroutine and hands the cue to the loop.
func (a *App) dispatchPeriodic(trigger, cue string) {
	a.loop.Post(func() {
		if strings.EqualFold(cue, config.UrgentCue) {
			a.engine.PlayUrgent()
			return
		}
		if err := a.sink.Play(a.runCtx, cue); err != nil {
			a.sampler.Warn(a.log, "periodic:"+trigger, "periodic cue failed",
				logx.String("trigger", trigger), logx.String("cue", cue), logx.Err(err))
		}
	})
}

func (a *App) tick(now time.Time) {
	a.driver.Tick(now)
	a.tickMu.Lock()
	a.lastTick = a.clk.Now()
	a.tickMu.Unlock()
}

// status is rendered under the table; it runs on the loop goroutine.
func (a *App) status() string {
	s := a.engine.Snapshot()
	if s.Focus == "" {
		return ""
	}
	parts := []string{fmt.Sprintf("escalation: %s %s", strings.ToUpper(s.Focus), s.State)}
	if len(s.Pending) > 0 {
		parts = append(parts, "pending "+strings.Join(s.Pending, ","))
	}
	if s.VideoVisible {
		parts = append(parts, "video playing")
	}
	parts = append(parts, fmt.Sprintf("next cue%d", s.NextCue))
	return strings.Join(parts, " | ")
}

// alive reports whether the loop ticked recently; it gates the systemd watchdog.
func (a *App) alive() bool {
	a.tickMu.Lock()
	last := a.lastTick
	a.tickMu.Unlock()
	return !last.IsZero() && a.clk.Now().Sub(last) < 10*time.Second
}

// Done is closed when the app context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)

	a.sup.Go("loop", a.loop.Run)

	a.pmu.Lock()
	err := a.periodic.Start(a.sup.Context())
	a.pmu.Unlock()
	if err != nil {
		a.sup.Cancel()
		return err
	}

	if a.cfgm != nil {
		a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
		a.cfgm.SetValidator(func(_ context.Context, c *config.Config) error {
			if !config.SameTimetable(a.cfg, c) {
				return errTimetableFixed
			}
			return nil
		})
		// The baseline is taken before subscribing so a reload published before
		// the goroutine runs is still diffed against the running config.
		baseline := a.cfg
		sub := a.cfgm.Subscribe(4)
		a.sup.Go("config.reload", func(c context.Context) error {
			defer a.cfgm.Unsubscribe(sub)
			a.reloadLoop(c, sub, baseline)
			return nil
		})
		if a.watch {
			a.sup.GoRestart("config.watch", a.cfgm.Watch, time.Second, 30*time.Second)
		}
	}

	if a.debug != nil {
		if err := a.debug.Check(); err != nil {
			a.log.Error("debug server disabled", logx.Err(err))
		} else {
			a.sup.GoRestart("debug.http", a.debug.Serve, 500*time.Millisecond, 10*time.Second)
		}
	}

	if a.notify.WatchdogInterval() > 0 {
		a.sup.Go("systemd.watchdog", func(c context.Context) error {
			return a.notify.RunWatchdog(c, a.alive)
		})
	}

	a.notify.Ready()
	a.log.Info("app started")
	return nil
}

// Run starts the app and blocks until ctx ends or a component fails.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	reason := StopSignal
	select {
	case <-ctx.Done():
	case <-a.Done():
		if a.Err() != nil {
			reason = StopFatalError
		} else {
			reason = StopAppStop
		}
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.Stop(stopCtx, reason)
	return a.Err()
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.notify.Stopping()

	a.sup.Cancel()
	a.runCancel()

	// The reload goroutine may swap the periodic service, so wait for it first.
	a.step(ctx, "supervisor", 3*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	a.step(ctx, "periodic", 2*time.Second, func(c context.Context) error {
		a.pmu.Lock()
		p := a.periodic
		a.pmu.Unlock()
		p.Stop(c)
		return nil
	})
	a.step(ctx, "escalation", time.Second, func(context.Context) error {
		select {
		case <-a.loop.Done():
			// The loop goroutine is gone, so the engine can be touched directly.
			a.engine.Stop()
			return nil
		default:
			return errors.New("loop still running; pending escalation left in place")
		}
	})

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
