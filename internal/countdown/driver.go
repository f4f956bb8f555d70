// Package countdown runs one display tick: rank every slot, render the top of
// the ranking and hand the most urgent slot to the escalation engine.
package countdown

import (
	"errors"
	"time"

	"jumbotron/internal/present"
	"jumbotron/internal/schedule"
	logx "jumbotron/pkg/logx"
)

// Armer receives the most urgent slot after each render.
type Armer interface {
	ArmIfNeeded(top schedule.RankedReset) bool
}

type Config struct {
	// TopN is how many ranked slots are rendered (default 3).
	TopN int
	// Cycle is the length of a full progress bar (default 45m).
	Cycle time.Duration
}

// Result is what one tick observed.
type Result struct {
	Top      []schedule.RankedReset
	Previous string
	Armed    bool
	// Err joins conversion and render failures; the tick still completes.
	Err error
}

type Driver struct {
	calc     *schedule.Calculator
	renderer present.Renderer
	armer    Armer
	cfg      Config
	log      logx.Logger
	sampler  *logx.Sampler
}

type Option func(*Driver)

func WithLogger(log logx.Logger) Option { return func(d *Driver) { d.log = log } }

func WithSampler(s *logx.Sampler) Option { return func(d *Driver) { d.sampler = s } }

func New(calc *schedule.Calculator, r present.Renderer, a Armer, cfg Config, opts ...Option) *Driver {
	if cfg.TopN <= 0 {
		cfg.TopN = 3
	}
	if cfg.Cycle <= 0 {
		cfg.Cycle = present.DefaultCycle
	}
	d := &Driver{calc: calc, renderer: r, armer: a, cfg: cfg, log: logx.Nop()}
	for _, o := range opts {
		o(d)
	}
	if d.log.IsZero() {
		d.log = logx.Nop()
	}
	if d.sampler == nil {
		d.sampler = logx.NewSampler(time.Minute, 1)
	}
	return d
}

// Tick ranks at now, renders, then arms. Must run on the event loop.
func (d *Driver) Tick(now time.Time) Result {
	ranked, rankErr := d.calc.Rank(now)
	if rankErr != nil {
		d.logConversion(rankErr)
	}

	res := Result{Top: schedule.Top(ranked, d.cfg.TopN), Err: rankErr}
	if len(res.Top) == 0 {
		return res
	}
	res.Previous = d.calc.Timetable().Previous(res.Top[0].SlotID)

	if d.renderer != nil {
		if err := d.renderer.Render(present.BuildRows(res.Top, d.cfg.Cycle), res.Previous); err != nil {
			d.sampler.Warn(d.log, "render", "render failed", logx.Err(err))
			res.Err = errors.Join(res.Err, err)
		}
	}

	if d.armer != nil {
		res.Armed = d.armer.ArmIfNeeded(res.Top[0])
	}
	return res
}

func (d *Driver) logConversion(err error) {
	errs := []error{err}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs = j.Unwrap()
	}
	for _, e := range errs {
		key := "convert"
		var tce *schedule.TimeConversionError
		if errors.As(e, &tce) {
			key += ":" + tce.Slot
		}
		d.sampler.Warn(d.log, key, "slot skipped", logx.Err(e))
	}
}
