// Package loop runs the display tick and every timer callback on one goroutine.
//
// The countdown driver, the escalation engine and media end-of-playback hooks
// all mutate shared state. Instead of locking, they post closures here.
package loop

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"jumbotron/internal/clock"
	logx "jumbotron/pkg/logx"
)

const defaultQueue = 256

type Loop struct {
	clk    clock.Clock
	tick   time.Duration
	onTick func(now time.Time)
	log    logx.Logger

	work chan func()
	done chan struct{}

	runOnce  sync.Once
	doneOnce sync.Once

	ticks  uint64
	panics uint64
}

type Option func(*Loop)

func WithLogger(log logx.Logger) Option { return func(l *Loop) { l.log = log } }

// WithQueue sets how many posted closures may wait before Post blocks.
func WithQueue(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.work = make(chan func(), n)
		}
	}
}

// New builds a loop calling onTick every tick. A nil onTick only serves Post.
func New(clk clock.Clock, tick time.Duration, onTick func(now time.Time), opts ...Option) *Loop {
	if clk == nil {
		clk = clock.Real{}
	}
	if tick <= 0 {
		tick = time.Second
	}
	l := &Loop{
		clk:    clk,
		tick:   tick,
		onTick: onTick,
		log:    logx.Nop(),
		work:   make(chan func(), defaultQueue),
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	if l.log.IsZero() {
		l.log = logx.Nop()
	}
	return l
}

// Post queues fn to run on the loop goroutine. It reports false once the loop
// has stopped; fn is then dropped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.work <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Run processes ticks and posted work until ctx is done. The first tick runs
// immediately. Run may only be called once; later calls return at once.
func (l *Loop) Run(ctx context.Context) error {
	started := false
	l.runOnce.Do(func() { started = true })
	if !started {
		return nil
	}
	defer l.doneOnce.Do(func() { close(l.done) })

	var (
		mu    sync.Mutex
		timer clock.Timer
		next  = l.clk.Now()
	)
	// Ticks land on start + k*tick; a slow tick skips missed deadlines instead
	// of stretching the period.
	var schedule func()
	schedule = func() {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		now := l.clk.Now()
		next = next.Add(l.tick)
		if !next.After(now) {
			missed := now.Sub(next)/l.tick + 1
			next = next.Add(missed * l.tick)
		}
		timer = l.clk.AfterFunc(next.Sub(now), func() {
			l.Post(func() {
				l.runTick()
				schedule()
			})
		})
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	l.runTick()
	schedule()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.work:
			l.safe("work", fn)
		}
	}
}

func (l *Loop) runTick() {
	atomic.AddUint64(&l.ticks, 1)
	if l.onTick == nil {
		return
	}
	l.safe("tick", func() { l.onTick(l.clk.Now()) })
}

func (l *Loop) safe(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddUint64(&l.panics, 1)
			l.log.Error("loop callback panicked",
				logx.String("kind", kind),
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Ticks and Panics are best-effort counters.
func (l *Loop) Ticks() uint64  { return atomic.LoadUint64(&l.ticks) }
func (l *Loop) Panics() uint64 { return atomic.LoadUint64(&l.panics) }

// Clock returns a clock whose AfterFunc callbacks run on the loop goroutine.
func (l *Loop) Clock() clock.Clock { return postingClock{inner: l.clk, l: l} }

type postingClock struct {
	inner clock.Clock
	l     *Loop
}

func (c postingClock) Now() time.Time { return c.inner.Now() }

func (c postingClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	return c.inner.AfterFunc(d, func() { c.l.Post(f) })
}
