package logx

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Sampler throttles repetitive log lines per key.
//
// The 1s display tick can hit the same failure on every tick (a missing render target,
// a player that refuses to start). Each key gets its own token bucket; Allow reports
// whether a line for that key should be written now and how many were suppressed since
// the last allowed one.
type Sampler struct {
	mu      sync.Mutex
	every   time.Duration
	burst   int
	buckets map[string]*bucket
}

type bucket struct {
	lim        *rate.Limiter
	suppressed int
}

// NewSampler allows burst lines per key, then one line every `every`.
func NewSampler(every time.Duration, burst int) *Sampler {
	if every <= 0 {
		every = time.Minute
	}
	if burst <= 0 {
		burst = 1
	}
	return &Sampler{every: every, burst: burst, buckets: map[string]*bucket{}}
}

// Allow reports whether a log line for key may be written.
func (s *Sampler) Allow(key string) (ok bool, suppressed int) {
	if s == nil {
		return true, 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.buckets[key]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(rate.Every(s.every), s.burst)}
		s.buckets[key] = b
	}
	if !b.lim.Allow() {
		b.suppressed++
		return false, 0
	}
	n := b.suppressed
	b.suppressed = 0
	return true, n
}

// Warn logs msg at warn level when the key's bucket allows it.
func (s *Sampler) Warn(log Logger, key, msg string, fields ...Field) {
	ok, n := s.Allow(key)
	if !ok {
		return
	}
	if n > 0 {
		fields = append(fields, Int("suppressed", n))
	}
	log.Warn(msg, fields...)
}

// Reset forgets the bucket for key so the next failure logs immediately.
func (s *Sampler) Reset(key string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.buckets, key)
	s.mu.Unlock()
}
