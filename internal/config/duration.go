package config

import (
	"fmt"
	"strings"
	"time"
)

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// Durations holds every duration of a Config, parsed and defaulted.
type Durations struct {
	Tick            time.Duration
	Cycle           time.Duration
	UrgentThreshold time.Duration
	VideoDelay      time.Duration
	AudioDelay      time.Duration
	LogLength       time.Duration
	BreakerTimeout  time.Duration
}

func (c *Config) Durations() (Durations, error) {
	var (
		d   Durations
		err error
	)
	fields := []struct {
		path string
		raw  string
		def  time.Duration
		dst  *time.Duration
	}{
		{"display.tick", c.Display.Tick, time.Second, &d.Tick},
		{"display.cycle", c.Display.Cycle, 45 * time.Minute, &d.Cycle},
		{"escalation.urgent_threshold", c.Escalation.UrgentThreshold, time.Second, &d.UrgentThreshold},
		{"escalation.video_delay", c.Escalation.VideoDelay, 5 * time.Minute, &d.VideoDelay},
		{"escalation.audio_delay", c.Escalation.AudioDelay, 10 * time.Minute, &d.AudioDelay},
		{"media.log_length", c.Media.LogLength, 0, &d.LogLength},
		{"media.breaker.timeout", c.Media.Breaker.Timeout, time.Minute, &d.BreakerTimeout},
	}
	for _, f := range fields {
		if *f.dst, err = ParseDurationOrDefault(f.path, f.raw, f.def); err != nil {
			return Durations{}, err
		}
	}
	return d, nil
}
