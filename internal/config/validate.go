package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"jumbotron/internal/escalation"
	logx "jumbotron/pkg/logx"
)

// Validate checks every section. It is used both at startup and before a
// reloaded file is committed.
func Validate(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if !logx.ValidLevel(c.Logging.Level) {
		add(fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}

	if _, err := c.BuildTimetable(); err != nil {
		add(err)
	}

	_, err := c.Durations()
	add(err)

	if c.Display.TopN < 0 {
		add(fmt.Errorf("display.top_n must be >= 0"))
	}
	_, err = LoadLocation("display.location", c.Display.Location)
	add(err)

	if _, err := escalation.ParseFocus(c.Escalation.Focus); err != nil {
		add(fmt.Errorf("escalation.focus: %w", err))
	}
	if c.Escalation.Rotation < 0 {
		add(fmt.Errorf("escalation.rotation must be >= 0"))
	}

	if c.Periodic.MarkMinute < 0 || c.Periodic.MarkMinute > 59 {
		add(fmt.Errorf("periodic.mark_minute must be within 0..59"))
	}
	_, err = LoadLocation("periodic.location", c.Periodic.Location)
	add(err)

	switch strings.ToLower(strings.TrimSpace(c.Media.Driver)) {
	case "", MediaDriverLog:
	case MediaDriverExec:
		if strings.TrimSpace(c.Media.Player) == "" {
			add(fmt.Errorf("media.player is required for the exec driver"))
		}
		if len(c.Media.Cues) == 0 {
			add(fmt.Errorf("media.cues is required for the exec driver"))
		}
	default:
		add(fmt.Errorf("media.driver: unknown driver %q (use log or exec)", c.Media.Driver))
	}

	if c.Debug.Enabled {
		if _, _, err := net.SplitHostPort(strings.TrimSpace(c.Debug.Addr)); err != nil {
			add(fmt.Errorf("debug.addr: %w", err))
		}
	}

	return errors.Join(errs...)
}
