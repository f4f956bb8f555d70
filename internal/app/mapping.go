package app

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"

	"jumbotron/internal/clock"
	"jumbotron/internal/config"
	"jumbotron/internal/escalation"
	"jumbotron/internal/media"
	"jumbotron/internal/periodic"
	"jumbotron/internal/present"
	logx "jumbotron/pkg/logx"
)

func expandPath(field, p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil
	}
	out, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return out, nil
}

func mapLogConfig(cfg *config.Config) (logx.Config, error) {
	path, err := expandPath("logging.file.path", cfg.Logging.File.Path)
	if err != nil {
		return logx.Config{}, err
	}
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: path},
	}, nil
}

func mapEscalationConfig(cfg *config.Config, d config.Durations) (escalation.Config, error) {
	focus, err := escalation.ParseFocus(cfg.Escalation.Focus)
	if err != nil {
		return escalation.Config{}, fmt.Errorf("escalation.focus: %w", err)
	}
	return escalation.Config{
		Threshold:  d.UrgentThreshold,
		VideoDelay: d.VideoDelay,
		AudioDelay: d.AudioDelay,
		Rotation:   cfg.Escalation.Rotation,
		Focus:      focus,
	}, nil
}

func mapPeriodicConfig(cfg *config.Config) (periodic.Config, error) {
	loc, err := config.LoadLocation("periodic.location", cfg.Periodic.Location)
	if err != nil {
		return periodic.Config{}, err
	}
	return periodic.Config{
		Enabled:        cfg.Periodic.Enabled,
		QuarterHourCue: cfg.Periodic.QuarterHourCue,
		MarkCue:        cfg.Periodic.MarkCue,
		MarkMinute:     cfg.Periodic.MarkMinute,
		Location:       loc,
	}, nil
}

func mapTerminalConfig(cfg *config.Config) (present.TerminalConfig, error) {
	loc, err := config.LoadLocation("display.location", cfg.Display.Location)
	if err != nil {
		return present.TerminalConfig{}, err
	}
	return present.TerminalConfig{
		Location:      loc,
		ClearScreen:   cfg.Display.ClearScreen,
		ShowLocalTime: cfg.Display.ShowLocalTime,
		NoColor:       cfg.Display.NoColor,
	}, nil
}

// buildSink picks the media driver. Timer and end-of-playback callbacks go
// through the loop so the engine only ever runs on the loop goroutine.
func buildSink(cfg *config.Config, d config.Durations, log logx.Logger, clk clock.Clock, post func(func())) (media.Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Media.Driver)) {
	case "", config.MediaDriverLog:
		return media.NewLogSink(log, clk, d.LogLength), nil
	case config.MediaDriverExec:
		cues := make(map[string]string, len(cfg.Media.Cues))
		for id, p := range cfg.Media.Cues {
			exp, err := expandPath("media.cues."+id, p)
			if err != nil {
				return nil, err
			}
			cues[id] = exp
		}
		player, err := expandPath("media.player", cfg.Media.Player)
		if err != nil {
			return nil, err
		}
		return media.NewExecSink(media.ExecConfig{
			Player:           player,
			Args:             cfg.Media.Args,
			Cues:             cues,
			FailureThreshold: cfg.Media.Breaker.FailureThreshold,
			BreakerTimeout:   d.BreakerTimeout,
		}, log, post), nil
	default:
		return nil, fmt.Errorf("media.driver: unknown driver %q", cfg.Media.Driver)
	}
}
