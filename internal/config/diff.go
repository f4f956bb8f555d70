package config

import (
	"reflect"
	"sort"
	"strings"

	logx "jumbotron/pkg/logx"
)

// SummarizeConfigChange returns the changed section names (sorted) and
// structured fields describing the new values, for a reload log line.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 7)
	attrs := make([]logx.Field, 0, 16)

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if !SameTimetable(oldCfg, newCfg) {
		changed = append(changed, "timetable")
		attrs = append(attrs,
			logx.String("timetable.zone", strings.TrimSpace(newCfg.Timetable.Zone)),
			logx.Int("timetable.slots", len(newCfg.Timetable.Slots)),
		)
	}

	if !reflect.DeepEqual(oldCfg.Display, newCfg.Display) {
		changed = append(changed, "display")
		attrs = append(attrs,
			logx.Int("display.top_n", newCfg.Display.TopN),
			logx.String("display.tick", newCfg.Display.Tick),
		)
	}

	if !reflect.DeepEqual(oldCfg.Escalation, newCfg.Escalation) {
		changed = append(changed, "escalation")
		attrs = append(attrs,
			logx.String("escalation.focus", newCfg.Escalation.Focus),
			logx.String("escalation.video_delay", newCfg.Escalation.VideoDelay),
			logx.String("escalation.audio_delay", newCfg.Escalation.AudioDelay),
		)
	}

	if !reflect.DeepEqual(oldCfg.Periodic, newCfg.Periodic) {
		changed = append(changed, "periodic")
		attrs = append(attrs,
			logx.Bool("periodic.enabled", newCfg.Periodic.Enabled),
			logx.String("periodic.quarter_hour_cue", newCfg.Periodic.QuarterHourCue),
			logx.String("periodic.mark_cue", newCfg.Periodic.MarkCue),
			logx.Int("periodic.mark_minute", newCfg.Periodic.MarkMinute),
		)
	}

	// Cue paths can be long; only counts are logged.
	if !reflect.DeepEqual(oldCfg.Media, newCfg.Media) {
		changed = append(changed, "media")
		attrs = append(attrs,
			logx.String("media.driver", newCfg.Media.Driver),
			logx.Int("media.cues", len(newCfg.Media.Cues)),
		)
	}

	if !reflect.DeepEqual(oldCfg.Debug, newCfg.Debug) {
		changed = append(changed, "debug")
		attrs = append(attrs,
			logx.Bool("debug.enabled", newCfg.Debug.Enabled),
			logx.String("debug.addr", newCfg.Debug.Addr),
			logx.Bool("debug.token_set", newCfg.Debug.Token != ""),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

// LiveSections are applied without a restart.
var LiveSections = map[string]bool{"logging": true, "periodic": true}

// RestartRequired returns the changed sections that only take effect on restart.
func RestartRequired(changed []string) []string {
	var out []string
	for _, s := range changed {
		if !LiveSections[s] && s != "timetable" {
			out = append(out, s)
		}
	}
	return out
}
