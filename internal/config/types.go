package config

import "jumbotron/internal/schedule"

// Config is the on-disk configuration (JSON, or YAML coerced to JSON).
//
// Durations are Go duration strings ("1s", "5m"). Omitted fields keep the values
// from Default().
type Config struct {
	Logging    LoggingConfig    `json:"logging"`
	Timetable  TimetableConfig  `json:"timetable"`
	Display    DisplayConfig    `json:"display"`
	Escalation EscalationConfig `json:"escalation"`
	Periodic   PeriodicConfig   `json:"periodic"`
	Media      MediaConfig      `json:"media"`
	Debug      DebugConfig      `json:"debug"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// TimetableConfig is static for the life of the process. An empty slot list
// selects the published default timetable.
//
// Example:
//
//	timetable:
//	  zone: America/Los_Angeles
//	  slots:
//	    - color: red
//	      times: ["12:30", "15:00"]
type TimetableConfig struct {
	Zone  string       `json:"zone"`
	Slots []SlotConfig `json:"slots,omitempty"`
}

type SlotConfig struct {
	Color string   `json:"color"`
	Times []string `json:"times"`
}

type DisplayConfig struct {
	TopN          int    `json:"top_n"`
	Tick          string `json:"tick"`
	Cycle         string `json:"cycle"`
	ClearScreen   bool   `json:"clear_screen"`
	ShowLocalTime bool   `json:"show_local_time"`
	NoColor       bool   `json:"no_color,omitempty"`
	// Location of the local clock line; empty means the host zone.
	Location string `json:"location,omitempty"`
}

type EscalationConfig struct {
	UrgentThreshold string `json:"urgent_threshold"`
	VideoDelay      string `json:"video_delay"`
	AudioDelay      string `json:"audio_delay"`
	// Focus is "global" or "per_slot".
	Focus    string `json:"focus"`
	Rotation int    `json:"rotation,omitempty"`
}

// PeriodicConfig controls the wall-clock aligned cues. A cue of "urgent" replays
// the current urgent slot's cue instead of a fixed one.
type PeriodicConfig struct {
	Enabled        bool   `json:"enabled"`
	QuarterHourCue string `json:"quarter_hour_cue"`
	MarkCue        string `json:"mark_cue"`
	MarkMinute     int    `json:"mark_minute"`
	// Location the triggers align to; empty means the host zone.
	Location string `json:"location,omitempty"`
}

// MediaConfig selects how cues are played.
//
// driver "log" only logs cues (LogLength simulates playback length so end hooks
// fire); driver "exec" runs Player with Args followed by the cue file.
type MediaConfig struct {
	Driver    string            `json:"driver"`
	Player    string            `json:"player,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Cues      map[string]string `json:"cues,omitempty"`
	LogLength string            `json:"log_length,omitempty"`
	Breaker   BreakerConfig     `json:"breaker"`
}

type BreakerConfig struct {
	FailureThreshold uint32 `json:"failure_threshold"`
	Timeout          string `json:"timeout"`
}

// DebugConfig controls the optional HTTP server exposing pprof, /healthz and
// /status. A non-loopback Addr requires Token unless AllowInsecure is set.
type DebugConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"`
	Token         string `json:"token,omitempty"`
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
}

const (
	MediaDriverLog  = "log"
	MediaDriverExec = "exec"

	// UrgentCue as a periodic cue replays the current urgent slot's cue.
	UrgentCue = "urgent"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Console: true},
		Timetable: TimetableConfig{
			Zone: schedule.DefaultZone,
		},
		Display: DisplayConfig{
			TopN:          3,
			Tick:          "1s",
			Cycle:         "45m",
			ClearScreen:   true,
			ShowLocalTime: true,
		},
		Escalation: EscalationConfig{
			UrgentThreshold: "1s",
			VideoDelay:      "5m",
			AudioDelay:      "10m",
			Focus:           "global",
			Rotation:        3,
		},
		Periodic: PeriodicConfig{
			Enabled:        true,
			QuarterHourCue: "chime",
			MarkCue:        "promo",
			MarkMinute:     35,
		},
		Media: MediaConfig{
			Driver:  MediaDriverLog,
			Breaker: BreakerConfig{FailureThreshold: 3, Timeout: "1m"},
		},
		Debug: DebugConfig{Addr: "127.0.0.1:6060"},
	}
}
