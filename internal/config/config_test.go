package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jumbotron/internal/schedule"
)

const baseYAML = `
logging:
  level: debug
display:
  top_n: 4
escalation:
  focus: per_slot
periodic:
  mark_minute: 40
media:
  driver: exec
  player: mpv
  args: ["--no-video"]
  cues:
    urgent:red: ~/cues/red.mp3
`

func newManager(t *testing.T, name, content string) (*ConfigManager, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	return NewConfigManager(name, WithFs(fs)), fs
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	m, _ := newManager(t, "/etc/jumbotron.yaml", baseYAML)
	cfg, err := m.Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Console, "omitted field keeps default")
	assert.Equal(t, 4, cfg.Display.TopN)
	assert.Equal(t, "1s", cfg.Display.Tick)
	assert.Equal(t, "per_slot", cfg.Escalation.Focus)
	assert.Equal(t, "5m", cfg.Escalation.VideoDelay)
	assert.Equal(t, 40, cfg.Periodic.MarkMinute)
	assert.Equal(t, "chime", cfg.Periodic.QuarterHourCue)
	assert.Equal(t, []string{"--no-video"}, cfg.Media.Args)
	assert.Equal(t, "~/cues/red.mp3", cfg.Media.Cues["urgent:red"])
	assert.Same(t, cfg, m.Get())
}

func TestLoadJSONAndSniffing(t *testing.T) {
	m, _ := newManager(t, "/cfg/jumbotron.json", `{"display": {"top_n": 2}}`)
	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Display.TopN)

	cfg, err = Decode("jumbotron.conf", []byte(`{"display": {"top_n": 5}}`))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Display.TopN)

	cfg, err = Decode("jumbotron.conf", []byte("display:\n  top_n: 6\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Display.TopN)

	cfg, err = Decode("empty.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeRejectsUnknownAndTrailing(t *testing.T) {
	_, err := Decode("x.yaml", []byte("display:\n  topn: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topn")

	_, err = Decode("x.json", []byte(`{} {}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing data")
}

func TestLoadMissingFile(t *testing.T) {
	m := NewConfigManager("/nope.yaml", WithFs(afero.NewMemMapFs()))
	_, err := m.Load()
	require.Error(t, err)
	assert.Nil(t, m.Get())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "bad zone", mutate: func(c *Config) { c.Timetable.Zone = "Mars/Base" }, wantErr: "timetable.zone"},
		{name: "bad slot time", mutate: func(c *Config) {
			c.Timetable.Slots = []SlotConfig{{Color: "red", Times: []string{"25:00"}}}
		}, wantErr: "timetable.slots[0]"},
		{name: "duplicate slot", mutate: func(c *Config) {
			c.Timetable.Slots = []SlotConfig{{Color: "red", Times: []string{"12:00"}}, {Color: "RED", Times: []string{"13:00"}}}
		}, wantErr: "duplicate"},
		{name: "bad tick", mutate: func(c *Config) { c.Display.Tick = "soon" }, wantErr: "display.tick"},
		{name: "negative delay", mutate: func(c *Config) { c.Escalation.VideoDelay = "-1m" }, wantErr: "escalation.video_delay"},
		{name: "bad focus", mutate: func(c *Config) { c.Escalation.Focus = "both" }, wantErr: "escalation.focus"},
		{name: "mark minute", mutate: func(c *Config) { c.Periodic.MarkMinute = 60 }, wantErr: "periodic.mark_minute"},
		{name: "exec without player", mutate: func(c *Config) { c.Media.Driver = MediaDriverExec }, wantErr: "media.player"},
		{name: "unknown driver", mutate: func(c *Config) { c.Media.Driver = "vlc" }, wantErr: "media.driver"},
		{name: "debug addr", mutate: func(c *Config) { c.Debug.Enabled = true; c.Debug.Addr = "6060" }, wantErr: "debug.addr"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := Validate(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildTimetable(t *testing.T) {
	tt, err := Default().BuildTimetable()
	require.NoError(t, err)
	assert.Equal(t, 10, tt.Len())
	assert.Equal(t, schedule.DefaultZone, tt.Zone().String())

	c := Default()
	c.Timetable = TimetableConfig{Zone: "UTC", Slots: []SlotConfig{{Color: "Teal", Times: []string{"9:00", "21:30"}}}}
	tt, err = c.BuildTimetable()
	require.NoError(t, err)
	assert.Equal(t, "teal", tt.Slots()[0].ID)
	assert.Equal(t, []schedule.TimeOfDay{{Hour: 9}, {Hour: 21, Minute: 30}}, tt.Slots()[0].Times)

	var cerr *schedule.ConfigurationError
	c.Timetable.Slots = []SlotConfig{{Color: "teal"}}
	_, err = c.BuildTimetable()
	assert.True(t, errors.As(err, &cerr))
}

func TestDurations(t *testing.T) {
	d, err := Default().Durations()
	require.NoError(t, err)
	assert.Equal(t, Durations{
		Tick:            time.Second,
		Cycle:           45 * time.Minute,
		UrgentThreshold: time.Second,
		VideoDelay:      5 * time.Minute,
		AudioDelay:      10 * time.Minute,
		BreakerTimeout:  time.Minute,
	}, d)

	c := Default()
	c.Display.Tick = ""
	c.Media.LogLength = "3s"
	d, err = c.Durations()
	require.NoError(t, err)
	assert.Equal(t, time.Second, d.Tick)
	assert.Equal(t, 3*time.Second, d.LogLength)
}

func TestReloadPublishesChanges(t *testing.T) {
	m, fs := newManager(t, "/etc/jumbotron.yaml", baseYAML)
	_, err := m.Load()
	require.NoError(t, err)
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	ok, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "unchanged content is not republished")

	require.NoError(t, afero.WriteFile(fs, "/etc/jumbotron.yaml", []byte(strings.Replace(baseYAML, "mark_minute: 40", "mark_minute: 40\n  enabled: false", 1)), 0o644))
	ok, err = m.Reload(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	got := <-sub
	assert.False(t, got.Periodic.Enabled)
	assert.Same(t, got, m.Get())
}

func TestReloadRejected(t *testing.T) {
	m, fs := newManager(t, "/etc/jumbotron.yaml", baseYAML)
	first, err := m.Load()
	require.NoError(t, err)
	m.SetValidator(func(_ context.Context, cfg *Config) error {
		if !SameTimetable(first, cfg) {
			return errors.New("timetable is fixed for the session")
		}
		return nil
	})

	require.NoError(t, afero.WriteFile(fs, "/etc/jumbotron.yaml", []byte(baseYAML+"\ntimetable:\n  zone: UTC\n"), 0o644))
	ok, err := m.Reload(context.Background())
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timetable is fixed")
	assert.Same(t, first, m.Get())

	require.NoError(t, afero.WriteFile(fs, "/etc/jumbotron.yaml", []byte("display:\n  tick: never\n"), 0o644))
	_, err = m.Reload(context.Background())
	assert.ErrorContains(t, err, "display.tick")
}

func TestPublishKeepsLatest(t *testing.T) {
	m := NewConfigManager("x", WithFs(afero.NewMemMapFs()))
	sub := m.Subscribe(1)
	a, b := Default(), Default()
	m.publish(a)
	m.publish(b)
	assert.Same(t, b, <-sub)

	m.Unsubscribe(sub)
	_, open := <-sub
	assert.False(t, open)
}

func TestSummarizeConfigChange(t *testing.T) {
	oldCfg := Default()
	newCfg := Default()
	newCfg.Logging.Level = "debug"
	newCfg.Periodic.MarkCue = "jingle"
	newCfg.Display.TopN = 5
	newCfg.Timetable.Zone = "UTC"

	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	assert.Equal(t, []string{"display", "logging", "periodic", "timetable"}, changed)
	assert.NotEmpty(t, attrs)
	assert.Equal(t, []string{"display"}, RestartRequired(changed))

	changed, _ = SummarizeConfigChange(oldCfg, Default())
	assert.Empty(t, changed)
}
