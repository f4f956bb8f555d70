package app

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"jumbotron/internal/clock"
	"jumbotron/internal/config"
	"jumbotron/internal/escalation"
	"jumbotron/internal/media"
	"jumbotron/internal/schedule"
	logx "jumbotron/pkg/logx"
)

const testYAML = `
logging:
  level: error
display:
  clear_screen: false
  no_color: true
  location: America/Los_Angeles
periodic:
  location: America/Los_Angeles
`

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testClock(t *testing.T) *clock.Fake {
	t.Helper()
	loc, err := time.LoadLocation(schedule.DefaultZone)
	require.NoError(t, err)
	return clock.NewFake(time.Date(2026, 5, 10, 12, 29, 59, 500_000_000, loc))
}

// onLoop runs fn on the app's loop goroutine and waits for it.
func onLoop(t *testing.T, a *App, fn func()) {
	t.Helper()
	done := make(chan struct{})
	require.True(t, a.loop.Post(func() { fn(); close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not run the callback")
	}
}

func TestAppRendersArmsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/jumbotron.yaml", []byte(testYAML), 0o644))
	out := &syncBuffer{}
	a, err := New("/etc/jumbotron.yaml", Options{Out: out, Clock: testClock(t), Fs: fs})
	require.NoError(t, err)

	require.NoError(t, a.Start(context.Background()))
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "RED") }, 2*time.Second, 5*time.Millisecond)

	var snap escalation.Snapshot
	onLoop(t, a, func() { snap = a.engine.Snapshot() })
	assert.Equal(t, "red", snap.Focus)
	assert.Equal(t, escalation.StateArmed, snap.State)
	assert.Equal(t, "red", snap.PreviousPlayed)
	assert.ElementsMatch(t, []string{"red/video", "red/audio"}, snap.Pending)

	v, err := a.statusView(context.Background())
	require.NoError(t, err)
	sv := v.(statusView)
	assert.Equal(t, "red", sv.Escalation.Focus)
	assert.GreaterOrEqual(t, sv.Ticks, uint64(1))
	assert.Len(t, sv.Periodic, 2)
	assert.Contains(t, sv.Tasks, "loop")

	frame := out.String()
	assert.Contains(t, frame, "12:29 PM")
	assert.Contains(t, frame, "previous: YELLOW")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(ctx, StopAppStop))
	assert.NoError(t, a.Err())
}

func TestAppReloadKeepsTimetable(t *testing.T) {
	defer goleak.VerifyNone(t)

	fs := afero.NewMemMapFs()
	const path = "/etc/jumbotron.yaml"
	require.NoError(t, afero.WriteFile(fs, path, []byte(testYAML), 0o644))
	a, err := New(path, Options{Out: &syncBuffer{}, Clock: testClock(t), Fs: fs})
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Stop(ctx, StopAppStop)
	}()

	require.NoError(t, afero.WriteFile(fs, path, []byte(testYAML+"timetable:\n  zone: UTC\n"), 0o644))
	ok, err := a.cfgm.Reload(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, errTimetableFixed)

	// periodic is the last section of testYAML.
	require.NoError(t, afero.WriteFile(fs, path, []byte(testYAML+"  mark_cue: jingle\n"), 0o644))
	ok, err = a.cfgm.Reload(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		a.pmu.Lock()
		defer a.pmu.Unlock()
		for _, tr := range a.periodic.Triggers() {
			if tr.Name == "minute_mark" && tr.Cue == "jingle" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
}

func TestNewFromConfigRejectsInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.Escalation.Focus = "everywhere"
	_, err := NewFromConfig(cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escalation.focus")
}

func TestBuildSinkExecExpandsHome(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := config.Default()
	cfg.Media = config.MediaConfig{
		Driver: config.MediaDriverExec,
		Player: "mpv",
		Cues:   map[string]string{"chime": "~/cues/chime.mp3"},
	}
	d, err := cfg.Durations()
	require.NoError(t, err)
	sink, err := buildSink(cfg, d, logx.Nop(), clock.Real{}, nil)
	require.NoError(t, err)
	require.IsType(t, &media.ExecSink{}, sink)

	// An unknown cue fails before any process is started.
	err = sink.Play(context.Background(), "promo")
	assert.ErrorIs(t, err, media.ErrUnknownCue)

	p, err := expandPath("x", "~/cues/chime.mp3")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, home))
}

func TestMapEscalationConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Escalation.Focus = "per_slot"
	cfg.Escalation.VideoDelay = "2m"
	d, err := cfg.Durations()
	require.NoError(t, err)
	ec, err := mapEscalationConfig(cfg, d)
	require.NoError(t, err)
	assert.Equal(t, escalation.Config{
		Threshold:  time.Second,
		VideoDelay: 2 * time.Minute,
		AudioDelay: 10 * time.Minute,
		Rotation:   3,
		Focus:      escalation.FocusPerSlot,
	}, ec)
}
