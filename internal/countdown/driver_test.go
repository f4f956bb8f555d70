package countdown

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jumbotron/internal/clock"
	"jumbotron/internal/escalation"
	"jumbotron/internal/media/mediatest"
	"jumbotron/internal/present"
	"jumbotron/internal/schedule"
)

type frame struct {
	rows     []present.Row
	previous string
}

type recordingRenderer struct {
	frames []frame
	err    error
}

func (r *recordingRenderer) Render(rows []present.Row, previous string) error {
	r.frames = append(r.frames, frame{rows: rows, previous: previous})
	return r.err
}

func la(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(schedule.DefaultZone)
	require.NoError(t, err)
	return loc
}

func defaultCalc(t *testing.T, opts ...schedule.CalculatorOption) *schedule.Calculator {
	t.Helper()
	tt, err := schedule.DefaultTimetable()
	require.NoError(t, err)
	return schedule.NewCalculator(tt, opts...)
}

func TestTickRendersTopThreeWithPrevious(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 29, 59, 0, la(t))
	r := &recordingRenderer{}
	d := New(defaultCalc(t), r, nil, Config{})

	res := d.Tick(now)
	require.NoError(t, res.Err)
	require.Len(t, r.frames, 1)
	rows := r.frames[0].rows
	require.Len(t, rows, 3)

	assert.Equal(t, "red", rows[0].Color)
	assert.Equal(t, time.Second, rows[0].Remaining)
	assert.Equal(t, "0:01", rows[0].Timer)
	assert.Equal(t, "green", rows[1].Color)
	assert.Equal(t, "black", rows[2].Color)
	assert.Equal(t, "yellow", r.frames[0].previous)
	assert.Equal(t, "yellow", res.Previous)
}

func TestTickArmsUnderOneSecond(t *testing.T) {
	loc := la(t)
	now := time.Date(2026, 5, 10, 12, 29, 59, 0, loc)
	clk := clock.NewFake(now)
	rec := mediatest.New()
	eng := escalation.New(escalation.Config{}, clk, rec)
	d := New(defaultCalc(t), &recordingRenderer{}, eng, Config{})

	assert.False(t, d.Tick(now).Armed, "exactly one second left does not arm")

	clk.Advance(500 * time.Millisecond)
	res := d.Tick(clk.Now())
	assert.True(t, res.Armed)
	assert.Equal(t, []string{"urgent:red"}, rec.Plays())

	clk.Advance(400 * time.Millisecond)
	assert.False(t, d.Tick(clk.Now()).Armed, "same occurrence arms once")
}

func TestTickContinuesAfterRenderError(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 29, 59, 500_000_000, la(t))
	rec := mediatest.New()
	eng := escalation.New(escalation.Config{}, clock.NewFake(now), rec)
	d := New(defaultCalc(t), &recordingRenderer{err: present.ErrTargetMissing}, eng, Config{})

	res := d.Tick(now)
	assert.ErrorIs(t, res.Err, present.ErrTargetMissing)
	assert.True(t, res.Armed)
}

func TestTickSkipsUnconvertibleSlot(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 29, 59, 0, la(t))
	boom := errors.New("zone lookup failed")
	conv := func(tod schedule.TimeOfDay, loc *time.Location, ref time.Time) (time.Time, error) {
		if tod == schedule.MustTimeOfDay("12:30") {
			return time.Time{}, boom
		}
		return schedule.ZonedTime(tod, loc, ref)
	}
	r := &recordingRenderer{}
	d := New(defaultCalc(t, schedule.WithConverter(conv)), r, nil, Config{TopN: 2})

	res := d.Tick(now)
	require.Error(t, res.Err)
	var tce *schedule.TimeConversionError
	require.ErrorAs(t, res.Err, &tce)
	assert.Equal(t, "red", tce.Slot)
	assert.ErrorIs(t, res.Err, boom)

	require.Len(t, res.Top, 2)
	assert.Equal(t, "green", res.Top[0].SlotID)
	assert.Equal(t, "red", res.Previous, "declaration-order predecessor of green")
}

func TestTickEmptyRanking(t *testing.T) {
	conv := func(schedule.TimeOfDay, *time.Location, time.Time) (time.Time, error) {
		return time.Time{}, errors.New("no tz")
	}
	r := &recordingRenderer{}
	d := New(defaultCalc(t, schedule.WithConverter(conv)), r, nil, Config{})
	res := d.Tick(time.Now())
	assert.Error(t, res.Err)
	assert.Empty(t, res.Top)
	assert.Empty(t, r.frames)
}

func TestTickArmsSlotWhoseWindowFellBetweenTicks(t *testing.T) {
	loc := la(t)
	now := time.Date(2026, 5, 10, 12, 29, 58, 999_500_000, loc)
	clk := clock.NewFake(now)
	rec := mediatest.New()
	eng := escalation.New(escalation.Config{}, clk, rec)
	d := New(defaultCalc(t), &recordingRenderer{}, eng, Config{})

	res := d.Tick(clk.Now())
	require.Equal(t, "red", res.Top[0].SlotID)
	assert.False(t, res.Armed)

	// A tick period of 1.001s steps over red's [0, 1s) window entirely.
	clk.Advance(1001 * time.Millisecond)
	res = d.Tick(clk.Now())
	assert.Equal(t, "green", res.Top[0].SlotID)
	assert.True(t, res.Armed)
	assert.Equal(t, []string{"urgent:red"}, rec.Plays())
	assert.Equal(t, "red", eng.Snapshot().Focus)

	clk.Advance(time.Second)
	assert.False(t, d.Tick(clk.Now()).Armed, "armed once per occurrence")
}
