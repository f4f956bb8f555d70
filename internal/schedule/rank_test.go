package schedule

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestRankRollover(t *testing.T) {
	loc := mustZone(t, DefaultZone)
	slot, err := ParseSlot("pink", "23:45", "00:15")
	require.NoError(t, err)
	tt, err := NewTimetable(loc, []Slot{slot})
	require.NoError(t, err)

	now := time.Date(2026, 5, 10, 23, 50, 0, 0, loc)
	ranked, err := NewCalculator(tt).Rank(now)
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	assert.Equal(t, time.Date(2026, 5, 11, 0, 15, 0, 0, loc), ranked[0].Next)
	assert.Equal(t, 25*time.Minute, ranked[0].Remaining)
}

func TestRankUrgentSlot(t *testing.T) {
	tt, err := DefaultTimetable()
	require.NoError(t, err)
	loc := tt.Zone()

	now := time.Date(2026, 5, 10, 12, 29, 59, 0, loc)
	ranked, err := NewCalculator(tt).Rank(now)
	require.NoError(t, err)
	require.Len(t, ranked, tt.Len())

	assert.Equal(t, "red", ranked[0].SlotID)
	assert.Equal(t, time.Second, ranked[0].Remaining)
	assert.Equal(t, "green", ranked[1].SlotID)
	assert.Equal(t, 15*time.Minute+time.Second, ranked[1].Remaining)
}

func TestRankExactlyAtOccurrenceMovesOn(t *testing.T) {
	tt, err := DefaultTimetable()
	require.NoError(t, err)
	loc := tt.Zone()

	now := time.Date(2026, 5, 10, 12, 30, 0, 0, loc)
	ranked, err := NewCalculator(tt).Rank(now)
	require.NoError(t, err)

	assert.Equal(t, "green", ranked[0].SlotID)
	for _, r := range ranked {
		if r.SlotID == "red" {
			assert.Equal(t, time.Date(2026, 5, 10, 15, 0, 0, 0, loc), r.Next)
		}
	}
}

func TestRankFromOtherZone(t *testing.T) {
	tt, err := DefaultTimetable()
	require.NoError(t, err)

	// 19:29:30 UTC is 12:29:30 in Los Angeles during daylight time.
	now := time.Date(2026, 7, 1, 19, 29, 30, 0, time.UTC)
	ranked, err := NewCalculator(tt).Rank(now)
	require.NoError(t, err)
	assert.Equal(t, "red", ranked[0].SlotID)
	assert.Equal(t, 30*time.Second, ranked[0].Remaining)
}

func TestRankAcrossSpringForward(t *testing.T) {
	loc := mustZone(t, DefaultZone)
	slot, err := ParseSlot("blue", "03:30")
	require.NoError(t, err)
	tt, err := NewTimetable(loc, []Slot{slot})
	require.NoError(t, err)

	// Clocks skip 02:00-03:00 on 2026-03-08, so 4h30m of wall time is 3h30m elapsed.
	now := time.Date(2026, 3, 7, 23, 0, 0, 0, loc)
	ranked, err := NewCalculator(tt).Rank(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 8, 3, 30, 0, 0, loc), ranked[0].Next)
	assert.Equal(t, 3*time.Hour+30*time.Minute, ranked[0].Remaining)
}

func TestRankTiesKeepDeclarationOrder(t *testing.T) {
	a, _ := ParseSlot("a", "10:00")
	b, _ := ParseSlot("b", "10:00")
	c, _ := ParseSlot("c", "09:00")
	tt, err := NewTimetable(time.UTC, []Slot{a, b, c})
	require.NoError(t, err)

	ranked, err := NewCalculator(tt).Rank(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	ids := []string{ranked[0].SlotID, ranked[1].SlotID, ranked[2].SlotID}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestRankSortedAndNonNegative(t *testing.T) {
	tt, err := DefaultTimetable()
	require.NoError(t, err)
	calc := NewCalculator(tt)

	rng := rand.New(rand.NewSource(42))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 500; i++ {
		now := base.Add(time.Duration(rng.Int63n(int64(365 * 24 * time.Hour))))
		ranked, err := calc.Rank(now)
		require.NoError(t, err)
		require.Len(t, ranked, tt.Len())
		for j, r := range ranked {
			require.GreaterOrEqual(t, r.Remaining, time.Duration(0), "now=%s slot=%s", now, r.SlotID)
			require.LessOrEqual(t, r.Remaining, 25*time.Hour)
			if j > 0 {
				require.LessOrEqual(t, ranked[j-1].Remaining, r.Remaining)
			}
		}
	}
}

func TestRankSkipsConversionFailures(t *testing.T) {
	tt, err := DefaultTimetable()
	require.NoError(t, err)
	boom := errors.New("boom")
	conv := func(tod TimeOfDay, loc *time.Location, ref time.Time) (time.Time, error) {
		if tod == (TimeOfDay{12, 30}) {
			return time.Time{}, boom
		}
		return ZonedTime(tod, loc, ref)
	}

	now := time.Date(2026, 5, 10, 12, 29, 59, 0, tt.Zone())
	ranked, err := NewCalculator(tt, WithConverter(conv)).Rank(now)
	require.Error(t, err)

	var convErr *TimeConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "red", convErr.Slot)
	assert.ErrorIs(t, err, boom)

	assert.Len(t, ranked, tt.Len()-1)
	assert.Equal(t, "green", ranked[0].SlotID)
}

func TestTop(t *testing.T) {
	r := []RankedReset{{SlotID: "a"}, {SlotID: "b"}, {SlotID: "c"}}
	assert.Len(t, Top(r, 2), 2)
	assert.Len(t, Top(r, 5), 3)
	assert.Empty(t, Top(r, -1))
}
