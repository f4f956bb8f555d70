package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    TimeOfDay
		wantErr bool
	}{
		{raw: "00:00", want: TimeOfDay{0, 0}},
		{raw: "9:05", want: TimeOfDay{9, 5}},
		{raw: " 23:59 ", want: TimeOfDay{23, 59}},
		{raw: "24:00", wantErr: true},
		{raw: "12:60", wantErr: true},
		{raw: "noon", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "07:05", TimeOfDay{7, 5}.String())
}

func TestNewTimetableValidation(t *testing.T) {
	t.Parallel()
	red := Slot{ID: "red", Times: []TimeOfDay{{12, 30}}}
	tests := []struct {
		name  string
		zone  *time.Location
		slots []Slot
	}{
		{name: "nil zone", zone: nil, slots: []Slot{red}},
		{name: "empty", zone: time.UTC, slots: nil},
		{name: "no occurrences", zone: time.UTC, slots: []Slot{{ID: "blue"}}},
		{name: "blank id", zone: time.UTC, slots: []Slot{{ID: " ", Times: red.Times}}},
		{name: "duplicate", zone: time.UTC, slots: []Slot{red, {ID: "RED", Times: red.Times}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTimetable(tt.zone, tt.slots)
			var cfgErr *ConfigurationError
			require.Error(t, err)
			assert.True(t, errors.As(err, &cfgErr), "want *ConfigurationError, got %T", err)
		})
	}
}

func TestTimetableLookup(t *testing.T) {
	tt, err := DefaultTimetable()
	require.NoError(t, err)

	assert.Equal(t, 10, tt.Len())
	assert.Equal(t, DefaultZone, tt.Zone().String())
	assert.Equal(t, 8, tt.Index("RED"))
	assert.Equal(t, -1, tt.Index("mauve"))
	assert.Equal(t, "yellow", tt.Previous("red"))
	assert.Equal(t, "green", tt.Previous("black"))
	assert.Equal(t, "", tt.Previous("mauve"))

	slots := tt.Slots()
	slots[0].Times[0] = TimeOfDay{1, 1}
	assert.Equal(t, TimeOfDay{10, 30}, tt.Slots()[0].Times[0], "Slots must return a copy")
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("gold", "11:45", "00:15")
	require.NoError(t, err)
	assert.Equal(t, []TimeOfDay{{11, 45}, {0, 15}}, s.Times)

	_, err = ParseSlot("gold", "25:00")
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "gold", cfgErr.Slot)
}
