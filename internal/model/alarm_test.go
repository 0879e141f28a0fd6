package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("07:05")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 7, Minute: 5}, tod)
	assert.Equal(t, "07:05", tod.String())

	_, err = ParseTimeOfDay("24:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("7")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("bedtime")
	assert.Error(t, err)
}

func TestTimeOfDayNextFrom(t *testing.T) {
	// Tuesday
	now := time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)

	t.Run("later today", func(t *testing.T) {
		next := TimeOfDay{Hour: 9, Minute: 30}.NextFrom(now)
		assert.Equal(t, time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC), next)
	})

	t.Run("already passed rolls to tomorrow", func(t *testing.T) {
		next := TimeOfDay{Hour: 7, Minute: 0}.NextFrom(now)
		assert.Equal(t, time.Date(2025, 3, 5, 7, 0, 0, 0, time.UTC), next)
	})

	t.Run("exactly now fires today", func(t *testing.T) {
		next := TimeOfDay{Hour: 8, Minute: 0}.NextFrom(now)
		assert.Equal(t, now, next)
	})
}

func TestAlarmNormalize(t *testing.T) {
	a := Alarm{
		ID:         "a1b2",
		Intensity:  42,
		RepeatDays: []time.Weekday{time.Friday, time.Monday, time.Monday},
	}
	a.Normalize()
	assert.Equal(t, 10, a.Intensity)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, a.RepeatDays)

	a.Intensity = -3
	a.Normalize()
	assert.Equal(t, 1, a.Intensity)
}

func TestAlarmValidate(t *testing.T) {
	a := Alarm{ID: "6f1c0d9e-1111-2222-3333-444455556666"}
	assert.NoError(t, a.Validate())

	a.ID = "bad_id"
	assert.Error(t, a.Validate())

	a = Alarm{ID: "ok", RepeatDays: []time.Weekday{time.Weekday(9)}}
	assert.Error(t, a.Validate())
}

// the persisted document must reproduce the alarm set exactly: ids, times to
// the minute, labels, flags, repeat sets, intensities
func TestAlarmSetJSONRoundTrip(t *testing.T) {
	set := []Alarm{
		{
			ID:        "6f1c0d9e-0000-0000-0000-000000000001",
			Time:      TimeOfDay{Hour: 7, Minute: 0},
			Label:     "Gym",
			Enabled:   true,
			Intensity: 5,
			RepeatDays: []time.Weekday{
				time.Monday, time.Wednesday, time.Friday,
			},
		},
		{
			ID:        "6f1c0d9e-0000-0000-0000-000000000002",
			Time:      TimeOfDay{Hour: 23, Minute: 59},
			Label:     "Meds",
			Enabled:   false,
			Intensity: 1,
		},
	}

	doc, err := json.Marshal(set)
	require.NoError(t, err)

	var loaded []Alarm
	require.NoError(t, json.Unmarshal(doc, &loaded))
	assert.Equal(t, set, loaded)
}
