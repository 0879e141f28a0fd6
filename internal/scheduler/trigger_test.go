package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunrise-labs/wakelink/internal/model"
)

func TestTriggerKeys(t *testing.T) {
	assert.Equal(t, "alarm_abc-123", OneTimeKey("abc-123"))
	assert.Equal(t, "alarm_abc-123_3", WeekdayKey("abc-123", time.Wednesday))

	id, ok := ResolveAlarmID("alarm_abc-123")
	require.True(t, ok)
	assert.Equal(t, "abc-123", id)

	id, ok = ResolveAlarmID("alarm_abc-123_5")
	require.True(t, ok)
	assert.Equal(t, "abc-123", id)

	_, ok = ResolveAlarmID("alarm_abc-123_9")
	assert.False(t, ok)
	_, ok = ResolveAlarmID("alarm_abc-123_x")
	assert.False(t, ok)
	_, ok = ResolveAlarmID("something_else")
	assert.False(t, ok)
	_, ok = ResolveAlarmID("alarm_")
	assert.False(t, ok)
}

// an alarm id that is a string prefix of another id must never match the
// longer id's keys
func TestKeyMatchesAlarmPrefixGuard(t *testing.T) {
	assert.True(t, keyMatchesAlarm("alarm_abc", "abc"))
	assert.True(t, keyMatchesAlarm("alarm_abc_2", "abc"))
	assert.False(t, keyMatchesAlarm("alarm_abcd", "abc"))
	assert.False(t, keyMatchesAlarm("alarm_abc-def", "abc"))
	assert.False(t, keyMatchesAlarm("alarm_abc", "abc-def"))
}

func TestTriggerNextOneShot(t *testing.T) {
	now := time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)
	at := now.Add(time.Hour)

	tr := Trigger{Key: "alarm_x", AlarmID: "x", At: at}
	assert.Equal(t, at, tr.Next(now))
	assert.Equal(t, at, tr.Next(at), "instant equal to now counts as not yet passed")
	assert.True(t, tr.Next(at.Add(time.Second)).IsZero(), "exhausted after its instant")
}

func TestTriggerNextWeekly(t *testing.T) {
	// Tuesday 08:00
	now := time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)

	tr := Trigger{
		Key:       "alarm_x_3",
		AlarmID:   "x",
		Recurring: true,
		Weekday:   time.Wednesday,
		Time:      model.TimeOfDay{Hour: 7, Minute: 0},
	}

	next := tr.Next(now)
	assert.Equal(t, time.Date(2025, 3, 5, 7, 0, 0, 0, time.UTC), next)

	// same weekday, time already passed: a full week ahead
	tr.Weekday = time.Tuesday
	next = tr.Next(now)
	assert.Equal(t, time.Date(2025, 3, 11, 7, 0, 0, 0, time.UTC), next)

	// recurs indefinitely
	after := tr.Next(next.Add(time.Second))
	assert.Equal(t, next.AddDate(0, 0, 7), after)
}

func TestPlanDisabled(t *testing.T) {
	a := model.Alarm{ID: "x", Enabled: false, Time: model.TimeOfDay{Hour: 7}}
	assert.Empty(t, Plan(a, time.Now()))
}

func TestPlanOneTime(t *testing.T) {
	now := time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)

	t.Run("before the alarm time schedules today", func(t *testing.T) {
		a := model.Alarm{ID: "x", Enabled: true, Time: model.TimeOfDay{Hour: 9, Minute: 15}}
		triggers := Plan(a, now)
		require.Len(t, triggers, 1)
		assert.Equal(t, "alarm_x", triggers[0].Key)
		assert.False(t, triggers[0].Recurring)
		assert.Equal(t, time.Date(2025, 3, 4, 9, 15, 0, 0, time.UTC), triggers[0].At)
	})

	t.Run("after the alarm time schedules tomorrow", func(t *testing.T) {
		a := model.Alarm{ID: "x", Enabled: true, Time: model.TimeOfDay{Hour: 6, Minute: 30}}
		triggers := Plan(a, now)
		require.Len(t, triggers, 1)
		assert.Equal(t, time.Date(2025, 3, 5, 6, 30, 0, 0, time.UTC), triggers[0].At)
	})
}

// alarm {07:00, {Mon,Wed,Fri}, intensity 5, "Gym"} added on a Tuesday 08:00:
// exactly three recurring triggers, none firing before Wednesday 07:00
func TestPlanRepeatingGymScenario(t *testing.T) {
	now := time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC) // Tuesday

	a := model.Alarm{
		ID:         "gym",
		Enabled:    true,
		Time:       model.TimeOfDay{Hour: 7, Minute: 0},
		Label:      "Gym",
		Intensity:  5,
		RepeatDays: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	}

	triggers := Plan(a, now)
	require.Len(t, triggers, 3)

	keys := make(map[string]bool)
	earliest := time.Time{}
	for _, tr := range triggers {
		assert.True(t, tr.Recurring)
		keys[tr.Key] = true
		next := tr.Next(now)
		require.False(t, next.IsZero())
		if earliest.IsZero() || next.Before(earliest) {
			earliest = next
		}
	}
	assert.Equal(t, map[string]bool{
		"alarm_gym_1": true,
		"alarm_gym_3": true,
		"alarm_gym_5": true,
	}, keys)
	assert.Equal(t, time.Date(2025, 3, 5, 7, 0, 0, 0, time.UTC), earliest)
}
