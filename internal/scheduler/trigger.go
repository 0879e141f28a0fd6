package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sunrise-labs/wakelink/internal/model"
)

const keyPrefix = "alarm_"

// OneTimeKey returns the trigger key for a one-time alarm.
func OneTimeKey(alarmID string) string {
	return keyPrefix + alarmID
}

// WeekdayKey returns the trigger key for one weekday of a repeating alarm.
func WeekdayKey(alarmID string, day time.Weekday) string {
	return fmt.Sprintf("%s%s_%d", keyPrefix, alarmID, day)
}

// ResolveAlarmID maps a trigger key back to its alarm id, stripping the
// "alarm_" prefix and, for repeating triggers, the trailing weekday suffix.
// Alarm ids are hyphenated UUIDs and never contain an underscore, so any
// underscore after the prefix separates the weekday.
func ResolveAlarmID(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok || rest == "" {
		return "", false
	}
	id, suffix, found := strings.Cut(rest, "_")
	if !found {
		return id, true
	}
	day, err := strconv.Atoi(suffix)
	if err != nil || day < 0 || day > 6 {
		return "", false
	}
	return id, id != ""
}

// keyMatchesAlarm reports whether key belongs to alarmID. The underscore
// delimiter keeps an alarm whose id is a string prefix of another id from
// matching the longer id's keys.
func keyMatchesAlarm(key, alarmID string) bool {
	exact := keyPrefix + alarmID
	return key == exact || strings.HasPrefix(key, exact+"_")
}

// Trigger is one registered point-in-time or weekly-recurring firing.
type Trigger struct {
	Key     string
	AlarmID string

	// One-shot instant; zero when Recurring.
	At time.Time

	// Weekly recurrence, valid when Recurring.
	Recurring bool
	Weekday   time.Weekday
	Time      model.TimeOfDay
}

// Next returns the trigger's next firing instant at or after now, or the zero
// time when the trigger is exhausted. An instant equal to now counts as not
// yet passed.
func (t Trigger) Next(now time.Time) time.Time {
	if !t.Recurring {
		if t.At.Before(now) {
			return time.Time{}
		}
		return t.At
	}
	ahead := (int(t.Weekday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day()+ahead,
		t.Time.Hour, t.Time.Minute, 0, 0, now.Location())
	if next.Before(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// Plan derives the triggers for an alarm: none when disabled, a single
// one-shot at the next occurrence of its time when RepeatDays is empty, and
// one indefinitely-recurring trigger per weekday otherwise.
func Plan(a model.Alarm, now time.Time) []Trigger {
	if !a.Enabled {
		return nil
	}
	if !a.Repeats() {
		return []Trigger{{
			Key:     OneTimeKey(a.ID),
			AlarmID: a.ID,
			At:      a.Time.NextFrom(now),
		}}
	}
	out := make([]Trigger, 0, len(a.RepeatDays))
	for _, day := range a.RepeatDays {
		out = append(out, Trigger{
			Key:       WeekdayKey(a.ID, day),
			AlarmID:   a.ID,
			Recurring: true,
			Weekday:   day,
			Time:      a.Time,
		})
	}
	return out
}

// ScheduleError reports a trigger that could not be registered. The alarm
// stays enabled but unscheduled; the next boot reconciliation re-registers it.
type ScheduleError struct {
	Key    string
	Reason string
}

func (e *ScheduleError) Error() string {
	return "schedule " + e.Key + ": " + e.Reason
}
