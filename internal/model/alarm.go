package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Alarm is a single wake-up alarm. IDs are hyphenated UUIDs assigned on
// creation and never change; the trigger key scheme relies on them containing
// no underscores.
type Alarm struct {
	ID         string         `json:"id"`
	Time       TimeOfDay      `json:"time"`
	Label      string         `json:"label"`
	Enabled    bool           `json:"enabled"`
	RepeatDays []time.Weekday `json:"repeat_days"`
	Intensity  int            `json:"intensity"`
}

// Repeats reports whether the alarm recurs weekly. An empty RepeatDays set
// means one-time: the alarm fires at the next occurrence of Time and is not
// re-armed afterwards.
func (a Alarm) Repeats() bool {
	return len(a.RepeatDays) > 0
}

// Normalize clamps Intensity into [1,10] and sorts/dedupes RepeatDays.
func (a *Alarm) Normalize() {
	if a.Intensity < 1 {
		a.Intensity = 1
	}
	if a.Intensity > 10 {
		a.Intensity = 10
	}
	if len(a.RepeatDays) > 0 {
		slices.Sort(a.RepeatDays)
		a.RepeatDays = slices.Compact(a.RepeatDays)
	}
}

func (a Alarm) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("alarm id is empty")
	}
	if strings.Contains(a.ID, "_") {
		return fmt.Errorf("alarm id %q contains an underscore", a.ID)
	}
	for _, d := range a.RepeatDays {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid weekday %d", d)
		}
	}
	return nil
}

// TimeOfDay is a wall-clock hour/minute, serialized as "HH:MM".
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return t, nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// NextFrom returns the next instant with this hour/minute at or after now.
// An instant strictly before now rolls forward one day; an instant equal to
// now (to the second) counts as not yet passed and fires today.
func (t TimeOfDay) NextFrom(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if next.Before(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
