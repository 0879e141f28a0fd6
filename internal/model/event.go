package model

import "time"

// AlarmEvent kinds recorded in the history table.
const (
	EventFired    = "fired"
	EventStopped  = "stopped"
	EventDispatch = "dispatch"
)

// AlarmEvent is one row of the firing/dispatch audit trail.
type AlarmEvent struct {
	ID        int       `db:"id" json:"id"`
	AlarmID   string    `db:"alarm_id" json:"alarm_id"`
	Kind      string    `db:"kind" json:"kind"`
	Command   string    `db:"command" json:"command"`
	Outcome   string    `db:"outcome" json:"outcome"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
