package packets

import (
	"time"

	"github.com/sunrise-labs/wakelink/internal/model"
)

type AlarmResponse struct {
	ID         string `json:"id"`
	Time       string `json:"time"`
	Label      string `json:"label"`
	Enabled    bool   `json:"enabled"`
	RepeatDays []int  `json:"repeat_days"`
	Intensity  int    `json:"intensity"`
	State      string `json:"state,omitempty"`
}

func NewAlarmResponse(a model.Alarm, state string) AlarmResponse {
	days := make([]int, 0, len(a.RepeatDays))
	for _, d := range a.RepeatDays {
		days = append(days, int(d))
	}
	return AlarmResponse{
		ID:         a.ID,
		Time:       a.Time.String(),
		Label:      a.Label,
		Enabled:    a.Enabled,
		RepeatDays: days,
		Intensity:  a.Intensity,
		State:      state,
	}
}

type AlarmEventResponse struct {
	ID        int    `json:"id"`
	AlarmID   string `json:"alarm_id"`
	Kind      string `json:"kind"`
	Command   string `json:"command"`
	Outcome   string `json:"outcome"`
	CreatedAt string `json:"created_at"`
}

func NewAlarmEventResponse(e model.AlarmEvent) AlarmEventResponse {
	return AlarmEventResponse{
		ID:        e.ID,
		AlarmID:   e.AlarmID,
		Kind:      e.Kind,
		Command:   e.Command,
		Outcome:   e.Outcome,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

type DispatchResponse struct {
	Sent    bool   `json:"sent"`
	Command string `json:"command"`
	Body    string `json:"body,omitempty"`
	Error   string `json:"error,omitempty"`
}
