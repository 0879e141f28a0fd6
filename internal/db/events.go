package db

import (
	"github.com/rs/zerolog/log"

	"github.com/sunrise-labs/wakelink/internal/model"
)

func (s *pgStore) RecordEvent(event model.AlarmEvent) error {
	const q = `
	INSERT INTO alarm_events (alarm_id, kind, command, outcome, created_at)
	VALUES ($1, $2, $3, $4, now());`
	if _, err := s.db.Exec(q, event.AlarmID, event.Kind, event.Command, event.Outcome); err != nil {
		log.Error().Err(err).Str("alarm_id", event.AlarmID).Str("kind", event.Kind).Msg("RecordEvent failed")
		return &PersistenceError{Op: "record event", Err: err}
	}
	return nil
}

func (s *pgStore) ListEventsByAlarm(alarmID string, limit int) ([]model.AlarmEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []model.AlarmEvent
	const q = `
	SELECT id, alarm_id, kind, command, outcome, created_at
	  FROM alarm_events
	 WHERE alarm_id = $1
	 ORDER BY id DESC
	 LIMIT $2;`
	if err := s.db.Select(&out, q, alarmID, limit); err != nil {
		log.Error().Err(err).Str("alarm_id", alarmID).Msg("ListEventsByAlarm failed")
		return nil, err
	}
	return out, nil
}
