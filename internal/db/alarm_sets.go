package db

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/sunrise-labs/wakelink/internal/model"
)

// SaveAlarmSet overwrites the named slot with the full alarm set as one JSON
// document. The upsert is a single statement, so a failed write leaves the
// previous document intact (all-or-nothing).
func (s *pgStore) SaveAlarmSet(slot string, alarms []model.Alarm) error {
	doc, err := json.Marshal(alarms)
	if err != nil {
		return &PersistenceError{Op: "marshal alarm set", Err: err}
	}
	const q = `
	INSERT INTO alarm_sets (slot, document, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (slot) DO UPDATE
	   SET document = EXCLUDED.document, updated_at = now();`
	if _, err := s.db.Exec(q, slot, doc); err != nil {
		log.Error().Err(err).Str("slot", slot).Msg("SaveAlarmSet failed")
		return &PersistenceError{Op: "save alarm set", Err: err}
	}
	return nil
}

// LoadAlarmSet returns the alarm set stored in the named slot. A missing slot
// is an empty set, not an error.
func (s *pgStore) LoadAlarmSet(slot string) ([]model.Alarm, error) {
	var doc []byte
	err := s.db.Get(&doc, `SELECT document FROM alarm_sets WHERE slot = $1;`, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Str("slot", slot).Msg("LoadAlarmSet failed")
		return nil, &PersistenceError{Op: "load alarm set", Err: err}
	}
	var alarms []model.Alarm
	if err := json.Unmarshal(doc, &alarms); err != nil {
		return nil, &PersistenceError{Op: "decode alarm set", Err: err}
	}
	return alarms, nil
}
