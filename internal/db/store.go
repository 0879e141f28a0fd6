// exposes a Store interface that is passed to the service and API layers
package db

import (
	"github.com/jmoiron/sqlx"

	"github.com/sunrise-labs/wakelink/internal/model"
)

type Store interface {
	// alarm set persistence (single named slot, full overwrite)
	SaveAlarmSet(slot string, alarms []model.Alarm) error
	LoadAlarmSet(slot string) ([]model.Alarm, error)

	// firing/dispatch history
	RecordEvent(event model.AlarmEvent) error
	ListEventsByAlarm(alarmID string, limit int) ([]model.AlarmEvent, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(database *sqlx.DB) Store {
	if database == nil {
		database = DB
	}
	return &pgStore{db: database}
}
