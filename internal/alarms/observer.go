package alarms

import (
	"github.com/rs/zerolog/log"

	"github.com/sunrise-labs/wakelink/internal/dispatch"
	"github.com/sunrise-labs/wakelink/internal/model"
	"github.com/sunrise-labs/wakelink/internal/scheduler"
)

// onFiring runs on the control loop when a registered trigger reaches its
// instant. The key is resolved back to an alarm id; a trigger whose alarm was
// deleted after registration is dropped silently.
func (s *Service) onFiring(f scheduler.Firing) {
	id, ok := scheduler.ResolveAlarmID(f.Key)
	if !ok {
		log.Debug().Str("key", f.Key).Msg("unresolvable trigger key, dropping")
		return
	}
	a, exists := s.alarms[id]
	if !exists {
		log.Debug().Str("key", f.Key).Str("alarm_id", id).Msg("stale trigger for deleted alarm, dropping")
		return
	}

	s.states[id] = Firing

	// The local alert comes first and must succeed independent of
	// peripheral reachability.
	log.Info().
		Str("alarm_id", id).
		Str("label", a.Label).
		Int("intensity", a.Intensity).
		Time("at", f.At).
		Msg("alarm firing")
	if s.ann != nil {
		s.ann.AlarmFired(a, f.At)
	}
	s.recordEvent(model.AlarmEvent{
		AlarmID: id,
		Kind:    model.EventFired,
		Command: dispatch.CommandText(a.Intensity, dispatch.ActionTrigger, a.Label),
	})

	s.disp.SendTrigger(a, s.recordDispatch(id, "trigger"))

	// An unacknowledged alarm stays Firing until the user stops it; there
	// is deliberately no auto-off timeout.
}

// StopAlarm acknowledges a firing alarm: send OFF, disable, persist, and
// return the alarm to Disarmed.
func (s *Service) StopAlarm(id string) (model.Alarm, error) {
	var out model.Alarm
	err := s.do(func() error {
		a, exists := s.alarms[id]
		if !exists {
			return ErrNotFound
		}
		a.Enabled = false
		if err := s.persistWith(a); err != nil {
			return err
		}
		s.alarms[id] = a
		s.sched.Cancel(id)
		s.states[id] = Disarmed

		now := s.Now()
		log.Info().Str("alarm_id", id).Str("label", a.Label).Msg("alarm stopped")
		if s.ann != nil {
			s.ann.AlarmStopped(a, now)
		}
		s.recordEvent(model.AlarmEvent{
			AlarmID: id,
			Kind:    model.EventStopped,
			Command: dispatch.CommandText(a.Intensity, dispatch.ActionOff, a.Label),
		})

		s.disp.SendOff(a, s.recordDispatch(id, "off"))
		out = a
		return nil
	})
	return out, err
}

// recordDispatch builds the callback that logs and records one dispatch
// outcome. It runs on the dispatcher's goroutine (or inline on a link-down
// short-circuit) and touches only the event history, never alarm state, so it
// does not go through the task queue.
func (s *Service) recordDispatch(alarmID, command string) dispatch.Callback {
	return func(r dispatch.Result) {
		outcome := "ok"
		if r.Err != nil {
			outcome = r.Err.Error()
			log.Warn().Str("alarm_id", alarmID).Str("command", command).Err(r.Err).Msg("dispatch failed")
		}
		s.recordEvent(model.AlarmEvent{
			AlarmID: alarmID,
			Kind:    model.EventDispatch,
			Command: command,
			Outcome: outcome,
		})
	}
}

func (s *Service) recordEvent(e model.AlarmEvent) {
	if err := s.store.RecordEvent(e); err != nil {
		log.Warn().Err(err).Str("alarm_id", e.AlarmID).Str("kind", e.Kind).Msg("failed to record alarm event")
	}
}
