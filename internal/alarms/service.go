package alarms

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sunrise-labs/wakelink/internal/db"
	"github.com/sunrise-labs/wakelink/internal/dispatch"
	"github.com/sunrise-labs/wakelink/internal/model"
	"github.com/sunrise-labs/wakelink/internal/scheduler"
)

var (
	ErrNotFound = errors.New("alarm not found")
	ErrExists   = errors.New("alarm id already exists")
)

// State is the lifecycle state of an alarm's active trigger.
type State int

const (
	Disarmed State = iota
	Armed
	Firing
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Firing:
		return "firing"
	default:
		return "disarmed"
	}
}

// Scheduler is the trigger-registration port the service drives.
type Scheduler interface {
	Register(triggers ...scheduler.Trigger) error
	Cancel(alarmID string)
	Firings() <-chan scheduler.Firing
}

// Dispatcher is the peripheral-command port.
type Dispatcher interface {
	SendTrigger(a model.Alarm, cb dispatch.Callback) string
	SendOff(a model.Alarm, cb dispatch.Callback) string
	SendCommand(cmd model.Command, cb dispatch.Callback)
}

// Announcer publishes lifecycle events to interested external consumers.
// announce.Announcer satisfies it; a nil implementation is acceptable.
type Announcer interface {
	AlarmFired(alarm model.Alarm, at time.Time)
	AlarmStopped(alarm model.Alarm, at time.Time)
}

// Service owns the in-memory alarm set. Every mutation entry point — API
// handlers, trigger firings, dispatch completions, link transitions — funnels
// through one task queue consumed by a single goroutine, so alarm state needs
// no locking. Mutations persist the full set synchronously before the
// in-memory set changes; a failed write leaves everything as it was.
type Service struct {
	// Now is the clock; replaced in tests.
	Now func() time.Time

	// Links, when set before Run, delivers peripheral link transitions
	// into the control loop.
	Links <-chan dispatch.LinkState

	store db.Store
	slot  string
	sched Scheduler
	disp  Dispatcher
	ann   Announcer

	tasks  chan func()
	alarms map[string]model.Alarm
	states map[string]State
	cancel context.CancelFunc
}

func NewService(store db.Store, slot string, sched Scheduler, disp Dispatcher, ann Announcer) *Service {
	return &Service{
		Now:    time.Now,
		store:  store,
		slot:   slot,
		sched:  sched,
		disp:   disp,
		ann:    ann,
		tasks:  make(chan func()),
		alarms: make(map[string]model.Alarm),
		states: make(map[string]State),
		cancel: func() {},
	}
}

// Run loads the persisted alarm set, re-schedules every enabled alarm, and
// starts the control loop. It must be called before any operation.
func (s *Service) Run(ctx context.Context) error {
	loaded, err := s.store.LoadAlarmSet(s.slot)
	if err != nil {
		return fmt.Errorf("load alarm set: %w", err)
	}
	now := s.Now()
	for _, a := range loaded {
		a.Normalize()
		s.alarms[a.ID] = a
		s.states[a.ID] = Disarmed
		if !a.Enabled {
			continue
		}
		if err := s.sched.Register(scheduler.Plan(a, now)...); err != nil {
			// alarm stays enabled but unscheduled; next boot retries
			log.Error().Err(err).Str("alarm_id", a.ID).Msg("failed to schedule alarm at boot")
			continue
		}
		s.states[a.ID] = Armed
	}
	log.Info().Int("alarms", len(s.alarms)).Str("slot", s.slot).Msg("alarm set loaded")

	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
	return nil
}

func (s *Service) Stop() {
	s.cancel()
}

func (s *Service) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-s.tasks:
			task()
		case firing := <-s.sched.Firings():
			s.onFiring(firing)
		case state, ok := <-s.Links:
			if !ok {
				s.Links = nil
				continue
			}
			log.Info().Bool("up", state.Up).Time("checked_at", state.CheckedAt).Msg("peripheral link state changed")
		}
	}
}

// do runs fn on the control loop and waits for it.
func (s *Service) do(fn func() error) error {
	errc := make(chan error, 1)
	s.tasks <- func() { errc <- fn() }
	return <-errc
}

// enqueue runs fn on the control loop without waiting.
func (s *Service) enqueue(fn func()) {
	s.tasks <- fn
}

// Add stores a new alarm, schedules its triggers when enabled, and mirrors
// the mutation to the peripheral. A missing id is assigned a fresh UUID.
func (s *Service) Add(a model.Alarm) (model.Alarm, error) {
	var out model.Alarm
	err := s.do(func() error {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.Normalize()
		if err := a.Validate(); err != nil {
			return err
		}
		if _, exists := s.alarms[a.ID]; exists {
			return ErrExists
		}
		if err := s.persistWith(a); err != nil {
			return err
		}
		s.alarms[a.ID] = a
		s.reschedule(a)
		s.mirror(model.ActionAdd, a)
		out = a
		return nil
	})
	return out, err
}

// Update replaces an existing alarm. All previously-registered triggers for
// the id are cancelled before the new configuration is registered.
func (s *Service) Update(a model.Alarm) (model.Alarm, error) {
	var out model.Alarm
	err := s.do(func() error {
		a.Normalize()
		if err := a.Validate(); err != nil {
			return err
		}
		if _, exists := s.alarms[a.ID]; !exists {
			return ErrNotFound
		}
		if err := s.persistWith(a); err != nil {
			return err
		}
		s.alarms[a.ID] = a
		s.reschedule(a)
		s.mirror(model.ActionUpdate, a)
		out = a
		return nil
	})
	return out, err
}

// Delete removes the alarm and cancels all its triggers. A stale trigger for
// the id that fires later is dropped by the observer.
func (s *Service) Delete(id string) error {
	return s.do(func() error {
		a, exists := s.alarms[id]
		if !exists {
			return ErrNotFound
		}
		if err := s.persistWithout(id); err != nil {
			return err
		}
		delete(s.alarms, id)
		delete(s.states, id)
		s.sched.Cancel(id)
		s.mirror(model.ActionDelete, a)
		return nil
	})
}

// SetEnabled toggles the alarm. Disabling cancels every trigger; enabling
// registers a fresh plan.
func (s *Service) SetEnabled(id string, enabled bool) (model.Alarm, error) {
	var out model.Alarm
	err := s.do(func() error {
		a, exists := s.alarms[id]
		if !exists {
			return ErrNotFound
		}
		a.Enabled = enabled
		if err := s.persistWith(a); err != nil {
			return err
		}
		s.alarms[id] = a
		s.reschedule(a)
		s.mirror(model.ActionToggle, a)
		out = a
		return nil
	})
	return out, err
}

// Get returns one alarm and its lifecycle state.
func (s *Service) Get(id string) (model.Alarm, State, error) {
	var (
		out   model.Alarm
		state State
	)
	err := s.do(func() error {
		a, exists := s.alarms[id]
		if !exists {
			return ErrNotFound
		}
		out = a
		state = s.states[id]
		return nil
	})
	return out, state, err
}

// List returns the alarm set ordered by time of day, then label, then id.
func (s *Service) List() []model.Alarm {
	var out []model.Alarm
	_ = s.do(func() error {
		out = make([]model.Alarm, 0, len(s.alarms))
		for _, a := range s.alarms {
			out = append(out, a)
		}
		slices.SortFunc(out, func(x, y model.Alarm) int {
			if c := (x.Time.Hour*60 + x.Time.Minute) - (y.Time.Hour*60 + y.Time.Minute); c != 0 {
				return c
			}
			if c := strings.Compare(x.Label, y.Label); c != 0 {
				return c
			}
			return strings.Compare(x.ID, y.ID)
		})
		return nil
	})
	return out
}

// Events returns the firing/dispatch history for an alarm.
func (s *Service) Events(id string, limit int) ([]model.AlarmEvent, error) {
	return s.store.ListEventsByAlarm(id, limit)
}

// persistWith writes the current set with a added or replaced. The in-memory
// map is untouched until the write succeeds.
func (s *Service) persistWith(a model.Alarm) error {
	set := make([]model.Alarm, 0, len(s.alarms)+1)
	for id, existing := range s.alarms {
		if id == a.ID {
			continue
		}
		set = append(set, existing)
	}
	set = append(set, a)
	return s.store.SaveAlarmSet(s.slot, set)
}

func (s *Service) persistWithout(id string) error {
	set := make([]model.Alarm, 0, len(s.alarms))
	for existingID, existing := range s.alarms {
		if existingID == id {
			continue
		}
		set = append(set, existing)
	}
	return s.store.SaveAlarmSet(s.slot, set)
}

// reschedule cancels the alarm's previous triggers and registers the new
// plan. Cancellation always runs first so no stale trigger key survives a
// mutation.
func (s *Service) reschedule(a model.Alarm) {
	s.sched.Cancel(a.ID)
	s.states[a.ID] = Disarmed
	if !a.Enabled {
		return
	}
	if err := s.sched.Register(scheduler.Plan(a, s.Now())...); err != nil {
		log.Error().Err(err).Str("alarm_id", a.ID).Msg("failed to register triggers")
		return
	}
	s.states[a.ID] = Armed
}

// mirror forwards the mutation to the peripheral as a legacy JSON sync
// command. Fire-and-forget: the outcome only lands in the event history.
func (s *Service) mirror(action model.CommandAction, a model.Alarm) {
	cmd := model.NewCommand(action, a)
	s.disp.SendCommand(cmd, s.recordDispatch(a.ID, "sync "+string(action)))
}
