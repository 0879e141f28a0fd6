package scheduler

import (
	"container/heap"
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
)

// Firing is emitted on the scheduler's channel when a registered trigger
// reaches its instant.
type Firing struct {
	Key     string
	AlarmID string
	At      time.Time
}

type opKind int

const (
	opRegister opKind = iota
	opCancel
	opKeys
)

type op struct {
	kind     opKind
	triggers []Trigger
	alarmID  string
	reply    chan []string
}

// Scheduler owns the registered trigger set and fires them from a single
// timer goroutine. Registration and cancellation funnel through the same
// loop, so there is no shared trigger state to lock.
type Scheduler struct {
	// Now is the clock; replaced in tests.
	Now func() time.Time

	ops     chan op
	firings chan Firing
	cancel  context.CancelFunc
}

const firingBuffer = 16

func New() *Scheduler {
	return &Scheduler{
		Now:     time.Now,
		ops:     make(chan op),
		firings: make(chan Firing, firingBuffer),
		cancel:  func() {},
	}
}

// Run starts the timer loop. The loop stops when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

func (s *Scheduler) Stop() {
	s.cancel()
}

// Firings returns the channel trigger firings are delivered on. A consumer
// that cannot keep up loses firings once the buffer fills; the control loop
// drains it continuously.
func (s *Scheduler) Firings() <-chan Firing {
	return s.firings
}

// Register validates the triggers and hands them to the timer loop. A trigger
// whose key is already registered is replaced.
func (s *Scheduler) Register(triggers ...Trigger) error {
	for _, t := range triggers {
		if t.Key == "" {
			return &ScheduleError{Key: t.Key, Reason: "empty trigger key"}
		}
		if t.Recurring && (t.Weekday < time.Sunday || t.Weekday > time.Saturday) {
			return &ScheduleError{Key: t.Key, Reason: "invalid weekday"}
		}
		if !t.Recurring && t.At.IsZero() {
			return &ScheduleError{Key: t.Key, Reason: "one-shot trigger without an instant"}
		}
	}
	s.ops <- op{kind: opRegister, triggers: triggers}
	return nil
}

// Cancel removes every trigger belonging to alarmID: the exact one-time key
// and all weekday-suffixed keys. Keys of other alarms are never touched, even
// when alarmID is a string prefix of their id.
func (s *Scheduler) Cancel(alarmID string) {
	s.ops <- op{kind: opCancel, alarmID: alarmID}
}

// Keys returns the sorted keys of all registered triggers.
func (s *Scheduler) Keys() []string {
	reply := make(chan []string, 1)
	s.ops <- op{kind: opKeys, reply: reply}
	return <-reply
}

type queueEntry struct {
	at  time.Time
	key string
}

type schedQueue []queueEntry

var _ heap.Interface = (*schedQueue)(nil)

func (q schedQueue) Len() int            { return len(q) }
func (q schedQueue) Less(i, j int) bool  { return q[i].at.Before(q[j].at) }
func (q schedQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *schedQueue) Push(x any)         { *q = append(*q, x.(queueEntry)) }
func (q *schedQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = queueEntry{}
	*q = old[:n-1]
	return it
}

const never = 1<<63 - 1

func (s *Scheduler) run(ctx context.Context) {
	registered := make(map[string]Trigger)
	var q schedQueue

	timer := time.NewTimer(never)
	timer.Stop()
	defer timer.Stop()

	rebuild := func() {
		now := s.Now()
		q = q[:0]
		for key, t := range registered {
			next := t.Next(now)
			if next.IsZero() {
				delete(registered, key)
				continue
			}
			q = append(q, queueEntry{at: next, key: key})
		}
		heap.Init(&q)

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if len(q) > 0 {
			timer.Reset(q[0].at.Sub(s.Now()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case o := <-s.ops:
			switch o.kind {
			case opRegister:
				for _, t := range o.triggers {
					registered[t.Key] = t
				}
			case opCancel:
				for key := range registered {
					if keyMatchesAlarm(key, o.alarmID) {
						delete(registered, key)
					}
				}
			case opKeys:
				keys := make([]string, 0, len(registered))
				for key := range registered {
					keys = append(keys, key)
				}
				slices.Sort(keys)
				o.reply <- keys
				continue
			}
			rebuild()

		case <-timer.C:
			if len(q) == 0 {
				continue
			}
			fire := &q[0]
			now := s.Now()
			if now.Before(fire.at) {
				// Timer drift. Sleep again.
				timer.Reset(fire.at.Sub(now))
				continue
			}

			at := fire.at
			key := fire.key
			t := registered[key]

			select {
			case s.firings <- Firing{Key: key, AlarmID: t.AlarmID, At: at}:
			default:
				log.Warn().Str("key", key).Msg("firing channel full, dropping trigger firing")
			}

			if next := t.Next(at.Add(time.Second)); !next.IsZero() {
				fire.at = next
				heap.Fix(&q, 0)
			} else {
				delete(registered, key)
				heap.Pop(&q)
			}

			if len(q) > 0 {
				timer.Reset(q[0].at.Sub(s.Now()))
			}
		}
	}
}
