package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s.Run(ctx)
	return s
}

func TestSchedulerFiresOneShot(t *testing.T) {
	s := startScheduler(t)

	at := time.Now().Add(50 * time.Millisecond)
	require.NoError(t, s.Register(Trigger{Key: "alarm_x", AlarmID: "x", At: at}))

	select {
	case f := <-s.Firings():
		assert.Equal(t, "alarm_x", f.Key)
		assert.Equal(t, "x", f.AlarmID)
	case <-time.After(2 * time.Second):
		t.Fatal("trigger never fired")
	}

	// one-shot triggers are dropped after firing
	assert.Eventually(t, func() bool {
		return len(s.Keys()) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestSchedulerCancelRemovesAllAlarmKeys(t *testing.T) {
	s := startScheduler(t)

	far := time.Now().Add(time.Hour)
	require.NoError(t, s.Register(
		Trigger{Key: "alarm_abc", AlarmID: "abc", At: far},
		Trigger{Key: "alarm_abc-def", AlarmID: "abc-def", At: far},
	))
	require.ElementsMatch(t, []string{"alarm_abc", "alarm_abc-def"}, s.Keys())

	s.Cancel("abc")
	assert.Equal(t, []string{"alarm_abc-def"}, s.Keys(), "cancel must not touch an alarm whose id shares a string prefix")
}

func TestSchedulerCancelledTriggerDoesNotFire(t *testing.T) {
	s := startScheduler(t)

	require.NoError(t, s.Register(Trigger{Key: "alarm_x", AlarmID: "x", At: time.Now().Add(80 * time.Millisecond)}))
	s.Cancel("x")

	select {
	case f := <-s.Firings():
		t.Fatalf("cancelled trigger fired: %v", f)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSchedulerRegisterReplacesKey(t *testing.T) {
	s := startScheduler(t)

	far := time.Now().Add(time.Hour)
	require.NoError(t, s.Register(Trigger{Key: "alarm_x", AlarmID: "x", At: far}))
	require.NoError(t, s.Register(Trigger{Key: "alarm_x", AlarmID: "x", At: far.Add(time.Hour)}))
	assert.Equal(t, []string{"alarm_x"}, s.Keys())
}

func TestSchedulerRegisterValidation(t *testing.T) {
	s := startScheduler(t)

	err := s.Register(Trigger{Key: "", AlarmID: "x", At: time.Now().Add(time.Hour)})
	var schedErr *ScheduleError
	require.ErrorAs(t, err, &schedErr)

	err = s.Register(Trigger{Key: "alarm_x", AlarmID: "x"})
	require.ErrorAs(t, err, &schedErr, "one-shot trigger needs an instant")

	err = s.Register(Trigger{Key: "alarm_x_9", AlarmID: "x", Recurring: true, Weekday: time.Weekday(9)})
	require.ErrorAs(t, err, &schedErr)
}
