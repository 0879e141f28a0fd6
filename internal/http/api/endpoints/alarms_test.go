package endpoints_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunrise-labs/wakelink/internal/alarms"
	"github.com/sunrise-labs/wakelink/internal/dispatch"
	"github.com/sunrise-labs/wakelink/internal/http/api"
	"github.com/sunrise-labs/wakelink/internal/http/api/endpoints"
	"github.com/sunrise-labs/wakelink/internal/model"
	"github.com/sunrise-labs/wakelink/internal/scheduler"
)

type memStore struct {
	mu     sync.Mutex
	sets   map[string][]model.Alarm
	events []model.AlarmEvent
}

func (m *memStore) SaveAlarmSet(slot string, set []model.Alarm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[slot] = append([]model.Alarm(nil), set...)
	return nil
}

func (m *memStore) LoadAlarmSet(slot string) ([]model.Alarm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Alarm(nil), m.sets[slot]...), nil
}

func (m *memStore) RecordEvent(e model.AlarmEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memStore) ListEventsByAlarm(alarmID string, limit int) ([]model.AlarmEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AlarmEvent
	for _, e := range m.events {
		if e.AlarmID == alarmID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memSched struct {
	mu       sync.Mutex
	triggers map[string]scheduler.Trigger
	firings  chan scheduler.Firing
}

func (m *memSched) Register(triggers ...scheduler.Trigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range triggers {
		m.triggers[t.Key] = t
	}
	return nil
}

func (m *memSched) Cancel(alarmID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.triggers {
		if key == "alarm_"+alarmID || strings.HasPrefix(key, "alarm_"+alarmID+"_") {
			delete(m.triggers, key)
		}
	}
}

func (m *memSched) Firings() <-chan scheduler.Firing { return m.firings }

type noopDispatcher struct{}

func (noopDispatcher) SendTrigger(a model.Alarm, cb dispatch.Callback) string {
	cb(dispatch.Result{Body: "OK"})
	return dispatch.CommandText(a.Intensity, dispatch.ActionTrigger, a.Label)
}

func (noopDispatcher) SendOff(a model.Alarm, cb dispatch.Callback) string {
	cb(dispatch.Result{Body: "OK"})
	return dispatch.CommandText(a.Intensity, dispatch.ActionOff, a.Label)
}

func (noopDispatcher) SendCommand(cmd model.Command, cb dispatch.Callback) {
	cb(dispatch.Result{Body: `{"status": "success"}`})
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memStore{sets: make(map[string][]model.Alarm)}
	sched := &memSched{
		triggers: make(map[string]scheduler.Trigger),
		firings:  make(chan scheduler.Firing, 1),
	}
	service := alarms.NewService(store, "default", sched, noopDispatcher{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, service.Run(ctx))

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api"}, endpoints.AlarmModule(service))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndListAlarms(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/alarms", gin.H{
		"time":        "07:00",
		"label":       "Gym",
		"intensity":   5,
		"repeat_days": []int{1, 3, 5},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "07:00", created["time"])
	assert.Equal(t, true, created["enabled"])
	assert.Equal(t, "armed", created["state"])

	w = doJSON(t, r, http.MethodGet, "/api/alarms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Gym", list[0]["label"])
}

func TestCreateAlarmRejectsBadInput(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/alarms", gin.H{"time": "25:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/alarms", gin.H{"label": "no time"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/alarms", gin.H{"time": "07:00", "repeat_days": []int{8}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnableDisableAndDelete(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/alarms", gin.H{"time": "06:30", "label": "Run", "intensity": 3})
	require.Equal(t, http.StatusOK, w.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["id"].(string)

	w = doJSON(t, r, http.MethodPatch, "/api/alarms/"+id+"/enabled", gin.H{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, false, updated["enabled"])

	w = doJSON(t, r, http.MethodDelete, "/api/alarms/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/alarms/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStopUnknownAlarmIs404(t *testing.T) {
	r := setupRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/alarms/nope/stop", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
