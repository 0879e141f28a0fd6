package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// PeripheralStatus is the body of the peripheral's GET /status response.
type PeripheralStatus struct {
	Status       string `json:"status"`
	MotorRunning bool   `json:"motor_running"`
	MotorSpeed   int    `json:"motor_speed"`
}

// LinkState is one probe result.
type LinkState struct {
	Up        bool              `json:"up"`
	Status    *PeripheralStatus `json:"status,omitempty"`
	CheckedAt time.Time         `json:"checked_at"`
}

// LinkWatcher probes the peripheral's /status endpoint on an interval and
// keeps the dispatcher's link flag current. Up/down transitions are published
// on Updates; the watcher never touches alarm state itself. OnProbe, when
// set, observes every probe result (used to cache the last status for the
// API).
type LinkWatcher struct {
	OnProbe func(LinkState)

	dispatcher *Dispatcher
	interval   time.Duration
	updates    chan LinkState
	cancel     context.CancelFunc
}

const DefaultProbeInterval = 10 * time.Second

func NewLinkWatcher(d *Dispatcher, interval time.Duration) *LinkWatcher {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &LinkWatcher{
		dispatcher: d,
		interval:   interval,
		updates:    make(chan LinkState, 4),
		cancel:     func() {},
	}
}

// Updates delivers link up/down transitions, first probe included.
func (w *LinkWatcher) Updates() <-chan LinkState {
	return w.updates
}

func (w *LinkWatcher) Run(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
}

func (w *LinkWatcher) Stop() {
	w.cancel()
}

func (w *LinkWatcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var last *bool
	probe := func() {
		state := w.probe(ctx)
		w.dispatcher.SetLinkUp(state.Up)
		if w.OnProbe != nil {
			w.OnProbe(state)
		}
		if last == nil || *last != state.Up {
			up := state.Up
			last = &up
			if state.Up {
				log.Info().Msg("peripheral link up")
			} else {
				log.Warn().Msg("peripheral link down")
			}
			select {
			case w.updates <- state:
			default:
			}
		}
	}

	probe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}

func (w *LinkWatcher) probe(ctx context.Context) LinkState {
	state := LinkState{CheckedAt: time.Now()}

	target := *w.dispatcher.base
	target.Path = "/status"
	target.RawQuery = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return state
	}
	resp, err := w.dispatcher.client.Do(req)
	if err != nil {
		return state
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return state
	}

	var status PeripheralStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return state
	}
	state.Up = true
	state.Status = &status
	return state
}
