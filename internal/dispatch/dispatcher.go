package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sunrise-labs/wakelink/internal/model"
)

// Action is the trigger-protocol verb sent in the command text.
type Action string

const (
	ActionTrigger Action = "TRIGGER"
	ActionOff     Action = "OFF"
)

// CommandText builds the wire command exactly as the peripheral parses it:
// three space-joined fields, intensity first, label last.
func CommandText(intensity int, action Action, label string) string {
	return fmt.Sprintf("%d %s %s", intensity, action, label)
}

// Result is the outcome of one dispatch, delivered through a Callback.
type Result struct {
	Body string
	Err  *DispatchError
}

// Callback receives the dispatch outcome. It runs on the request goroutine
// (or inline on a link-down short-circuit); implementations that touch alarm
// state must hand off to the control loop.
type Callback func(Result)

// Dispatcher sends commands to the peripheral over its local HTTP link.
// Delivery is fire-and-forget and at-most-once: Send* never blocks the
// caller, there is no retry and no queue, and a down link resolves locally
// with NoConnection without touching the network.
type Dispatcher struct {
	base   *url.URL
	client *http.Client
	linkUp atomic.Bool
}

const DefaultTimeout = 5 * time.Second

func New(baseURL string, timeout time.Duration) (*Dispatcher, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &DispatchError{Kind: KindInvalidAddress, Err: fmt.Errorf("peripheral url %q: %w", baseURL, err)}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := &Dispatcher{
		base:   base,
		client: &http.Client{Timeout: timeout},
	}
	// pessimistic until the first successful probe
	d.linkUp.Store(false)
	return d, nil
}

func (d *Dispatcher) SetLinkUp(up bool) {
	d.linkUp.Store(up)
}

func (d *Dispatcher) LinkUp() bool {
	return d.linkUp.Load()
}

// SendTrigger dispatches "<intensity> TRIGGER <label>" for the alarm.
func (d *Dispatcher) SendTrigger(a model.Alarm, cb Callback) string {
	text := CommandText(a.Intensity, ActionTrigger, a.Label)
	d.SendMessage(text, cb)
	return text
}

// SendOff dispatches "<intensity> OFF <label>" for the alarm.
func (d *Dispatcher) SendOff(a model.Alarm, cb Callback) string {
	text := CommandText(a.Intensity, ActionOff, a.Label)
	d.SendMessage(text, cb)
	return text
}

// SendMessage issues GET <base>/?message=<urlencoded text>.
func (d *Dispatcher) SendMessage(text string, cb Callback) {
	if !d.LinkUp() {
		cb(Result{Err: &DispatchError{Kind: KindNoConnection, Err: fmt.Errorf("peripheral link is down")}})
		return
	}

	target := *d.base
	target.Path = "/"
	target.RawQuery = url.Values{"message": {text}}.Encode()

	go func() {
		resp, err := d.client.Get(target.String())
		if err != nil {
			cb(Result{Err: classify(err)})
			return
		}
		defer resp.Body.Close()
		cb(readResult(resp))
	}()
}

// SendCommand posts an alarm-sync Command as JSON to the peripheral's /alarm
// endpoint (legacy protocol, used to mirror mutations onto the device).
func (d *Dispatcher) SendCommand(cmd model.Command, cb Callback) {
	if !d.LinkUp() {
		cb(Result{Err: &DispatchError{Kind: KindNoConnection, Err: fmt.Errorf("peripheral link is down")}})
		return
	}

	body, err := json.Marshal(cmd)
	if err != nil {
		cb(Result{Err: &DispatchError{Kind: KindInvalidServerResponse, Err: err}})
		return
	}

	target := *d.base
	target.Path = "/alarm"
	target.RawQuery = ""

	go func() {
		resp, err := d.client.Post(target.String(), "application/json", bytes.NewReader(body))
		if err != nil {
			cb(Result{Err: classify(err)})
			return
		}
		defer resp.Body.Close()
		cb(readResult(resp))
	}()
}

func readResult(resp *http.Response) Result {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Err: &DispatchError{Kind: KindHTTPStatus, Status: resp.StatusCode}}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return Result{Err: &DispatchError{Kind: KindInvalidServerResponse, Err: err}}
	}
	log.Debug().Str("body", string(body)).Msg("peripheral responded")
	return Result{Body: string(body)}
}
