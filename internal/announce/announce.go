package announce

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/sunrise-labs/wakelink/internal/model"
)

// Announcer publishes alarm lifecycle events to an MQTT broker so other
// home-automation consumers can react to firings. It is optional: a nil
// *Announcer is a no-op, and announcement failures never affect the alarm
// path.
type Announcer struct {
	client mqtt.Client
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

func New(brokerURL, clientID string) (*Announcer, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &Announcer{client: client}, nil
}

type event struct {
	Event     string    `json:"event"`
	AlarmID   string    `json:"alarm_id"`
	Label     string    `json:"label"`
	Intensity int       `json:"intensity"`
	At        time.Time `json:"at"`
}

// AlarmFired announces a trigger firing.
func (a *Announcer) AlarmFired(alarm model.Alarm, at time.Time) {
	a.publish(event{Event: "fired", AlarmID: alarm.ID, Label: alarm.Label, Intensity: alarm.Intensity, At: at})
}

// AlarmStopped announces a user acknowledgement.
func (a *Announcer) AlarmStopped(alarm model.Alarm, at time.Time) {
	a.publish(event{Event: "stopped", AlarmID: alarm.ID, Label: alarm.Label, Intensity: alarm.Intensity, At: at})
}

func (a *Announcer) publish(e event) {
	if a == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	topic := fmt.Sprintf("wakelink/alarms/%s/events", e.AlarmID)
	token := a.client.Publish(topic, 1, false, payload)
	go func() {
		token.Wait()
		if token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("failed to publish alarm event")
		}
	}()
}

func (a *Announcer) Close() {
	if a == nil {
		return
	}
	a.client.Disconnect(250)
}
