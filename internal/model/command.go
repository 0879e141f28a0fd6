package model

// CommandAction discriminates the peripheral sync protocol variants.
type CommandAction string

const (
	ActionAdd     CommandAction = "add"
	ActionUpdate  CommandAction = "update"
	ActionDelete  CommandAction = "delete"
	ActionToggle  CommandAction = "toggle"
	ActionTrigger CommandAction = "trigger"
	ActionOff     CommandAction = "off"
)

// Command is the JSON body posted to the peripheral's /alarm endpoint when an
// alarm is mutated. The firmware only inspects action and enabled; the rest is
// carried for debugging on the serial console.
type Command struct {
	Action    CommandAction `json:"action"`
	AlarmID   string        `json:"alarm_id,omitempty"`
	Label     string        `json:"label,omitempty"`
	Enabled   bool          `json:"enabled"`
	Intensity int           `json:"intensity,omitempty"`
}

func NewCommand(action CommandAction, a Alarm) Command {
	return Command{
		Action:    action,
		AlarmID:   a.ID,
		Label:     a.Label,
		Enabled:   a.Enabled,
		Intensity: a.Intensity,
	}
}
