// Package inputinjection gives the receive path's Input/Control wire
// packets a destination. Whether these events should actually be injected
// into the host OS is left open: the Injector here always reports success
// without touching the platform, matching a deliberately unresolved design
// question rather than a production input-injection implementation.
package inputinjection

import (
	"encoding/json"
	"fmt"
)

// EventType names the kind of injected event.
type EventType string

const (
	EventMouseMove EventType = "mouse_move"
	EventMouseDown EventType = "mouse_down"
	EventMouseUp   EventType = "mouse_up"
	EventKeyDown   EventType = "key_down"
	EventKeyUp     EventType = "key_up"
)

// Event is the JSON payload carried inside a Control/Input WirePacket.
type Event struct {
	Type    EventType `json:"type"`
	X       int       `json:"x,omitempty"`
	Y       int       `json:"y,omitempty"`
	Button  int       `json:"button,omitempty"`
	Key     int       `json:"key,omitempty"`
	Enabled struct {
		Keyboard bool `json:"keyboard"`
		Mouse    bool `json:"mouse"`
		Gamepad  bool `json:"gamepad"`
	} `json:"-"`
}

// Injector is the capability the receive path drives when it reassembles
// an Input or Control kind WirePacket.
type Injector interface {
	Handle(Event) error
}

// NoopInjector accepts and validates every event but never touches the
// host platform — the always-succeed placeholder referenced by the
// pipeline's open design question on whether/how injection should happen.
type NoopInjector struct {
	KeyboardEnabled, MouseEnabled, GamepadEnabled bool
}

func (n *NoopInjector) Handle(e Event) error {
	switch e.Type {
	case EventMouseMove, EventMouseDown, EventMouseUp:
		if !n.MouseEnabled {
			return fmt.Errorf("inputinjection: mouse input disabled")
		}
	case EventKeyDown, EventKeyUp:
		if !n.KeyboardEnabled {
			return fmt.Errorf("inputinjection: keyboard input disabled")
		}
	default:
		return fmt.Errorf("inputinjection: unknown event type %q", e.Type)
	}
	return nil
}

// Decode parses a reassembled Control/Input payload into an Event.
func Decode(payload []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(payload, &e)
	return e, err
}

// Encode serializes an Event for transmission as a Control/Input payload.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

var _ Injector = (*NoopInjector)(nil)
