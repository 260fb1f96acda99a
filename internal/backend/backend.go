// Package backend holds the two narrow clients for the grow-box control
// service: a REST client used by the fan attribute and a D-Bus RPC client
// used by everything else.
package backend

import "context"

// Status is one snapshot of the controller state, fetched fresh on every
// read and never cached. The controller may change state between two reads.
type Status struct {
	Fan                 string  `json:"fan"`
	Light               float64 `json:"light"`
	Temperature         float64 `json:"temperature"`
	TemperatureSetpoint float64 `json:"temperature_setpoint"`
	Humidity            float64 `json:"humidity"`
	HumiditySetpoint    float64 `json:"humidity_setpoint"`
}

// Command is a single outbound control message. Name is the command verb;
// Args carries any extra fields next to it. No retry state is kept.
type Command struct {
	Name string
	Args map[string]any
}

// Client is the surface of the controller that attribute handlers call.
// Both transports implement it.
type Client interface {
	// Status fetches a fresh state snapshot.
	Status(ctx context.Context) (*Status, error)
	// Cmd submits one command. A nil error means the controller accepted it.
	Cmd(ctx context.Context, cmd Command) error
}
