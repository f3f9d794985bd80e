// pkg/core/events.go
package core

import "time"

// EventKind identifies a simulation event type.
type EventKind string

// Event kinds fired by the vehicle core. Grounded and takeoff fire once
// per state edge; gearChange fires on a gear index change while powered.
const (
	EventGrounded   EventKind = "grounded"
	EventTakeoff    EventKind = "takeoff"
	EventGearChange EventKind = "gearChange"
)

// SimEvent is a one-shot state transition raised by the vehicle core.
type SimEvent struct {
	VehicleID uint16         `json:"vehicleId"`
	Kind      EventKind      `json:"kind"`
	Tick      uint64         `json:"tick"`
	SimTime   float64        `json:"simTime"`
	Time      time.Time      `json:"time"`
	Data      map[string]any `json:"data,omitempty"` // e.g. gear index on gearChange
}
