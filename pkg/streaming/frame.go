// Package streaming defines the JSON wire frames of the live telemetry
// feed. External consumers such as HUD overlays, audio pitch mapping or
// skidmark renderers read one frame per line and key off the frame type.
package streaming

import (
	"time"

	"github.com/axlesim/axle/pkg/core"
)

// Frame types.
const (
	FrameStart = "start"
	FrameTick  = "tick"
	FrameEvent = "event"
	FrameEnd   = "end"
)

// Frame is one message of the live feed. Tick frames carry the whole
// roster; event frames carry a single sim event; start and end frames
// bracket the session.
type Frame struct {
	Type     string         `json:"type"`
	Session  string         `json:"session"`
	Tick     uint64         `json:"tick"`
	Time     time.Time      `json:"time"`
	Vehicles []VehicleFrame `json:"vehicles,omitempty"`
	Event    *EventFrame    `json:"event,omitempty"`
}

// VehicleFrame is the per-vehicle telemetry surface of a tick frame.
type VehicleFrame struct {
	ID            uint16                   `json:"id"`
	SpeedKmh      float64                  `json:"speedKmh"`
	Gear          int                      `json:"gear"`
	DriftAngleDeg float64                  `json:"driftAngleDeg"`
	Grounded      bool                     `json:"grounded"`
	Skid          [core.WheelCount]float64 `json:"skid"`
	SpinRate      [core.WheelCount]float64 `json:"spinRate"`
}

// EventFrame carries one sim event.
type EventFrame struct {
	VehicleID uint16         `json:"vehicleId"`
	Kind      string         `json:"kind"`
	Data      map[string]any `json:"data,omitempty"`
}

// StartFrame announces the session to consumers.
func StartFrame(session string, at time.Time) Frame {
	return Frame{Type: FrameStart, Session: session, Time: at}
}

// EndFrame closes the feed.
func EndFrame(session string, tick uint64, at time.Time) Frame {
	return Frame{Type: FrameEnd, Session: session, Tick: tick, Time: at}
}

// TickFrame condenses one tick's samples into a frame. Sample order is
// preserved, so vehicles appear in runtime ID order.
func TickFrame(session string, tick uint64, at time.Time, samples []core.TickSample) Frame {
	f := Frame{
		Type:     FrameTick,
		Session:  session,
		Tick:     tick,
		Time:     at,
		Vehicles: make([]VehicleFrame, len(samples)),
	}
	for i, s := range samples {
		vf := VehicleFrame{
			ID:            s.VehicleID,
			SpeedKmh:      s.SpeedKmh,
			Gear:          s.Gear,
			DriftAngleDeg: s.DriftAngleDeg,
			Grounded:      s.Grounded,
		}
		for w, ws := range s.Wheels {
			vf.Skid[w] = ws.Skid
			vf.SpinRate[w] = ws.SpinRate
		}
		f.Vehicles[i] = vf
	}
	return f
}

// EventOf wraps a sim event for the feed.
func EventOf(session string, e core.SimEvent) Frame {
	return Frame{
		Type:    FrameEvent,
		Session: session,
		Tick:    e.Tick,
		Time:    e.Time,
		Event: &EventFrame{
			VehicleID: e.VehicleID,
			Kind:      string(e.Kind),
			Data:      e.Data,
		},
	}
}
