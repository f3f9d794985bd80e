// Package convert provides functions to convert core samples into GORM models
package convert

import (
	"encoding/json"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/axlesim/axle/internal/model"
	"github.com/axlesim/axle/pkg/core"
)

// locationToPoint converts a WGS84 anchor to a geom.Point with elevation
func locationToPoint(longitude, latitude, elevation float64) geom.Point {
	coords := geom.Coordinates{XY: geom.XY{X: longitude, Y: latitude}, Z: elevation}
	return geom.NewPoint(coords)
}

// positionToEmbedded converts a core.Position3D to the embedded column struct
func positionToEmbedded(p core.Position3D) model.Position {
	return model.Position{X: p.X, Y: p.Y, Z: p.Z}
}

// dataToJSON converts event payload data to datatypes.JSON for DB storage.
func dataToJSON(data map[string]any) datatypes.JSON {
	if len(data) == 0 {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

// CoreToTrack converts a core.TrackInfo to a GORM model.Track.
func CoreToTrack(t core.TrackInfo) model.Track {
	return model.Track{
		Name:      t.Name,
		Latitude:  t.Latitude,
		Longitude: t.Longitude,
		Elevation: t.Elevation,
		Location:  locationToPoint(t.Longitude, t.Latitude, t.Elevation),
		Surfaces:  t.Surfaces,
	}
}

// CoreToSession converts a core.SessionInfo to a GORM model.Session.
// The caller wires TrackID after the track row is resolved.
func CoreToSession(s core.SessionInfo) model.Session {
	var spec datatypes.JSON
	if len(s.VehicleSpec) > 0 {
		spec = datatypes.JSON(s.VehicleSpec)
	} else {
		spec = datatypes.JSON("{}")
	}

	return model.Session{
		Name:        s.Name,
		Scenario:    s.Scenario,
		StartTime:   s.StartTime,
		TickRate:    s.TickRate,
		VehicleSpec: spec,
		Version:     s.Version,
	}
}

// CoreToVehicle converts a core.VehicleInfo to a GORM model.Vehicle.
// core.VehicleInfo.RuntimeID maps to GORM Vehicle.RuntimeID; the caller
// assigns SessionID.
func CoreToVehicle(v core.VehicleInfo) model.Vehicle {
	return model.Vehicle{
		RuntimeID: v.RuntimeID,
		JoinTime:  v.JoinTime,
		JoinTick:  v.JoinTick,
		Name:      v.Name,
	}
}

// CoreToTickState converts a core.TickSample to a GORM model.TickState.
// at is the wall timestamp of the tick; the caller assigns SessionID.
func CoreToTickState(s core.TickSample, at time.Time) model.TickState {
	return model.TickState{
		Time:             at,
		Tick:             s.Tick,
		VehicleRuntimeID: s.VehicleID,
		SimTime:          s.SimTime,
		Position:         positionToEmbedded(s.Position),
		Velocity:         positionToEmbedded(s.Velocity),
		SpeedKmh:         float32(s.SpeedKmh),
		Gear:             uint8(s.Gear),
		DriftAngleDeg:    float32(s.DriftAngleDeg),
		GroundedWheels:   uint8(s.GroundedWheels),
		Grounded:         s.Grounded,
		PitchDeg:         float32(s.PitchDeg),
		RollDeg:          float32(s.RollDeg),
	}
}

// CoreToWheelStates converts the wheel array of a core.TickSample into one
// GORM model.WheelState row per wheel, in wheel index order.
func CoreToWheelStates(s core.TickSample, at time.Time) []model.WheelState {
	rows := make([]model.WheelState, 0, core.WheelCount)
	for i, w := range s.Wheels {
		rows = append(rows, model.WheelState{
			Time:             at,
			Tick:             s.Tick,
			VehicleRuntimeID: s.VehicleID,
			WheelIndex:       uint8(i),
			Grounded:         w.Grounded,
			Offset:           float32(w.Offset),
			LateralSlip:      float32(w.LateralSlip),
			ForwardSlip:      float32(w.ForwardSlip),
			Skid:             float32(w.Skid),
			Force:            float32(w.Force),
			SteerDeg:         float32(w.SteerDeg),
			SpinRate:         float32(w.SpinRate),
			Drop:             float32(w.Drop),
		})
	}
	return rows
}

// CoreToSimEvent converts a core.SimEvent to a GORM model.SimEvent.
func CoreToSimEvent(e core.SimEvent) model.SimEvent {
	return model.SimEvent{
		Time:             e.Time,
		Tick:             e.Tick,
		VehicleRuntimeID: e.VehicleID,
		Kind:             string(e.Kind),
		SimTime:          e.SimTime,
		Data:             dataToJSON(e.Data),
	}
}
