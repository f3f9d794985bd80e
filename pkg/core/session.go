// pkg/core/session.go
package core

import (
	"encoding/json"
	"time"
)

// SessionInfo describes one recorded simulation run.
type SessionInfo struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Scenario    string          `json:"scenario"`
	Track       string          `json:"track"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     time.Time       `json:"endTime,omitempty"`
	TickRate    int             `json:"tickRate"`
	VehicleSpec json.RawMessage `json:"vehicleSpec,omitempty"` // tuning profile snapshot
	Version     string          `json:"version"`               // recorder version
}

// TrackInfo describes the track a session ran on.
type TrackInfo struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Elevation float64 `json:"elevation"` // base ground height, m
	Surfaces  int     `json:"surfaces"`  // number of grip patches
}

// VehicleInfo is a vehicle registered into a session. RuntimeID is the
// session-scoped identifier tick and wheel records reference.
type VehicleInfo struct {
	ID        uint      `json:"id"` // storage identifier, assigned by the backend
	RuntimeID uint16    `json:"runtimeId"`
	Name      string    `json:"name"`
	JoinTime  time.Time `json:"joinTime"`
	JoinTick  uint64    `json:"joinTick"`
}

// UploadMetadata accompanies a session export uploaded to the dashboard.
type UploadMetadata struct {
	SessionName string  `json:"sessionName"`
	Scenario    string  `json:"scenario"`
	Track       string  `json:"track"`
	TickRate    int     `json:"tickRate"`
	Vehicles    int     `json:"vehicles"`
	DurationSec float64 `json:"durationSec"`
}
