// Package memory implements the storage.Backend interface entirely in
// memory, exporting the finished session as a JSON document for replay.
package memory

import (
	"fmt"
	"sync"

	"github.com/axlesim/axle/internal/config"
	"github.com/axlesim/axle/pkg/core"
)

// VehicleRecord groups a vehicle with all its time-series samples
type VehicleRecord struct {
	Vehicle core.VehicleInfo
	Samples []core.TickSample
}

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *core.SessionInfo
	track   *core.TrackInfo

	vehicles map[uint16]*VehicleRecord // keyed by RuntimeID
	events   []core.SimEvent

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:      cfg,
		vehicles: make(map[uint16]*VehicleRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(session *core.SessionInfo, track *core.TrackInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = session
	b.track = track

	// Reset all collections
	b.vehicles = make(map[uint16]*VehicleRecord)
	b.events = nil
	b.lastExportPath = ""

	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return fmt.Errorf("no session to end")
	}
	return b.exportJSON()
}

// AddVehicle registers a new vehicle
func (b *Backend) AddVehicle(v *core.VehicleInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.vehicles[v.RuntimeID] = &VehicleRecord{
		Vehicle: *v,
		Samples: make([]core.TickSample, 0),
	}
	return nil
}

// RecordTickSample records one tick of body and wheel state for a vehicle
func (b *Backend) RecordTickSample(s *core.TickSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if record, ok := b.vehicles[s.VehicleID]; ok {
		record.Samples = append(record.Samples, *s)
	}
	// silently ignore samples for unknown vehicles
	return nil
}

// RecordEvent records a simulation event
func (b *Backend) RecordEvent(e *core.SimEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, *e)
	return nil
}
