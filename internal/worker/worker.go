package worker

import (
	"fmt"
	"time"

	"github.com/axlesim/axle/internal/influx"
	"github.com/axlesim/axle/internal/logging"
	"github.com/axlesim/axle/internal/model"
	"github.com/axlesim/axle/internal/registry"
	"github.com/axlesim/axle/internal/session"
	"github.com/axlesim/axle/internal/storage"
)

// ErrTooEarlyForStateAssociation is returned when sample data arrives before the vehicle is registered
var ErrTooEarlyForStateAssociation = fmt.Errorf("too early for state association")

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Registry       *registry.VehicleRegistry
	LogManager     *logging.SlogManager
	SessionContext *session.Context
	Influx         *influx.Manager // optional live telemetry mirror
}

// Manager routes dispatched sim data into the storage backend
type Manager struct {
	deps    Dependencies
	backend storage.Backend
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}

// QueueLengthsProvider is an optional interface that backends can implement
// to expose their pending write-queue lengths for monitoring.
type QueueLengthsProvider interface {
	GetQueueLengths() model.QueueLengths
}

// GetQueueLengths returns the backend's pending write-queue lengths.
// Returns zeros if the backend writes through without buffering.
func (m *Manager) GetQueueLengths() model.QueueLengths {
	if p, ok := m.backend.(QueueLengthsProvider); ok {
		return p.GetQueueLengths()
	}
	return model.QueueLengths{}
}
