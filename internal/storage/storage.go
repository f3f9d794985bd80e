package storage

import "github.com/axlesim/axle/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(session *core.SessionInfo, track *core.TrackInfo) error
	EndSession() error

	// Vehicle registration
	AddVehicle(v *core.VehicleInfo) error

	// State recording. A tick sample carries the body state and all four
	// wheel states for one vehicle at one tick.
	RecordTickSample(s *core.TickSample) error
	RecordEvent(e *core.SimEvent) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the review server.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
