// Package gormstorage implements the storage.Backend interface on a GORM
// database handle with internal queues and a background DB writer goroutine.
// The postgres backend uses it directly; the sqlite backend wraps it.
package gormstorage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/axlesim/axle/internal/logging"
	"github.com/axlesim/axle/internal/model"
	"github.com/axlesim/axle/internal/model/convert"
	"github.com/axlesim/axle/internal/queue"
	"github.com/axlesim/axle/internal/session"
	"github.com/axlesim/axle/pkg/core"
)

// writeInterval is the cadence of the background queue drain.
const writeInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB             *gorm.DB
	LogManager     *logging.SlogManager
	SessionContext *session.Context
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Vehicles    *queue.Queue[model.Vehicle]
	TickStates  *queue.Queue[model.TickState]
	WheelStates *queue.Queue[model.WheelState]
	SimEvents   *queue.Queue[model.SimEvent]
}

func newQueues() *queues {
	return &queues{
		Vehicles:    queue.New[model.Vehicle](),
		TickStates:  queue.New[model.TickState](),
		WheelStates: queue.New[model.WheelState](),
		SimEvents:   queue.New[model.SimEvent](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Uint64
	stopChan  chan struct{}
	dbReady   bool

	mu                  sync.Mutex
	lastDBWriteDuration time.Duration
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{
		deps: deps,
	}
}

// Init creates internal queues, runs schema migration, and starts the DB
// writer goroutine. With no DB injected the backend runs queue-only, which
// the tests use.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})

	if b.deps.DB == nil {
		return nil
	}

	if err := b.setupDB(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.dbReady = true

	b.startDBWriters()
	return nil
}

// setupDB migrates tables and prepares database extensions.
func (b *Backend) setupDB() error {
	db := b.deps.DB
	log := b.deps.LogManager.Logger()

	if db.Name() == "postgres" {
		// Track anchors are stored as geometry
		if err := db.Exec(`CREATE Extension IF NOT EXISTS postgis;`).Error; err != nil {
			return fmt.Errorf("failed to create PostGIS Extension: %w", err)
		}
		log.Info("PostGIS Extension created")
	}

	log.Info("Migrating schema")
	var err error
	if db.Name() == "postgres" {
		err = db.AutoMigrate(model.DatabaseModels...)
	} else {
		err = db.AutoMigrate(model.DatabaseModelsSQLite...)
	}
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info("Database setup complete")
	return nil
}

// Close stops the DB writer goroutine and flushes remaining queue contents.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
	}
	if b.dbReady {
		b.writeAll()
	}
	return nil
}

// StartSession performs track get-or-insert and session create in the DB,
// then assigns the DB-generated IDs back to the core types.
func (b *Backend) StartSession(coreSession *core.SessionInfo, coreTrack *core.TrackInfo) error {
	if b.deps.DB == nil {
		return nil
	}

	gormTrack := convert.CoreToTrack(*coreTrack)
	if _, err := gormTrack.GetOrInsert(b.deps.DB); err != nil {
		return fmt.Errorf("failed to get or insert track: %w", err)
	}

	gormSession := convert.CoreToSession(*coreSession)
	gormSession.TrackID = gormTrack.ID
	if err := b.deps.DB.Create(&gormSession).Error; err != nil {
		return fmt.Errorf("failed to insert new session: %w", err)
	}

	coreSession.ID = gormSession.ID
	coreTrack.ID = gormTrack.ID

	// Store session ID for the DB writer goroutine
	b.sessionID.Store(uint64(gormSession.ID))

	return nil
}

// SetSessionID sets the current session ID for the DB writer (used by CLI tools).
func (b *Backend) SetSessionID(id uint) {
	b.sessionID.Store(uint64(id))
}

// EndSession drains the queues one final time and stamps the session end time.
func (b *Backend) EndSession() error {
	if !b.dbReady {
		return nil
	}

	b.writeAll()

	id := uint(b.sessionID.Load())
	if id == 0 {
		return nil
	}

	end := sql.NullTime{Time: time.Now(), Valid: true}
	if err := b.deps.DB.Model(&model.Session{}).Where("id = ?", id).Update("end_time", end).Error; err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

// AddVehicle converts a core vehicle to GORM and pushes to the write queue.
func (b *Backend) AddVehicle(v *core.VehicleInfo) error {
	gormObj := convert.CoreToVehicle(*v)
	b.queues.Vehicles.Push(gormObj)
	return nil
}

// RecordTickSample converts and queues the body row and the four wheel rows.
func (b *Backend) RecordTickSample(s *core.TickSample) error {
	at := b.tickTime(s.SimTime)
	b.queues.TickStates.Push(convert.CoreToTickState(*s, at))
	b.queues.WheelStates.Push(convert.CoreToWheelStates(*s, at)...)
	return nil
}

// RecordEvent converts and queues a sim event.
func (b *Backend) RecordEvent(e *core.SimEvent) error {
	gormObj := convert.CoreToSimEvent(*e)
	b.queues.SimEvents.Push(gormObj)
	return nil
}

// RecordPerformance inserts a runner performance row synchronously.
// Performance rows are low-volume, one per monitor interval.
func (b *Backend) RecordPerformance(perf *model.RunnerPerformance) error {
	if !b.dbReady {
		return nil
	}
	perf.SessionID = uint(b.sessionID.Load())
	return b.deps.DB.Create(perf).Error
}

// GetLastDBWriteDuration returns the duration of the last write cycle.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastDBWriteDuration
}

// GetQueueLengths reports the current write queue depths.
func (b *Backend) GetQueueLengths() model.QueueLengths {
	return model.QueueLengths{
		Ticks:       uint16(b.queues.TickStates.Len()),
		WheelStates: uint16(b.queues.WheelStates.Len()),
		Events:      uint16(b.queues.SimEvents.Len()),
	}
}

// tickTime derives the wall timestamp of a tick from the session start so
// batch runs faster than realtime still produce a usable timeline.
func (b *Backend) tickTime(simTime float64) time.Time {
	start := b.deps.SessionContext.GetSession().StartTime
	if start.IsZero() {
		return time.Now()
	}
	return start.Add(time.Duration(simTime * float64(time.Second)))
}

// writeQueue writes all items from a queue to the database in a transaction.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger, prepare func([]T), onSuccess func([]T)) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}
	if err := tx.Create(&items).Error; err != nil {
		log.Error("Error writing batch", "queue", name, "error", err)
		tx.Rollback()
		q.PushFront(items...)
		return
	}

	tx.Commit()
	if onSuccess != nil {
		onSuccess(items)
	}
}

// writeAll drains every queue into the DB once and records the cycle duration.
func (b *Backend) writeAll() {
	log := b.deps.LogManager.Logger()
	start := time.Now()

	// Read sessionID once per write cycle
	sessionID := uint(b.sessionID.Load())

	stampVehicles := func(items []model.Vehicle) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampTickStates := func(items []model.TickState) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampWheelStates := func(items []model.WheelState) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampSimEvents := func(items []model.SimEvent) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}

	// Vehicles first, states reference them
	writeQueue(b.deps.DB, b.queues.Vehicles, "vehicles", log, stampVehicles, nil)
	writeQueue(b.deps.DB, b.queues.TickStates, "tick states", log, stampTickStates, nil)
	writeQueue(b.deps.DB, b.queues.WheelStates, "wheel states", log, stampWheelStates, nil)
	writeQueue(b.deps.DB, b.queues.SimEvents, "sim events", log, stampSimEvents, nil)

	b.mu.Lock()
	b.lastDBWriteDuration = time.Since(start)
	b.mu.Unlock()
}

// startDBWriters starts the background goroutine that periodically drains queues into the DB.
func (b *Backend) startDBWriters() {
	go func() {
		for {
			select {
			case <-b.stopChan:
				return
			default:
			}

			if !b.dbReady {
				time.Sleep(1 * time.Second)
				continue
			}

			b.writeAll()
			time.Sleep(writeInterval)
		}
	}()
}
