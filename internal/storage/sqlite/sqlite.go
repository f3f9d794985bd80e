// Package sqlitestorage implements the storage.Backend interface using an
// in-memory SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend via composition; the only SQLite-specific
// concerns are (a) creating the in-memory DB, (b) the periodic disk dump,
// and (c) producing the dumped file for upload.
package sqlitestorage

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/axlesim/axle/internal/database"
	"github.com/axlesim/axle/internal/logging"
	"github.com/axlesim/axle/internal/model"
	"github.com/axlesim/axle/internal/session"
	gormstorage "github.com/axlesim/axle/internal/storage/gorm"
	"github.com/axlesim/axle/pkg/core"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db         *gorm.DB
	cfg        Config
	log        *logging.SlogManager
	sessionCtx *session.Context
	stopChan   chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, logManager *logging.SlogManager, sessionCtx *session.Context) (*Backend, error) {
	db, err := database.GetSqliteDBStandalone("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:             db,
		LogManager:     logManager,
		SessionContext: sessionCtx,
	})

	return &Backend{
		Backend:    gormBackend,
		db:         db,
		cfg:        cfg,
		log:        logManager,
		sessionCtx: sessionCtx,
		stopChan:   make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine and closes the embedded GORM backend.
func (b *Backend) Close() error {
	close(b.stopChan)
	return b.Backend.Close()
}

// EndSession flushes the embedded backend and writes a final disk dump so
// the exported file carries the complete session.
func (b *Backend) EndSession() error {
	if err := b.Backend.EndSession(); err != nil {
		return err
	}

	if b.cfg.DumpPath == "" {
		return nil
	}
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
		return fmt.Errorf("final dump failed: %w", err)
	}
	return nil
}

// GetExportedFilePath returns the path of the dumped database file.
func (b *Backend) GetExportedFilePath() string {
	return b.cfg.DumpPath
}

// GetExportMetadata describes the dumped session for upload.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	info := b.sessionCtx.GetSession()

	var vehicles int64
	b.db.Model(&model.Vehicle{}).Where("session_id = ?", info.ID).Count(&vehicles)

	var duration float64
	if info.TickRate > 0 {
		duration = float64(b.sessionCtx.Tick()) / float64(info.TickRate)
	}

	return core.UploadMetadata{
		SessionName: info.Name,
		Scenario:    info.Scenario,
		Track:       info.Track,
		TickRate:    info.TickRate,
		Vehicles:    int(vehicles),
		DurationSec: duration,
	}
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	log := b.log.Logger()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
				log.Error("Error dumping to disk", "error", err)
			} else {
				log.Debug("Dumped to disk", "duration", time.Since(start).String())
			}
		}
	}
}
