package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/axlesim/axle/internal/influx"
	"github.com/axlesim/axle/internal/logging"
	"github.com/axlesim/axle/internal/model"
	"github.com/axlesim/axle/internal/registry"
	"github.com/axlesim/axle/internal/session"
	"github.com/axlesim/axle/internal/worker"
)

// PerformanceRecorder persists runner performance snapshots.
type PerformanceRecorder interface {
	RecordPerformance(p *model.RunnerPerformance) error
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	DB             *gorm.DB // for hypertable setup, may be nil
	LogManager     *logging.SlogManager
	SessionContext *session.Context
	WorkerManager  *worker.Manager
	TickCounter    *registry.SafeCounter
	Recorder       PerformanceRecorder // optional
	Influx         *influx.Manager     // optional
	StatusDir      string
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus returns the current program status
func (s *Service) GetProgramStatus(
	writeQueues bool,
	lastWrite bool,
	ticksPerSecond float32,
) (output []string, perfModel model.RunnerPerformance) {
	// Dispatcher buffer lengths are tracked via OTEL metrics, only the
	// storage write queues are reported here
	writeQueuesObj := s.deps.WorkerManager.GetQueueLengths()

	perfModel = model.RunnerPerformance{
		Time:                time.Now(),
		QueueLengths:        writeQueuesObj,
		LastWriteDurationMs: float32(s.deps.WorkerManager.GetLastDBWriteDuration().Milliseconds()),
		TicksPerSecond:      ticksPerSecond,
	}

	if writeQueues {
		writeQueuesStr, err := json.MarshalIndent(writeQueuesObj, "", "  ")
		if err != nil {
			writeQueuesStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		output = append(output, string(writeQueuesStr))
	}
	if lastWrite {
		lastWriteStr, err := json.MarshalIndent(perfModel.LastWriteDurationMs, "", "  ")
		if err != nil {
			lastWriteStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		output = append(output, string(lastWriteStr))
	}

	return output, perfModel
}

// ValidateHypertables validates and creates TimescaleDB hypertables
func (s *Service) ValidateHypertables(tables map[string][]string) error {
	logger := s.deps.LogManager.Logger()

	all := []any{}
	s.deps.DB.Exec(`SELECT x.* FROM timescaledb_information.hypertables`).Scan(&all)
	for _, row := range all {
		logger.Debug("Hypertable row", "row", fmt.Sprintf("%v", row))
	}

	for table := range tables {
		hypertable := any(nil)
		s.deps.DB.Exec(`SELECT x.* FROM timescaledb_information.hypertables WHERE hypertable_name = ?`, table).Scan(&hypertable)
		if hypertable != nil {
			logger.Info("Table is already configured as hypertable", "table", table)
			continue
		}

		queryCreateHypertable := fmt.Sprintf(`
				SELECT create_hypertable('%s', 'time', chunk_time_interval => interval '1 day', if_not_exists => true);
			`, table)
		err := s.deps.DB.Exec(queryCreateHypertable).Error
		if err != nil {
			logger.Error("Failed to create hypertable", "table", table, "error", err)
			return err
		}
		logger.Info("Created hypertable", "table", table)

		queryCompressHypertable := fmt.Sprintf(`
				ALTER TABLE %s SET (
					timescaledb.compress,
					timescaledb.compress_segmentby = ?);
			`, table)
		err = s.deps.DB.Exec(
			queryCompressHypertable,
			strings.Join(tables[table], ","),
		).Error
		if err != nil {
			logger.Error("Failed to enable compression", "table", table, "error", err)
			return err
		}
		logger.Info("Enabled hypertable compression", "table", table)

		queryCompressAfterHypertable := fmt.Sprintf(`
				SELECT add_compression_policy(
					'%s',
					compress_after => interval '14 day');
			`, table)
		err = s.deps.DB.Exec(queryCompressAfterHypertable).Error
		if err != nil {
			logger.Error("Failed to set compress_after", "table", table, "error", err)
			return err
		}
		logger.Info("Set compress_after", "table", table)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine")

		statusFile, err := os.Create(filepath.Join(s.deps.StatusDir, "status.txt"))
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer statusFile.Close()

		for {
			select {
			case <-s.stopChan:
				return
			default:
				time.Sleep(1000 * time.Millisecond)

				session := s.deps.SessionContext.GetSession()
				if session.ID == 0 {
					continue
				}

				// ticks handled since the last interval
				ticks := float32(s.deps.TickCounter.Value())
				s.deps.TickCounter.Set(0)

				statusStr, perfModel := s.GetProgramStatus(true, true, ticks)

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					for _, line := range statusStr {
						statusFile.WriteString(line + "\n")
					}
				}

				// RecordPerformance stamps the session ID before insert
				if s.deps.Recorder != nil {
					if err := s.deps.Recorder.RecordPerformance(&perfModel); err != nil {
						logger.Error("Error writing perf model to database", "error", err)
					}
				}

				if s.deps.Influx != nil {
					point := influx.PerformancePoint(&perfModel)
					if err := s.deps.Influx.WritePoint(context.Background(), influx.BucketPerformance, point); err != nil {
						logger.Warn("Error writing perf point to InfluxDB", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
