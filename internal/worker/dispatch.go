package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/axlesim/axle/internal/dispatcher"
	"github.com/axlesim/axle/internal/influx"
	"github.com/axlesim/axle/pkg/core"
)

// Commands accepted by the worker. The sim loop dispatches these.
const (
	CmdSessionStart = ":SESSION:START:"
	CmdSessionEnd   = ":SESSION:END:"
	CmdNewVehicle   = ":NEW:VEHICLE:"
	CmdTick         = ":TICK:"
	CmdEvent        = ":EVENT:"
)

// SessionStart is the payload for the session start command
type SessionStart struct {
	Session *core.SessionInfo
	Track   *core.TrackInfo
}

// RegisterHandlers registers all event handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Session lifecycle - sync (storage must be ready before samples arrive)
	d.Register(CmdSessionStart, m.handleSessionStart, dispatcher.Logged())
	d.Register(CmdSessionEnd, m.handleSessionEnd, dispatcher.Logged())

	// Vehicle registration - sync (need to cache before samples arrive)
	d.Register(CmdNewVehicle, m.handleNewVehicle, dispatcher.Logged())

	// High-volume per-tick samples - buffered
	d.Register(CmdTick, m.handleTickSample, dispatcher.Buffered(10000), dispatcher.Logged())

	// Sim events - buffered
	d.Register(CmdEvent, m.handleSimEvent, dispatcher.Buffered(1000), dispatcher.Logged())
}

func (m *Manager) handleSessionStart(e dispatcher.Event) (any, error) {
	payload, ok := e.Payload.(SessionStart)
	if !ok {
		return nil, fmt.Errorf("unexpected session start payload %T", e.Payload)
	}
	if payload.Session == nil || payload.Track == nil {
		return nil, fmt.Errorf("session start requires a session and a track")
	}

	m.deps.Registry.Reset()

	// StartSession assigns DB IDs, so the context is set afterwards
	if err := m.backend.StartSession(payload.Session, payload.Track); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	m.deps.SessionContext.SetSession(payload.Session, payload.Track)

	m.deps.LogManager.Logger().Info("Session started",
		"name", payload.Session.Name,
		"track", payload.Track.Name,
		"tickRate", payload.Session.TickRate,
	)
	return nil, nil
}

func (m *Manager) handleSessionEnd(e dispatcher.Event) (any, error) {
	if err := m.backend.EndSession(); err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}

	m.deps.LogManager.Logger().Info("Session ended",
		"vehicles", m.deps.Registry.Count(),
		"lastTick", m.deps.SessionContext.Tick(),
	)
	return nil, nil
}

func (m *Manager) handleNewVehicle(e dispatcher.Event) (any, error) {
	v, ok := e.Payload.(*core.VehicleInfo)
	if !ok {
		return nil, fmt.Errorf("unexpected vehicle payload %T", e.Payload)
	}

	// Always cache for sample handler lookups
	m.deps.Registry.Add(*v)

	if err := m.backend.AddVehicle(v); err != nil {
		return nil, fmt.Errorf("failed to add vehicle: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleTickSample(e dispatcher.Event) (any, error) {
	s, ok := e.Payload.(core.TickSample)
	if !ok {
		return nil, fmt.Errorf("unexpected tick sample payload %T", e.Payload)
	}

	// Validate vehicle exists in registry
	if _, ok := m.deps.Registry.Get(s.VehicleID); !ok {
		return nil, ErrTooEarlyForStateAssociation
	}

	if err := m.backend.RecordTickSample(&s); err != nil {
		return nil, fmt.Errorf("failed to record tick sample: %w", err)
	}

	m.mirrorTickSample(&s)
	return nil, nil
}

// mirrorTickSample forwards a sample to InfluxDB for live dashboards.
func (m *Manager) mirrorTickSample(s *core.TickSample) {
	if m.deps.Influx == nil {
		return
	}

	session := m.deps.SessionContext.GetSession()
	at := m.tickWallTime(s.SimTime)
	ctx := context.Background()

	if err := m.deps.Influx.WritePoint(ctx, influx.BucketSimTicks, influx.TickSamplePoint(session.Name, s, at)); err != nil {
		m.deps.LogManager.Logger().Warn("Failed to mirror tick to InfluxDB", "error", err)
		return
	}
	for _, p := range influx.WheelSamplePoints(session.Name, s, at) {
		if err := m.deps.Influx.WritePoint(ctx, influx.BucketWheelTicks, p); err != nil {
			m.deps.LogManager.Logger().Warn("Failed to mirror wheel sample to InfluxDB", "error", err)
			return
		}
	}
}

// tickWallTime derives a wall timestamp from the sim time so batch runs
// faster than realtime still produce a usable timeline.
func (m *Manager) tickWallTime(simTime float64) time.Time {
	start := m.deps.SessionContext.GetSession().StartTime
	if start.IsZero() {
		return time.Now()
	}
	return start.Add(time.Duration(simTime * float64(time.Second)))
}

func (m *Manager) handleSimEvent(e dispatcher.Event) (any, error) {
	evt, ok := e.Payload.(core.SimEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected sim event payload %T", e.Payload)
	}

	if err := m.backend.RecordEvent(&evt); err != nil {
		return nil, fmt.Errorf("failed to record sim event: %w", err)
	}

	if m.deps.Influx != nil {
		session := m.deps.SessionContext.GetSession()
		if err := m.deps.Influx.WritePoint(context.Background(), influx.BucketSimEvents, influx.EventPoint(session.Name, &evt)); err != nil {
			m.deps.LogManager.Logger().Warn("Failed to mirror event to InfluxDB", "error", err)
		}
	}
	return nil, nil
}
