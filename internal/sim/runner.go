// Package sim drives the fixed-timestep simulation loop. The runner owns the
// roster of vehicles, reads their controls from scenario timelines, steps and
// integrates each one and hands the resulting samples and events to the
// dispatcher. It also emits the session lifecycle commands, so a complete run
// is a single Run call.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/axlesim/axle/internal/channel"
	"github.com/axlesim/axle/internal/config"
	"github.com/axlesim/axle/internal/dispatcher"
	"github.com/axlesim/axle/internal/logging"
	"github.com/axlesim/axle/internal/phys"
	"github.com/axlesim/axle/internal/registry"
	"github.com/axlesim/axle/internal/scenario"
	"github.com/axlesim/axle/internal/session"
	"github.com/axlesim/axle/internal/vehicle"
	"github.com/axlesim/axle/internal/worker"
	"github.com/axlesim/axle/pkg/core"
	"github.com/axlesim/axle/pkg/streaming"
)

// Dependencies holds all dependencies for the runner
type Dependencies struct {
	Dispatcher     *dispatcher.Dispatcher
	LogManager     *logging.SlogManager
	SessionContext *session.Context
	TickCounter    *registry.SafeCounter           // monitor samples and resets this once a second
	Feed           channel.Sender[streaming.Frame] // optional live frame feed, slow consumers drop frames
}

// Config holds the per-run settings of the loop.
type Config struct {
	SessionName string          // empty falls back to the scenario name
	TickRate    int             // fixed steps per second
	Realtime    bool            // pace ticks against the wall clock instead of free-running
	Duration    float64         // sim seconds to run; 0 falls back to the scenario duration
	VehicleSpec json.RawMessage // tuning snapshot stored with the session
	Version     string
}

// Runner executes one session: spawn, tick, shutdown.
type Runner struct {
	deps  Dependencies
	cfg   Config
	world phys.World
	track core.TrackInfo

	scenarioName string
	duration     float64
	entries      []entry
}

type entry struct {
	vehicle  *vehicle.Vehicle
	timeline scenario.Timeline
}

// New creates a runner for the given world. The track info is forwarded to
// storage on session start.
func New(deps Dependencies, cfg Config, world phys.World, track core.TrackInfo) (*Runner, error) {
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("runner requires a dispatcher")
	}
	if deps.LogManager == nil {
		return nil, fmt.Errorf("runner requires a log manager")
	}
	if deps.SessionContext == nil {
		return nil, fmt.Errorf("runner requires a session context")
	}
	if world == nil {
		return nil, fmt.Errorf("runner requires a world")
	}
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("tick rate %d must be positive", cfg.TickRate)
	}
	if deps.TickCounter == nil {
		deps.TickCounter = &registry.SafeCounter{}
	}
	return &Runner{
		deps:     deps,
		cfg:      cfg,
		world:    world,
		track:    track,
		duration: cfg.Duration,
	}, nil
}

// Spawn builds one rigid body and vehicle per scenario entry and adds them to
// the roster. Runtime IDs are assigned in roster order starting at 1.
func (r *Runner) Spawn(sc *scenario.Scenario, vcfg vehicle.Config, bcfg config.BodyConfig) error {
	for _, ve := range sc.Vehicles {
		body := phys.NewBody(bcfg.Mass, bcfg.HalfExtents)
		body.SetPosition(ve.Start.Position)
		body.SetOrientation(ve.Start.Orientation())

		id := uint16(len(r.entries) + 1)
		v, err := vehicle.New(id, ve.Name, vcfg, body, r.world, r.sink)
		if err != nil {
			return fmt.Errorf("spawn %q: %w", ve.Name, err)
		}
		r.entries = append(r.entries, entry{vehicle: v, timeline: ve.Timeline})
	}

	r.scenarioName = sc.Name
	if r.cfg.SessionName == "" {
		r.cfg.SessionName = sc.Name
	}
	if r.duration == 0 {
		r.duration = sc.Duration
	}
	return nil
}

// Vehicles returns the spawned roster in runtime ID order.
func (r *Runner) Vehicles() []*vehicle.Vehicle {
	out := make([]*vehicle.Vehicle, len(r.entries))
	for i := range r.entries {
		out[i] = r.entries[i].vehicle
	}
	return out
}

// Run executes the session until the duration elapses or ctx is cancelled.
// A zero duration runs until cancellation.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.entries) == 0 {
		return fmt.Errorf("no vehicles spawned")
	}
	if err := r.startSession(); err != nil {
		return err
	}

	log := r.deps.LogManager.Logger()
	dt := 1.0 / float64(r.cfg.TickRate)
	totalTicks := uint64(math.Ceil(r.duration * float64(r.cfg.TickRate)))
	log.Info("Simulation started",
		"vehicles", len(r.entries),
		"tickRate", r.cfg.TickRate,
		"realtime", r.cfg.Realtime,
		"durationSec", r.duration,
	)

	var ticker *time.Ticker
	if r.cfg.Realtime {
		ticker = time.NewTicker(time.Duration(dt * float64(time.Second)))
		defer ticker.Stop()
	}

	var tick uint64
loop:
	for totalTicks == 0 || tick < totalTicks {
		if ticker != nil {
			select {
			case <-ctx.Done():
				log.Info("Simulation interrupted", "tick", tick)
				break loop
			case <-ticker.C:
			}
		} else {
			select {
			case <-ctx.Done():
				log.Info("Simulation interrupted", "tick", tick)
				break loop
			default:
			}
		}
		tick++
		r.step(tick, dt)
	}

	return r.endSession(tick)
}

// step advances every vehicle by one fixed timestep. Controls are read at the
// start of the frame, forces accumulate during the vehicle step and the body
// integration applies them together with gravity.
func (r *Runner) step(tick uint64, dt float64) {
	at := float64(tick-1) * dt
	gravity := r.world.Gravity()
	samples := make([]core.TickSample, 0, len(r.entries))
	for i := range r.entries {
		en := &r.entries[i]
		sample := en.vehicle.Step(en.timeline.ControlsAt(at), dt)
		en.vehicle.Body().Integrate(dt, gravity)
		r.publish(sample)
		samples = append(samples, sample)
	}
	if r.deps.Feed != nil {
		r.deps.Feed.TrySend(streaming.TickFrame(r.cfg.SessionName, tick, time.Now(), samples))
	}
	r.deps.SessionContext.SetTick(tick)
	r.deps.TickCounter.Inc()
}

func (r *Runner) publish(s core.TickSample) {
	if _, err := r.deps.Dispatcher.Dispatch(dispatcher.Event{
		Command:   worker.CmdTick,
		Payload:   s,
		Timestamp: time.Now(),
	}); err != nil {
		r.deps.LogManager.Logger().Error("Error dispatching tick sample", "vehicle", s.VehicleID, "error", err)
	}
}

// sink forwards vehicle events to the dispatcher and the live feed.
// Vehicles call it while flushing at the end of their step.
func (r *Runner) sink(e core.SimEvent) {
	if _, err := r.deps.Dispatcher.Dispatch(dispatcher.Event{
		Command:   worker.CmdEvent,
		Payload:   e,
		Timestamp: time.Now(),
	}); err != nil {
		r.deps.LogManager.Logger().Error("Error dispatching sim event", "kind", string(e.Kind), "error", err)
	}
	if r.deps.Feed != nil {
		r.deps.Feed.TrySend(streaming.EventOf(r.cfg.SessionName, e))
	}
}

// startSession announces the session and the roster. Both commands are
// synchronous, so storage is ready before the first tick sample arrives.
func (r *Runner) startSession() error {
	info := &core.SessionInfo{
		Name:        r.cfg.SessionName,
		Scenario:    r.scenarioName,
		Track:       r.track.Name,
		StartTime:   time.Now(),
		TickRate:    r.cfg.TickRate,
		VehicleSpec: r.cfg.VehicleSpec,
		Version:     r.cfg.Version,
	}
	track := r.track
	if _, err := r.deps.Dispatcher.Dispatch(dispatcher.Event{
		Command:   worker.CmdSessionStart,
		Payload:   worker.SessionStart{Session: info, Track: &track},
		Timestamp: time.Now(),
	}); err != nil {
		return fmt.Errorf("session start: %w", err)
	}

	now := time.Now()
	for _, en := range r.entries {
		if _, err := r.deps.Dispatcher.Dispatch(dispatcher.Event{
			Command: worker.CmdNewVehicle,
			Payload: &core.VehicleInfo{
				RuntimeID: en.vehicle.ID(),
				Name:      en.vehicle.Name(),
				JoinTime:  now,
				JoinTick:  0,
			},
			Timestamp: now,
		}); err != nil {
			return fmt.Errorf("register vehicle %q: %w", en.vehicle.Name(), err)
		}
	}

	if r.deps.Feed != nil {
		r.deps.Feed.TrySend(streaming.StartFrame(r.cfg.SessionName, info.StartTime))
	}
	return nil
}

func (r *Runner) endSession(lastTick uint64) error {
	// The tick and event handlers are buffered; let them work off their
	// queues so the closing flush sees every sample. A fresh context keeps
	// the drain alive after an interrupt.
	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.deps.Dispatcher.Drain(drainCtx); err != nil {
		r.deps.LogManager.Logger().Error("Error draining dispatcher queues", "error", err)
	}

	if _, err := r.deps.Dispatcher.Dispatch(dispatcher.Event{
		Command:   worker.CmdSessionEnd,
		Timestamp: time.Now(),
	}); err != nil {
		return fmt.Errorf("session end: %w", err)
	}
	if r.deps.Feed != nil {
		r.deps.Feed.TrySend(streaming.EndFrame(r.cfg.SessionName, lastTick, time.Now()))
	}
	r.deps.LogManager.Logger().Info("Simulation finished", "ticks", lastTick)
	return nil
}
