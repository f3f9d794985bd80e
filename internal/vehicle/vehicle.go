// Package vehicle implements the per-wheel arcade vehicle model: suspension
// spring-damper with grounding detection, slip-curve tire friction, Ackermann
// steering, velocity-delta drive and braking, a gear state machine with shift
// lockout, and the visual feedback signals (wheel pose, spin, skid, body
// tilt) consumed by presentation layers.
//
// The whole tick is synchronous and order sensitive: steering, then all four
// suspensions, then the grounded aggregate, then drive and tilt when
// grounded, then all four frictions, the gear update and the visual pass.
// Wheel order is always front-left, front-right, rear-left, rear-right.
package vehicle

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/axlesim/axle/internal/phys"
	"github.com/axlesim/axle/pkg/core"
)

var (
	// ErrNoBody is returned by New when the rigid body collaborator is missing.
	ErrNoBody = errors.New("vehicle: rigid body is required")
	// ErrNoWorld is returned by New when the world query collaborator is missing.
	ErrNoWorld = errors.New("vehicle: world is required")
)

// EventSink receives simulation events as they fire at the end of a tick.
// A nil sink drops events.
type EventSink func(core.SimEvent)

// Vehicle is one simulated car. It exclusively owns its rigid body during
// Step; no other writer may touch the body between Step and the following
// integration.
type Vehicle struct {
	id   uint16
	name string

	cfg   Config
	body  *phys.Body
	world phys.World
	sink  EventSink

	wheels [core.WheelCount]wheel

	wheelBase float64
	rearTrack float64

	grounded      bool
	groundedCount int
	driftAngleDeg float64

	gear          int
	canAccelerate bool
	shiftTimer    float64

	lastVelocity mgl64.Vec3
	pitchDeg     float64
	rollDeg      float64

	tick    uint64
	simTime float64

	pending []core.SimEvent
}

// New builds a vehicle over its rigid body and world. The config must carry
// four usable hardpoints; wheel base and rear track are derived from them
// here and never change.
func New(id uint16, name string, cfg Config, body *phys.Body, world phys.World, sink EventSink) (*Vehicle, error) {
	if body == nil {
		return nil, ErrNoBody
	}
	if world == nil {
		return nil, ErrNoWorld
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vehicle %q config: %w", name, err)
	}

	v := &Vehicle{
		id:            id,
		name:          name,
		cfg:           cfg,
		body:          body,
		world:         world,
		sink:          sink,
		wheelBase:     cfg.WheelBase(),
		rearTrack:     cfg.RearTrack(),
		canAccelerate: true,
		lastVelocity:  body.LinearVelocity(),
	}
	if v.wheelBase <= 0 || v.rearTrack <= 0 {
		return nil, fmt.Errorf("vehicle %q config: hardpoints are degenerate (wheel base %v, rear track %v)",
			name, v.wheelBase, v.rearTrack)
	}
	for i := range v.wheels {
		v.wheels[i].hardpoint = cfg.Hardpoints[i]
		v.wheels[i].drop = cfg.MaxWheelTravel
	}
	return v, nil
}

func (v *Vehicle) ID() uint16 { return v.id }

func (v *Vehicle) Name() string { return v.name }

func (v *Vehicle) Body() *phys.Body { return v.body }

func (v *Vehicle) Gear() int { return v.gear }

func (v *Vehicle) Grounded() bool { return v.grounded }

// Speed returns the chassis speed in m/s.
func (v *Vehicle) Speed() float64 { return v.body.LinearVelocity().Len() }

// DriftAngleDeg returns the signed angle between heading and travel
// direction from the last tick.
func (v *Vehicle) DriftAngleDeg() float64 { return v.driftAngleDeg }

// CanAccelerate reports whether throttle input is currently honoured; it is
// false during the post-shift lockout window.
func (v *Vehicle) CanAccelerate() bool { return v.canAccelerate }

// Step advances the vehicle by one fixed timestep. It accumulates forces on
// the rigid body and sets velocity deltas directly; the caller integrates the
// body afterwards. Events queued during the tick are flushed to the sink
// just before returning.
func (v *Vehicle) Step(in core.Controls, dt float64) core.TickSample {
	v.tick++
	v.simTime += dt
	in = in.Clamped()

	localVel := v.body.ToLocalDir(v.body.LinearVelocity())
	v.driftAngleDeg = signedAngleDeg(v.body.Forward(), v.body.LinearVelocity().Add(v.body.Forward()), v.body.Up())

	v.updateSteering(in, localVel)
	for i := range v.wheels {
		v.updateSuspension(i, dt)
	}
	v.applySuspension()
	v.updateGrounded()
	if v.grounded {
		v.updateDrive(in, localVel, dt)
		v.updateTilt(dt)
	}
	for i := range v.wheels {
		v.updateFriction(i, in, dt)
	}
	v.updateGears(in, dt)
	for i := range v.wheels {
		v.updateVisual(i, in, dt)
	}

	v.lastVelocity = v.body.LinearVelocity()
	sample := v.sample()
	v.flushEvents()
	return sample
}

func (v *Vehicle) queueEvent(kind core.EventKind, data map[string]any) {
	v.pending = append(v.pending, core.SimEvent{
		VehicleID: v.id,
		Kind:      kind,
		Tick:      v.tick,
		SimTime:   v.simTime,
		Time:      time.Now(),
		Data:      data,
	})
}

func (v *Vehicle) flushEvents() {
	if v.sink != nil {
		for _, ev := range v.pending {
			v.sink(ev)
		}
	}
	v.pending = v.pending[:0]
}

func (v *Vehicle) sample() core.TickSample {
	pos := v.body.Position()
	vel := v.body.LinearVelocity()
	s := core.TickSample{
		VehicleID:      v.id,
		Tick:           v.tick,
		SimTime:        v.simTime,
		Position:       core.Position3D{X: pos.X(), Y: pos.Y(), Z: pos.Z()},
		Velocity:       core.Position3D{X: vel.X(), Y: vel.Y(), Z: vel.Z()},
		SpeedKmh:       vel.Len() * 3.6,
		Gear:           v.gear,
		DriftAngleDeg:  v.driftAngleDeg,
		GroundedWheels: v.groundedCount,
		Grounded:       v.grounded,
		PitchDeg:       v.pitchDeg,
		RollDeg:        v.rollDeg,
	}
	for i := range v.wheels {
		w := &v.wheels[i]
		s.Wheels[i] = core.WheelSample{
			Grounded:    w.grounded,
			Offset:      w.offset,
			LateralSlip: w.lateralSlip,
			ForwardSlip: w.forwardSlip,
			Skid:        w.skid,
			Force:       w.force,
			SteerDeg:    w.steerDeg,
			SpinRate:    w.spinRate,
			Drop:        w.drop,
		}
	}
	return s
}
