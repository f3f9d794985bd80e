package vehicle

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/axlesim/axle/internal/curve"
	"github.com/axlesim/axle/pkg/core"
)

// Config is the immutable per-vehicle tuning record. It is loaded once at
// spawn; angles are in degrees, distances in metres, speeds in m/s except
// for the gear thresholds, which follow the km/h convention of the tuning
// tables.
type Config struct {
	// Hardpoints are the four suspension mount points in chassis space,
	// ordered front-left, front-right, rear-left, rear-right. Wheel base
	// and rear track are derived from them at spawn.
	Hardpoints [core.WheelCount]mgl64.Vec3

	// Suspension.
	SpringForce       float64
	Damper            float64
	MaxSpringDistance float64
	WheelRadius       float64

	// Drive.
	MaxSpeed          float64
	Accel             float64
	AccelCurve        curve.Curve // accel response vs. speed fraction
	InclineCurve      curve.Curve // accel modifier vs. incline/180
	BrakeAccel        float64
	RollingResistance float64

	// Steering.
	MaxTurnAngleDeg  float64
	SteerCurve       curve.Curve // steering authority vs. speed fraction
	AutoCounterSteer bool

	// Friction.
	FrictionCoeff      float64
	DriftFactor        float64
	MaxDriftAngleDeg   float64
	SlopeSlideAngleDeg float64
	LateralSlipCurve   curve.Curve
	ForwardSlipCurve   curve.Curve

	// Grounded-state handling.
	DownForce         float64 // applied as mass*DownForce along -up while grounded
	AirAngularDamping float64
	GroundCentroid    mgl64.Vec3 // local centre of mass while grounded
	AirCentroid       mgl64.Vec3 // local centre of mass while airborne

	// Gears. Each threshold entry is the upper speed bound of its gear in
	// km/h; GearShiftTime is the acceleration lockout after an upshift in
	// seconds of sim time.
	GearThresholdsKmh [5]float64
	GearShiftTime     float64

	// Visual feedback.
	MaxWheelTravel  float64
	ForwardTiltDeg  float64
	SidewaysTiltDeg float64
}

// DefaultConfig returns the stock hatchback tuning used when a run does not
// supply its own profile.
func DefaultConfig() Config {
	return Config{
		Hardpoints: [core.WheelCount]mgl64.Vec3{
			{-0.8, -0.2, 1.3},
			{0.8, -0.2, 1.3},
			{-0.8, -0.2, -1.3},
			{0.8, -0.2, -1.3},
		},

		SpringForce:       6000,
		Damper:            800,
		MaxSpringDistance: 0.8,
		WheelRadius:       0.35,

		MaxSpeed:          60,
		Accel:             8,
		AccelCurve:        curve.MustNew([]curve.Point{{X: 0, Y: 1}, {X: 0.5, Y: 0.8}, {X: 1, Y: 0.3}}),
		InclineCurve:      curve.MustNew([]curve.Point{{X: 0, Y: 1}, {X: 0.25, Y: 0.3}, {X: 0.5, Y: 0}, {X: 1, Y: 0}}),
		BrakeAccel:        12,
		RollingResistance: 2.5,

		MaxTurnAngleDeg:  30,
		SteerCurve:       curve.MustNew([]curve.Point{{X: 0, Y: 1}, {X: 0.5, Y: 0.7}, {X: 1, Y: 0.4}}),
		AutoCounterSteer: true,

		FrictionCoeff:      1,
		DriftFactor:        0.55,
		MaxDriftAngleDeg:   60,
		SlopeSlideAngleDeg: 35,
		LateralSlipCurve:   curve.MustNew([]curve.Point{{X: 0, Y: 0.2}, {X: 0.3, Y: 1}, {X: 1, Y: 0.8}}),
		ForwardSlipCurve:   curve.MustNew([]curve.Point{{X: 0, Y: 1}, {X: 1, Y: 0.4}}),

		DownForce:         5,
		AirAngularDamping: 0.05,
		GroundCentroid:    mgl64.Vec3{0, -0.3, 0},
		AirCentroid:       mgl64.Vec3{0, 0, 0},

		GearThresholdsKmh: [5]float64{40, 80, 120, 160, 220},
		GearShiftTime:     0.3,

		MaxWheelTravel:  0.25,
		ForwardTiltDeg:  5,
		SidewaysTiltDeg: 6,
	}
}

// Validate reports the first tuning inconsistency. The suspension offset
// formula needs MaxSpringDistance to exceed WheelRadius+0.1 or its
// denominator collapses.
func (c Config) Validate() error {
	if c.WheelRadius <= 0 {
		return fmt.Errorf("wheel radius %v must be positive", c.WheelRadius)
	}
	if c.MaxSpringDistance <= c.WheelRadius+0.1 {
		return fmt.Errorf("max spring distance %v must exceed wheel radius + 0.1", c.MaxSpringDistance)
	}
	if c.MaxSpeed <= 0 {
		return fmt.Errorf("max speed %v must be positive", c.MaxSpeed)
	}
	if c.MaxTurnAngleDeg <= 0 || c.MaxTurnAngleDeg >= 90 {
		return fmt.Errorf("max turn angle %v must be in (0,90) degrees", c.MaxTurnAngleDeg)
	}
	for i := 1; i < len(c.GearThresholdsKmh); i++ {
		if c.GearThresholdsKmh[i] <= c.GearThresholdsKmh[i-1] {
			return fmt.Errorf("gear thresholds must be strictly ascending, got %v", c.GearThresholdsKmh)
		}
	}
	if c.GearShiftTime < 0 {
		return fmt.Errorf("gear shift time %v must not be negative", c.GearShiftTime)
	}
	for _, cv := range []struct {
		name string
		c    curve.Curve
	}{
		{"accel", c.AccelCurve},
		{"incline", c.InclineCurve},
		{"steer", c.SteerCurve},
		{"lateral slip", c.LateralSlipCurve},
		{"forward slip", c.ForwardSlipCurve},
	} {
		if lo, hi := cv.c.Domain(); hi <= lo {
			return fmt.Errorf("%s curve is not configured", cv.name)
		}
	}
	return nil
}

// WheelBase returns the distance between the front and rear axle lines.
func (c Config) WheelBase() float64 {
	front := (c.Hardpoints[core.WheelFrontLeft].Z() + c.Hardpoints[core.WheelFrontRight].Z()) / 2
	rear := (c.Hardpoints[core.WheelRearLeft].Z() + c.Hardpoints[core.WheelRearRight].Z()) / 2
	return abs(front - rear)
}

// RearTrack returns the lateral distance between the rear hardpoints.
func (c Config) RearTrack() float64 {
	return abs(c.Hardpoints[core.WheelRearLeft].X() - c.Hardpoints[core.WheelRearRight].X())
}
