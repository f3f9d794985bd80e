// pkg/core/sample.go
package core

// Position3D is a world-space position in meters. Y is up.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Wheel indices. Order is fixed: fronts first, then rears, left before
// right. Indices 0 and 1 steer; indices 2 and 3 take handbrake drift.
const (
	WheelFrontLeft = iota
	WheelFrontRight
	WheelRearLeft
	WheelRearRight
	WheelCount
)

// WheelName returns a short label for a wheel index ("FL", "FR", "RL", "RR").
func WheelName(i int) string {
	switch i {
	case WheelFrontLeft:
		return "FL"
	case WheelFrontRight:
		return "FR"
	case WheelRearLeft:
		return "RL"
	case WheelRearRight:
		return "RR"
	}
	return "??"
}

// WheelSample is the per-wheel telemetry captured every tick.
// Skid feeds skidmark/smoke/audio consumers and stays within [0,1].
type WheelSample struct {
	Grounded    bool    `json:"grounded"`
	Offset      float64 `json:"offset"`      // suspension compression, 0..1
	LateralSlip float64 `json:"lateralSlip"` // 0..1
	ForwardSlip float64 `json:"forwardSlip"` // -1..1
	Skid        float64 `json:"skid"`        // smoothed skid intensity, 0..1
	Force       float64 `json:"force"`       // suspension force scalar (averaged)
	SteerDeg    float64 `json:"steerDeg"`    // visual steering angle, degrees
	SpinRate    float64 `json:"spinRate"`    // visual spin, rad/s
	Drop        float64 `json:"drop"`        // visual vertical drop from hardpoint, m
}

// TickSample is one vehicle's state snapshot after a simulation tick.
type TickSample struct {
	VehicleID      uint16                 `json:"vehicleId"`
	Tick           uint64                 `json:"tick"`
	SimTime        float64                `json:"simTime"` // seconds since session start
	Position       Position3D             `json:"position"`
	Velocity       Position3D             `json:"velocity"`
	SpeedKmh       float64                `json:"speedKmh"`
	Gear           int                    `json:"gear"` // 0..4
	DriftAngleDeg  float64                `json:"driftAngleDeg"`
	GroundedWheels int                    `json:"groundedWheels"`
	Grounded       bool                   `json:"grounded"` // vehicle-level, >1 wheel down
	PitchDeg       float64                `json:"pitchDeg"` // visual body tilt
	RollDeg        float64                `json:"rollDeg"`
	Wheels         [WheelCount]WheelSample `json:"wheels"`
}
