package vehicle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/axlesim/axle/pkg/core"
)

// counterSteerClampDeg bounds the combined steer + counter-steer angle.
const counterSteerClampDeg = 70.0

// updateSteering resolves the front wheel angles from the steer input.
// Ackermann geometry gives the inner wheel the tighter angle; the optional
// counter-steer assist adds the drift angle while sliding, and the whole
// result is scaled by the speed-indexed steer curve.
func (v *Vehicle) updateSteering(in core.Controls, localVel mgl64.Vec3) {
	var left, right float64
	if in.Steer != 0 {
		turnRadius := v.wheelBase / math.Tan(mgl64.DegToRad(v.cfg.MaxTurnAngleDeg))
		outer := mgl64.RadToDeg(math.Atan(v.wheelBase / (turnRadius + v.rearTrack/2)))
		inner := mgl64.RadToDeg(math.Atan(v.wheelBase / (turnRadius - v.rearTrack/2)))
		if in.Steer > 0 {
			left = outer * in.Steer
			right = inner * in.Steer
		} else {
			left = inner * in.Steer
			right = outer * in.Steer
		}
	}

	if v.cfg.AutoCounterSteer && localVel.Z() > 0 && abs(localVel.X()) > 1 {
		assist := signedAngleDeg(v.body.Forward(), v.body.LinearVelocity().Add(v.body.Forward()), v.body.Up())
		left = mgl64.Clamp(left+assist, -counterSteerClampDeg, counterSteerClampDeg)
		right = mgl64.Clamp(right+assist, -counterSteerClampDeg, counterSteerClampDeg)
	}

	scale := v.cfg.SteerCurve.Eval(abs(localVel.Z()) / v.cfg.MaxSpeed)
	v.wheels[core.WheelFrontLeft].steerDeg = left * scale
	v.wheels[core.WheelFrontRight].steerDeg = right * scale
	v.wheels[core.WheelRearLeft].steerDeg = 0
	v.wheels[core.WheelRearRight].steerDeg = 0
}
