package vehicle

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/axlesim/axle/pkg/core"
)

// updateDrive applies acceleration, rolling resistance and braking as direct
// velocity deltas along the chassis forward axis. It only runs while the
// vehicle aggregate is grounded.
func (v *Vehicle) updateDrive(in core.Controls, localVel mgl64.Vec3, dt float64) {
	fwdSpeed := localVel.Z()

	if in.Handbrake == 0 && abs(fwdSpeed) < v.cfg.MaxSpeed && v.canAccelerate {
		incline := angleBetweenDeg(v.body.Up(), worldUp)
		adjusted := in.Accel * v.cfg.InclineCurve.Eval(incline/180)
		speedRatio := abs(fwdSpeed / v.cfg.MaxSpeed)

		var delta float64
		if in.Accel != 0 && fwdSpeed != 0 && sign(in.Accel) != sign(fwdSpeed) {
			// Throttle against the current motion bites harder, the
			// engine-braking feel of standing on reverse throttle.
			delta = (1 + speedRatio) * v.cfg.Accel * adjusted * dt
		} else {
			delta = v.cfg.Accel * adjusted * dt * v.cfg.AccelCurve.Eval(speedRatio)
		}
		v.addForwardVelocity(delta)
	}

	if in.Accel == 0 {
		delta := v.cfg.RollingResistance * dt * clamp01(abs(fwdSpeed))
		v.addForwardVelocity(-sign(fwdSpeed) * delta)
	}

	if in.Handbrake > 0 {
		delta := v.cfg.BrakeAccel * in.Handbrake * dt * clamp01(abs(fwdSpeed))
		v.addForwardVelocity(-sign(fwdSpeed) * delta)
	}
}

func (v *Vehicle) addForwardVelocity(delta float64) {
	if delta == 0 {
		return
	}
	v.body.SetLinearVelocity(v.body.LinearVelocity().Add(v.body.Forward().Mul(delta)))
}
