package vehicle

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/axlesim/axle/pkg/core"
)

// updateVisual advances the presentation signals for one wheel: vertical
// travel, spin rate and the smoothed skid intensity fed to skidmark and
// audio consumers.
func (v *Vehicle) updateVisual(i int, in core.Controls, dt float64) {
	w := &v.wheels[i]
	maxRate := v.cfg.MaxSpeed / v.cfg.WheelRadius

	var trueRate float64
	if w.grounded {
		target := mgl64.Clamp(w.hit.Distance-v.cfg.WheelRadius, 0, v.cfg.MaxWheelTravel)
		if w.offset > 0.3 {
			w.drop = target
		} else {
			// Shallow contact eases in to avoid visual popping.
			w.drop += (target - w.drop) * 0.1
		}

		forward, _ := w.axes(v.body)
		trueRate = v.body.VelocityAtPoint(w.hit.Point).Dot(forward) / v.cfg.WheelRadius
	}

	switch {
	case in.Handbrake > 0:
		w.spinRate = 0
	case abs(in.Accel) > 0.1:
		// Burnout look: spin at the max-speed rate regardless of actual
		// rolling speed.
		w.spinRate = sign(in.Accel) * maxRate
	default:
		w.spinRate = trueRate
	}
	w.spinAngle += w.spinRate * dt

	w.forwardSlip = mgl64.Clamp(abs(w.spinRate-trueRate)/maxRate, -1, 1)
	target := (abs(w.forwardSlip) + w.lateralSlip) / 2
	w.skid += (target - w.skid) * 0.05
}

// updateTilt leans the visual body into the current chassis-local
// acceleration, derived from the velocity delta since the previous tick.
func (v *Vehicle) updateTilt(dt float64) {
	accel := v.body.LinearVelocity().Sub(v.lastVelocity).Mul(1 / dt)
	local := v.body.ToLocalDir(accel)

	targetPitch := mgl64.Clamp(-local.Z(), -v.cfg.ForwardTiltDeg, v.cfg.ForwardTiltDeg)
	targetRoll := mgl64.Clamp(local.X(), -v.cfg.SidewaysTiltDeg, v.cfg.SidewaysTiltDeg)

	v.pitchDeg += (targetPitch - v.pitchDeg) * 0.1
	v.rollDeg += (targetRoll - v.rollDeg) * 0.1
}
