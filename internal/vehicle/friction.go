package vehicle

import (
	"math"

	"github.com/axlesim/axle/pkg/core"
)

// updateFriction computes and applies one wheel's tire force. It runs only
// when both the wheel and the vehicle aggregate are grounded; the suspension
// force it consumes is the averaged scalar from this same tick.
func (v *Vehicle) updateFriction(i int, in core.Controls, dt float64) {
	w := &v.wheels[i]
	if !w.grounded || !v.grounded {
		w.lateralSlip = 0
		return
	}

	forward, right := w.axes(v.body)
	pv := v.body.VelocityAtPoint(w.hit.Point)
	side := pv.Dot(right)
	fwd := pv.Dot(forward)

	// Slip ratio in [0,1]; the 0.1 floor keeps the division sane near rest.
	w.lateralSlip = abs(side) / (abs(side) + math.Max(abs(fwd), 0.1))

	mag := w.force * v.cfg.FrictionCoeff * w.hit.Grip * v.cfg.LateralSlipCurve.Eval(w.lateralSlip)
	mass := v.body.Mass()
	limit := math.Min(mass/4*abs(side)/dt, v.world.Gravity().Len()*mass)
	if mag > limit {
		mag = limit
	}
	mag *= v.cfg.ForwardSlipCurve.Eval(abs(fwd) / v.cfg.MaxSpeed)

	factor := 1.0
	if i >= core.WheelRearLeft && in.Handbrake > 0 && abs(v.driftAngleDeg) < v.cfg.MaxDriftAngleDeg {
		factor = v.cfg.DriftFactor
	}

	force := right.Mul(-sign(side) * mag * factor)

	// Friction holds the car on moderate slopes; past the slide threshold it
	// lets go and the car slips downhill.
	if angleBetweenDeg(v.body.Up(), worldUp) <= v.cfg.SlopeSlideAngleDeg {
		gravShare := v.world.Gravity().Mul(mass / 4)
		force = force.Add(right.Mul(-gravShare.Dot(right)))
		if in.Handbrake > 0 || v.body.LinearVelocity().Len() < 0.1 {
			force = force.Add(forward.Mul(-gravShare.Dot(forward)))
		}
	}

	v.body.ApplyForceAtPoint(force, v.body.WorldPoint(w.hardpoint))
}
