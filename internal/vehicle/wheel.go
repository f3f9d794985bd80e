package vehicle

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/axlesim/axle/internal/phys"
)

// wheel holds the per-wheel state mutated by the tick. Exactly four exist
// per vehicle; indices follow core.WheelFrontLeft..core.WheelRearRight.
type wheel struct {
	hardpoint mgl64.Vec3 // chassis local

	steerDeg float64

	grounded bool
	hit      phys.Hit
	offset   float64 // normalized compression, retained while airborne
	rawForce float64 // this wheel's own spring+damper scalar
	force    float64 // averaged scalar actually applied, consumed by friction

	lateralSlip float64
	forwardSlip float64
	skid        float64

	spinRate  float64 // rad/s, visual
	spinAngle float64 // accumulated rotation, rad
	drop      float64 // visual vertical travel below the hardpoint
}

// axes returns the wheel's forward and right directions in world space,
// rotated from the chassis axes by the current steer angle.
func (w *wheel) axes(body *phys.Body) (forward, right mgl64.Vec3) {
	if w.steerDeg == 0 {
		return body.Forward(), body.Right()
	}
	spin := mgl64.QuatRotate(mgl64.DegToRad(w.steerDeg), body.Up())
	return spin.Rotate(body.Forward()), spin.Rotate(body.Right())
}
