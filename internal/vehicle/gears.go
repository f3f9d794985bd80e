package vehicle

import "github.com/axlesim/axle/pkg/core"

// updateGears resolves the gear index from the speed/threshold table and
// drives the shift lockout state machine. The scan uses strict >, so a speed
// sitting exactly on a threshold does not advance the gear, and the same
// rule walks the index back down as speed drops.
func (v *Vehicle) updateGears(in core.Controls, dt float64) {
	if v.shiftTimer > 0 {
		v.shiftTimer -= dt
		if v.shiftTimer <= 0 {
			v.shiftTimer = 0
			v.canAccelerate = true
		}
	}

	speedKmh := v.body.LinearVelocity().Len() * 3.6
	gear := 0
	for gear < len(v.cfg.GearThresholdsKmh)-1 && speedKmh > v.cfg.GearThresholdsKmh[gear] {
		gear++
	}
	if gear == v.gear {
		return
	}
	prev := v.gear
	v.gear = gear

	movingForward := v.body.ToLocalDir(v.body.LinearVelocity()).Z() > 0
	if in.Accel > 0 && movingForward && v.grounded && v.shiftTimer <= 0 {
		if v.cfg.GearShiftTime > 0 {
			v.canAccelerate = false
			v.shiftTimer = v.cfg.GearShiftTime
		}
		v.queueEvent(core.EventGearChange, map[string]any{
			"from": prev,
			"to":   gear,
		})
	}
}
