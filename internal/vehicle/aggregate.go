package vehicle

import "github.com/axlesim/axle/pkg/core"

// updateGrounded derives the vehicle-level grounded state from the wheel
// flags set by the suspension pass. Grounded means strictly more than one
// wheel in contact. Transitions fire one-shot events; the stable state pins
// the centre of mass, angular damping and downforce.
func (v *Vehicle) updateGrounded() {
	count := 0
	for i := range v.wheels {
		if v.wheels[i].grounded {
			count++
		}
	}
	v.groundedCount = count

	grounded := count > 1
	if grounded != v.grounded {
		v.grounded = grounded
		if grounded {
			v.queueEvent(core.EventGrounded, nil)
		} else {
			v.queueEvent(core.EventTakeoff, nil)
		}
	}

	if v.grounded {
		v.body.SetCenterOfMass(v.cfg.GroundCentroid)
		v.body.SetAngularDamping(1)
		v.body.ApplyForce(v.body.Up().Mul(-v.body.Mass() * v.cfg.DownForce))
	} else {
		v.body.SetCenterOfMass(v.cfg.AirCentroid)
		v.body.SetAngularDamping(v.cfg.AirAngularDamping)
	}
}
