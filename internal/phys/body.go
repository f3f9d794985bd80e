// Package phys provides the minimal rigid body and raycast world that the
// vehicle model drives. Forces accumulate between ticks and are consumed by
// Integrate, which advances the body with semi-implicit Euler.
package phys

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Body is a dynamic rigid body with a box inertia footprint. Local axes
// follow the chassis convention: X right, Y up, Z forward.
type Body struct {
	mass float64
	com  mgl64.Vec3 // local space

	pos    mgl64.Vec3
	orient mgl64.Quat

	vel    mgl64.Vec3
	angVel mgl64.Vec3

	angularDamping float64

	inertia mgl64.Vec3 // local principal moments

	force  mgl64.Vec3
	torque mgl64.Vec3
}

// NewBody builds a body of the given mass whose inertia tensor is that of a
// solid box with the given half extents. Mass and extents must be positive.
func NewBody(mass float64, halfExtents mgl64.Vec3) *Body {
	hx, hy, hz := halfExtents.X(), halfExtents.Y(), halfExtents.Z()
	return &Body{
		mass:   mass,
		orient: mgl64.QuatIdent(),
		inertia: mgl64.Vec3{
			mass * (hy*hy + hz*hz) / 3,
			mass * (hx*hx + hz*hz) / 3,
			mass * (hx*hx + hy*hy) / 3,
		},
	}
}

func (b *Body) Mass() float64 { return b.mass }

func (b *Body) Position() mgl64.Vec3 { return b.pos }

func (b *Body) SetPosition(p mgl64.Vec3) { b.pos = p }

func (b *Body) Orientation() mgl64.Quat { return b.orient }

func (b *Body) SetOrientation(q mgl64.Quat) { b.orient = q.Normalize() }

func (b *Body) LinearVelocity() mgl64.Vec3 { return b.vel }

func (b *Body) SetLinearVelocity(v mgl64.Vec3) { b.vel = v }

func (b *Body) AngularVelocity() mgl64.Vec3 { return b.angVel }

func (b *Body) SetAngularVelocity(w mgl64.Vec3) { b.angVel = w }

// CenterOfMass returns the local space centre of mass offset.
func (b *Body) CenterOfMass() mgl64.Vec3 { return b.com }

// SetCenterOfMass moves the local centre of mass. Torques and point
// velocities are measured about this point, so shifting it changes how the
// body reacts to off-centre forces.
func (b *Body) SetCenterOfMass(local mgl64.Vec3) { b.com = local }

func (b *Body) AngularDamping() float64 { return b.angularDamping }

func (b *Body) SetAngularDamping(d float64) { b.angularDamping = d }

// Right returns the body local +X axis in world space.
func (b *Body) Right() mgl64.Vec3 { return b.orient.Rotate(mgl64.Vec3{1, 0, 0}) }

// Up returns the body local +Y axis in world space.
func (b *Body) Up() mgl64.Vec3 { return b.orient.Rotate(mgl64.Vec3{0, 1, 0}) }

// Forward returns the body local +Z axis in world space.
func (b *Body) Forward() mgl64.Vec3 { return b.orient.Rotate(mgl64.Vec3{0, 0, 1}) }

// WorldPoint transforms a local space point to world space.
func (b *Body) WorldPoint(local mgl64.Vec3) mgl64.Vec3 {
	return b.pos.Add(b.orient.Rotate(local))
}

// WorldCenterOfMass returns the centre of mass in world space.
func (b *Body) WorldCenterOfMass() mgl64.Vec3 { return b.WorldPoint(b.com) }

// ToWorldDir rotates a local direction into world space.
func (b *Body) ToWorldDir(local mgl64.Vec3) mgl64.Vec3 { return b.orient.Rotate(local) }

// ToLocalDir rotates a world direction into body space.
func (b *Body) ToLocalDir(world mgl64.Vec3) mgl64.Vec3 {
	return b.orient.Inverse().Rotate(world)
}

// VelocityAtPoint returns the world velocity of a world space point rigidly
// attached to the body: v + w x r, with r measured from the centre of mass.
func (b *Body) VelocityAtPoint(worldPoint mgl64.Vec3) mgl64.Vec3 {
	r := worldPoint.Sub(b.WorldCenterOfMass())
	return b.vel.Add(b.angVel.Cross(r))
}

// ApplyForce accumulates a world space force through the centre of mass.
func (b *Body) ApplyForce(f mgl64.Vec3) { b.force = b.force.Add(f) }

// ApplyForceAtPoint accumulates a world space force acting at a world space
// point, inducing torque about the centre of mass.
func (b *Body) ApplyForceAtPoint(f, worldPoint mgl64.Vec3) {
	b.force = b.force.Add(f)
	r := worldPoint.Sub(b.WorldCenterOfMass())
	b.torque = b.torque.Add(r.Cross(f))
}

// ApplyTorque accumulates a world space torque.
func (b *Body) ApplyTorque(t mgl64.Vec3) { b.torque = b.torque.Add(t) }

// Integrate consumes the accumulated forces and advances position and
// orientation by dt under the given gravity. Angular velocity decays
// exponentially with the current angular damping.
func (b *Body) Integrate(dt float64, gravity mgl64.Vec3) {
	if dt > 0 {
		accel := b.force.Mul(1 / b.mass).Add(gravity)
		b.vel = b.vel.Add(accel.Mul(dt))

		localTorque := b.orient.Inverse().Rotate(b.torque)
		localAngAccel := mgl64.Vec3{
			localTorque.X() / b.inertia.X(),
			localTorque.Y() / b.inertia.Y(),
			localTorque.Z() / b.inertia.Z(),
		}
		b.angVel = b.angVel.Add(b.orient.Rotate(localAngAccel).Mul(dt))
		if b.angularDamping > 0 {
			b.angVel = b.angVel.Mul(math.Exp(-b.angularDamping * dt))
		}

		b.pos = b.pos.Add(b.vel.Mul(dt))
		if w := b.angVel.Len(); w > 1e-12 {
			spin := mgl64.QuatRotate(w*dt, b.angVel.Mul(1/w))
			b.orient = spin.Mul(b.orient).Normalize()
		}
	}

	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}
