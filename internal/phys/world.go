package phys

import "github.com/go-gl/mathgl/mgl64"

// EarthGravity is the standard gravitational acceleration in m/s2.
const EarthGravity = 9.81

// Hit describes the first contact of a sphere cast.
type Hit struct {
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64 // travel distance of the sphere before contact
	Grip     float64 // surface grip multiplier at the contact point
}

// World is the terrain query surface the suspension casts against.
type World interface {
	// SphereCast sweeps a sphere of the given radius from origin along dir
	// for at most maxDist and reports the first contact. dir need not be
	// normalised.
	SphereCast(origin, dir mgl64.Vec3, radius, maxDist float64) (Hit, bool)

	// Gravity returns the world gravity vector.
	Gravity() mgl64.Vec3
}

// FlatWorld is an infinite horizontal plane with uniform grip. It backs unit
// tests and runs without a loaded track.
type FlatWorld struct {
	Height float64
	Grip   float64
	Grav   mgl64.Vec3
}

// NewFlatWorld returns a plane at the given height with standard gravity.
func NewFlatWorld(height, grip float64) FlatWorld {
	return FlatWorld{
		Height: height,
		Grip:   grip,
		Grav:   mgl64.Vec3{0, -EarthGravity, 0},
	}
}

func (w FlatWorld) Gravity() mgl64.Vec3 { return w.Grav }

// SphereCast intersects a descending sweep with the plane. Ascending or
// horizontal sweeps miss unless the sphere already touches the surface.
func (w FlatWorld) SphereCast(origin, dir mgl64.Vec3, radius, maxDist float64) (Hit, bool) {
	if origin.Y()-radius <= w.Height {
		return w.hitAt(origin, 0), true
	}
	n := dir.Len()
	if n == 0 {
		return Hit{}, false
	}
	unit := dir.Mul(1 / n)
	if unit.Y() >= 0 {
		return Hit{}, false
	}
	t := (origin.Y() - radius - w.Height) / -unit.Y()
	if t > maxDist {
		return Hit{}, false
	}
	return w.hitAt(origin.Add(unit.Mul(t)), t), true
}

func (w FlatWorld) hitAt(center mgl64.Vec3, dist float64) Hit {
	return Hit{
		Point:    mgl64.Vec3{center.X(), w.Height, center.Z()},
		Normal:   mgl64.Vec3{0, 1, 0},
		Distance: dist,
		Grip:     w.Grip,
	}
}
