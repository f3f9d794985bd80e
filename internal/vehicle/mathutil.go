package vehicle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var worldUp = mgl64.Vec3{0, 1, 0}

func abs(x float64) float64 { return math.Abs(x) }

// sign returns -1, 0 or +1.
func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func clamp01(x float64) float64 { return mgl64.Clamp(x, 0, 1) }

// angleBetweenDeg returns the unsigned angle between two vectors in degrees.
func angleBetweenDeg(a, b mgl64.Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la == 0 || lb == 0 {
		return 0
	}
	cos := mgl64.Clamp(a.Dot(b)/(la*lb), -1, 1)
	return mgl64.RadToDeg(math.Acos(cos))
}

// signedAngleDeg returns the angle from one vector to another in degrees,
// signed by the right-hand rule around axis.
func signedAngleDeg(from, to, axis mgl64.Vec3) float64 {
	cross := from.Cross(to)
	angle := mgl64.RadToDeg(math.Atan2(cross.Len(), from.Dot(to)))
	if cross.Dot(axis) < 0 {
		return -angle
	}
	return angle
}
