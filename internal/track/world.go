package track

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/axlesim/axle/internal/phys"
)

// World adapts a Track into the cast surface the suspension queries. The
// ground is the track's elevation plane; grip at the contact point comes
// from the patch lookup.
type World struct {
	plane phys.FlatWorld
	track *Track
}

// NewWorld builds the query surface for a loaded track.
func NewWorld(t *Track) *World {
	return &World{
		plane: phys.NewFlatWorld(t.Elevation, t.DefaultGrip),
		track: t,
	}
}

// Track returns the underlying track definition.
func (w *World) Track() *Track { return w.track }

func (w *World) Gravity() mgl64.Vec3 { return w.plane.Gravity() }

// SphereCast intersects the sweep with the elevation plane and stamps the
// hit with the grip of the patch under the contact point.
func (w *World) SphereCast(origin, dir mgl64.Vec3, radius, maxDist float64) (phys.Hit, bool) {
	hit, ok := w.plane.SphereCast(origin, dir, radius, maxDist)
	if !ok {
		return hit, false
	}
	hit.Grip = w.track.GripAt(hit.Point.X(), hit.Point.Z())
	return hit, true
}
