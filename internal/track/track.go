// Package track loads track definitions and answers surface queries for the
// simulation. A track is a flat ground plane at a fixed elevation with grip
// patches: polygonal zones (tarmac, gravel, ice) that scale tire friction.
// Patch outlines are authored in WGS84 longitude/latitude and projected to
// web mercator metres around the track origin at load time.
package track

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/axlesim/axle/pkg/core"
)

// Surface is one grip patch on the ground plane.
type Surface struct {
	Kind string
	Grip float64

	polygon geom.Polygon
}

// Contains reports whether the local-plane point lies inside the patch.
func (s Surface) Contains(x, z float64) bool {
	pt := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: x, Y: z}})
	return geom.Intersects(s.polygon.AsGeometry(), pt.AsGeometry())
}

// Track is an immutable loaded track.
type Track struct {
	Name      string
	Longitude float64
	Latitude  float64
	Elevation float64

	// DefaultGrip applies anywhere no patch matches.
	DefaultGrip float64

	surfaces []Surface
}

// Surfaces returns the grip patches in priority order.
func (t *Track) Surfaces() []Surface { return t.surfaces }

// SurfaceAt returns the first patch containing the local-plane point.
// The local frame has the track origin at (0,0); x is east, z is north.
func (t *Track) SurfaceAt(x, z float64) (Surface, bool) {
	for _, s := range t.surfaces {
		if s.Contains(x, z) {
			return s, true
		}
	}
	return Surface{}, false
}

// GripAt returns the grip multiplier at the local-plane point.
func (t *Track) GripAt(x, z float64) float64 {
	if s, ok := t.SurfaceAt(x, z); ok {
		return s.Grip
	}
	return t.DefaultGrip
}

// Info summarises the track for session metadata.
func (t *Track) Info() core.TrackInfo {
	return core.TrackInfo{
		Name:      t.Name,
		Longitude: t.Longitude,
		Latitude:  t.Latitude,
		Elevation: t.Elevation,
		Surfaces:  len(t.surfaces),
	}
}
