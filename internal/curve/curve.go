// Package curve provides piecewise-linear response curves for tunable
// simulation behavior (acceleration vs. speed, friction vs. slip, steering
// authority vs. speed). Curves are built once from designer control points
// and evaluated every tick; evaluation clamps to the configured domain and
// never extrapolates.
package curve

import (
	"fmt"
)

// Point is a single control point.
type Point struct {
	X float64
	Y float64
}

// Curve is an immutable piecewise-linear sampler over ordered control points.
type Curve struct {
	points []Point
}

// New builds a curve from control points. At least two points are required
// and X values must be strictly increasing.
func New(points []Point) (Curve, error) {
	if len(points) < 2 {
		return Curve{}, fmt.Errorf("curve needs at least 2 control points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].X <= points[i-1].X {
			return Curve{}, fmt.Errorf("curve control points must have strictly increasing x: point %d (x=%v) after x=%v",
				i, points[i].X, points[i-1].X)
		}
	}
	cp := make([]Point, len(points))
	copy(cp, points)
	return Curve{points: cp}, nil
}

// MustNew is New for static tables known to be valid.
func MustNew(points []Point) Curve {
	c, err := New(points)
	if err != nil {
		panic(err)
	}
	return c
}

// FromPairs builds a curve from [[x,y],...] pairs, the form tuning files use.
func FromPairs(pairs [][]float64) (Curve, error) {
	points := make([]Point, 0, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return Curve{}, fmt.Errorf("curve pair %d has %d values, want 2", i, len(p))
		}
		points = append(points, Point{X: p[0], Y: p[1]})
	}
	return New(points)
}

// Linear returns the identity ramp on [0,1], the default response.
func Linear() Curve {
	return MustNew([]Point{{0, 0}, {1, 1}})
}

// Flat returns a constant curve on [0,1].
func Flat(y float64) Curve {
	return MustNew([]Point{{0, y}, {1, y}})
}

// Eval samples the curve at x. Input outside the control-point domain
// clamps to the first/last point.
func (c Curve) Eval(x float64) float64 {
	pts := c.points
	if len(pts) == 0 {
		return 0
	}
	if x <= pts[0].X {
		return pts[0].Y
	}
	last := pts[len(pts)-1]
	if x >= last.X {
		return last.Y
	}
	for i := 1; i < len(pts); i++ {
		if x <= pts[i].X {
			a, b := pts[i-1], pts[i]
			t := (x - a.X) / (b.X - a.X)
			return a.Y + t*(b.Y-a.Y)
		}
	}
	return last.Y
}

// Domain returns the curve's x range.
func (c Curve) Domain() (min, max float64) {
	if len(c.points) == 0 {
		return 0, 0
	}
	return c.points[0].X, c.points[len(c.points)-1].X
}
