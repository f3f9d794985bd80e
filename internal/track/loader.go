package track

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// ErrNoOrigin is returned when a track file carries no usable origin.
var ErrNoOrigin = errors.New("track has no origin coordinates")

// trackFile is the on-disk JSON layout.
type trackFile struct {
	Name        string        `json:"name"`
	Longitude   float64       `json:"longitude"`
	Latitude    float64       `json:"latitude"`
	Elevation   float64       `json:"elevation"`
	DefaultGrip float64       `json:"defaultGrip"`
	Surfaces    []surfaceFile `json:"surfaces"`
}

type surfaceFile struct {
	Kind string  `json:"kind"`
	Grip float64 `json:"grip"`
	// Outline is a ring of [longitude,latitude] pairs. The first point is
	// repeated automatically if the ring is left open.
	Outline [][]float64 `json:"outline"`
}

// Load reads a track definition and projects its surface outlines into the
// local metre frame around the track origin.
func Load(path string) (*Track, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track file: %w", err)
	}
	var tf trackFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse track file %s: %w", path, err)
	}
	return build(tf)
}

func build(tf trackFile) (*Track, error) {
	if tf.Longitude == 0 && tf.Latitude == 0 && len(tf.Surfaces) > 0 {
		return nil, ErrNoOrigin
	}
	if tf.DefaultGrip <= 0 {
		tf.DefaultGrip = 1
	}

	project := wgs84.EPSG().Transform(4326, 3857)
	originX, originY, _ := project(tf.Longitude, tf.Latitude, 0)

	t := &Track{
		Name:        tf.Name,
		Longitude:   tf.Longitude,
		Latitude:    tf.Latitude,
		Elevation:   tf.Elevation,
		DefaultGrip: tf.DefaultGrip,
	}

	for i, sf := range tf.Surfaces {
		if len(sf.Outline) < 3 {
			return nil, fmt.Errorf("surface %d (%s): outline needs at least 3 points, got %d",
				i, sf.Kind, len(sf.Outline))
		}
		if sf.Grip <= 0 {
			return nil, fmt.Errorf("surface %d (%s): grip %v must be positive", i, sf.Kind, sf.Grip)
		}

		ring := make([]float64, 0, (len(sf.Outline)+1)*2)
		for j, coord := range sf.Outline {
			if len(coord) < 2 {
				return nil, fmt.Errorf("surface %d (%s): coordinate %d has insufficient values", i, sf.Kind, j)
			}
			x, y, _ := project(coord[0], coord[1], 0)
			ring = append(ring, x-originX, y-originY)
		}
		// Close the ring.
		if ring[0] != ring[len(ring)-2] || ring[1] != ring[len(ring)-1] {
			ring = append(ring, ring[0], ring[1])
		}

		shell := geom.NewLineString(geom.NewSequence(ring, geom.DimXY))
		poly := geom.NewPolygon([]geom.LineString{shell})
		if err := poly.Validate(); err != nil {
			return nil, fmt.Errorf("surface %d (%s): invalid outline: %w", i, sf.Kind, err)
		}

		t.surfaces = append(t.surfaces, Surface{
			Kind:    sf.Kind,
			Grip:    sf.Grip,
			polygon: poly,
		})
	}

	return t, nil
}

// Flat returns an unbounded track with uniform grip, used when a run does
// not name a track file.
func Flat(name string, grip float64) *Track {
	return &Track{
		Name:        name,
		DefaultGrip: grip,
	}
}
