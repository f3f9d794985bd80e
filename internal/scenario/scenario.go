// Package scenario loads timed drive scripts. A scenario names a track and
// one or more vehicles, each with a spawn pose and a timeline of control
// segments. The timeline is a step function: the controls of the last
// segment at or before the current sim time stay applied until the next
// segment takes over.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/axlesim/axle/pkg/core"
)

var ErrNoVehicles = errors.New("scenario: no vehicles defined")

// Scenario is a complete drive script.
type Scenario struct {
	Name     string         `json:"name"`
	Track    string         `json:"track"`
	Duration float64        `json:"duration"`
	Vehicles []VehicleEntry `json:"vehicles"`
}

// VehicleEntry describes one scripted vehicle.
type VehicleEntry struct {
	Name     string   `json:"name"`
	Start    Start    `json:"start"`
	Timeline Timeline `json:"timeline"`
}

// Start is the spawn pose. HeadingDeg rotates the vehicle about the up axis,
// clockwise when viewed from above, with 0 facing +Z.
type Start struct {
	Position   mgl64.Vec3 `json:"position"`
	HeadingDeg float64    `json:"headingDeg"`
}

// Orientation returns the spawn pose as a rotation quaternion.
func (s Start) Orientation() mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(s.HeadingDeg), mgl64.Vec3{0, 1, 0})
}

// Segment sets the control values from time At onward.
type Segment struct {
	At        float64 `json:"at"`
	Steer     float64 `json:"steer"`
	Accel     float64 `json:"accel"`
	Handbrake float64 `json:"handbrake"`
}

// Timeline is an ascending sequence of control segments.
type Timeline []Segment

// ControlsAt returns the controls in effect at sim time t. Before the first
// segment all controls are zero.
func (tl Timeline) ControlsAt(t float64) core.Controls {
	var c core.Controls
	for _, seg := range tl {
		if seg.At > t {
			break
		}
		c = core.Controls{Steer: seg.Steer, Accel: seg.Accel, Handbrake: seg.Handbrake}
	}
	return c
}

// Parse decodes and validates a scenario from r.
func Parse(r io.Reader) (*Scenario, error) {
	var s Scenario
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseFile reads and validates the scenario at path.
func ParseFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scenario %s: %w", path, err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

func (s *Scenario) validate() error {
	if s.Duration <= 0 {
		return fmt.Errorf("scenario duration must be positive, got %v", s.Duration)
	}
	if len(s.Vehicles) == 0 {
		return ErrNoVehicles
	}
	for i := range s.Vehicles {
		v := &s.Vehicles[i]
		if v.Name == "" {
			v.Name = fmt.Sprintf("vehicle-%d", i+1)
		}
		if err := v.Timeline.validate(); err != nil {
			return fmt.Errorf("vehicle %q: %w", v.Name, err)
		}
	}
	return nil
}

func (tl Timeline) validate() error {
	prev := -1.0
	for i, seg := range tl {
		if seg.At < 0 {
			return fmt.Errorf("segment %d: negative time %v", i, seg.At)
		}
		if seg.At <= prev {
			return fmt.Errorf("segment %d: timeline not ascending at t=%v", i, seg.At)
		}
		if seg.Steer < -1 || seg.Steer > 1 {
			return fmt.Errorf("segment %d: steer %v outside [-1,1]", i, seg.Steer)
		}
		if seg.Accel < -1 || seg.Accel > 1 {
			return fmt.Errorf("segment %d: accel %v outside [-1,1]", i, seg.Accel)
		}
		if seg.Handbrake < 0 || seg.Handbrake > 1 {
			return fmt.Errorf("segment %d: handbrake %v outside [0,1]", i, seg.Handbrake)
		}
		prev = seg.At
	}
	return nil
}
