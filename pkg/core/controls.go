// pkg/core/controls.go
package core

// Controls are the normalized driver inputs for one simulation tick.
// Values arrive already smoothed; the simulation core does no debouncing.
type Controls struct {
	Steer     float64 `json:"steer"`     // -1 (full left) .. 1 (full right)
	Accel     float64 `json:"accel"`     // -1 (reverse) .. 1 (forward)
	Handbrake float64 `json:"handbrake"` // 0 (released) .. 1 (engaged)
}

// Clamped returns a copy with every input forced into its legal range.
func (c Controls) Clamped() Controls {
	return Controls{
		Steer:     clampRange(c.Steer, -1, 1),
		Accel:     clampRange(c.Accel, -1, 1),
		Handbrake: clampRange(c.Handbrake, 0, 1),
	}
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
