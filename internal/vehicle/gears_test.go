package vehicle

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axlesim/axle/internal/phys"
	"github.com/axlesim/axle/pkg/core"
)

// gearAt steps an airborne vehicle at the given speed so the gear scan runs
// without drive or friction interference.
func gearAt(t *testing.T, v *Vehicle, speedKmh float64) int {
	t.Helper()
	v.body.SetLinearVelocity(mgl64.Vec3{0, 0, speedKmh / 3.6})
	s := v.Step(core.Controls{}, testDt)
	return s.Gear
}

func TestGears_ThresholdScan(t *testing.T) {
	v, err := New(1, "car", DefaultConfig(), newTestBody(airborneHeight), phys.NewFlatWorld(0, 1), nil)
	require.NoError(t, err)

	tests := []struct {
		speedKmh float64
		want     int
	}{
		{0, 0},
		{39, 0},
		{41, 1},
		{100, 2},
		{150, 3}, // between 120 and 160
		{165, 4},
		{230, 4}, // beyond the last threshold the index stays capped
		{100, 2}, // decelerating walks back down
		{10, 0},
	}

	for _, tt := range tests {
		if got := gearAt(t, v, tt.speedKmh); got != tt.want {
			t.Errorf("speed %v km/h: gear = %d, want %d", tt.speedKmh, got, tt.want)
		}
	}
}

func TestGears_ExactThresholdDoesNotAdvance(t *testing.T) {
	v, err := New(1, "car", DefaultConfig(), newTestBody(airborneHeight), phys.NewFlatWorld(0, 1), nil)
	require.NoError(t, err)

	// 10 m/s converts to exactly the same float as the first threshold when
	// it is written as 10*3.6; the scan uses strict >, so no shift.
	cfg := DefaultConfig()
	cfg.GearThresholdsKmh[0] = 10 * 3.6
	v.cfg = cfg

	v.body.SetLinearVelocity(mgl64.Vec3{0, 0, 10})
	s := v.Step(core.Controls{}, testDt)
	assert.Equal(t, 0, s.Gear)

	v.body.SetLinearVelocity(mgl64.Vec3{0, 0, 10.01})
	s = v.Step(core.Controls{}, testDt)
	assert.Equal(t, 1, s.Gear)
}

func TestGears_UpshiftLockout(t *testing.T) {
	body := newTestBody(restHeight)
	rec := &eventRecorder{}
	v, err := New(1, "car", DefaultConfig(), body, phys.NewFlatWorld(0, 1), rec.sink())
	require.NoError(t, err)
	require.True(t, v.CanAccelerate())

	// 45 km/h crosses the first threshold on the first tick.
	body.SetLinearVelocity(mgl64.Vec3{0, 0, 45.0 / 3.6})
	in := core.Controls{Accel: 1}

	v.Step(in, 0.1)
	assert.Equal(t, 1, v.Gear())
	assert.False(t, v.CanAccelerate(), "shift must cut acceleration")
	require.Equal(t, 1, rec.count(core.EventGearChange))

	lockedSpeed := v.Speed()

	// Two more ticks inside the 0.3s window: still locked, speed frozen
	// because the throttle is ignored.
	v.Step(in, 0.1)
	assert.False(t, v.CanAccelerate())
	v.Step(in, 0.1)
	assert.False(t, v.CanAccelerate())
	assert.InDelta(t, lockedSpeed, v.Speed(), 1e-9)

	// Third tick brings the timer to zero: throttle honoured again.
	v.Step(in, 0.1)
	assert.True(t, v.CanAccelerate())
	v.Step(in, 0.1)
	assert.Greater(t, v.Speed(), lockedSpeed)

	assert.Equal(t, 1, rec.count(core.EventGearChange))
}

func TestGears_NoEventMidShift(t *testing.T) {
	body := newTestBody(restHeight)
	rec := &eventRecorder{}
	v, err := New(1, "car", DefaultConfig(), body, phys.NewFlatWorld(0, 1), rec.sink())
	require.NoError(t, err)

	body.SetLinearVelocity(mgl64.Vec3{0, 0, 45.0 / 3.6})
	v.Step(core.Controls{Accel: 1}, 0.1)
	require.Equal(t, 1, rec.count(core.EventGearChange))

	// Force a second index change while the lockout is still counting.
	body.SetLinearVelocity(mgl64.Vec3{0, 0, 100.0 / 3.6})
	v.Step(core.Controls{Accel: 1}, 0.1)

	assert.Equal(t, 2, v.Gear(), "index still tracks speed")
	assert.Equal(t, 1, rec.count(core.EventGearChange), "no event mid-shift")
	assert.False(t, v.CanAccelerate())
}

func TestGears_NoEventWhenCoasting(t *testing.T) {
	body := newTestBody(restHeight)
	rec := &eventRecorder{}
	v, err := New(1, "car", DefaultConfig(), body, phys.NewFlatWorld(0, 1), rec.sink())
	require.NoError(t, err)

	body.SetLinearVelocity(mgl64.Vec3{0, 0, 45.0 / 3.6})
	v.Step(core.Controls{}, 0.1)

	assert.Equal(t, 1, v.Gear())
	assert.Zero(t, rec.count(core.EventGearChange), "coasting shift is silent")
	assert.True(t, v.CanAccelerate())
}
