package track

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTrackJSON defines a track at the null island origin with an ice patch
// roughly 111 m on a side centred on the origin (0.001 degrees at the
// equator is about 111 m in web mercator).
const testTrackJSON = `{
	"name": "proving-ground",
	"longitude": 0.002,
	"latitude": 0.002,
	"elevation": 12.5,
	"defaultGrip": 1.0,
	"surfaces": [
		{
			"kind": "ice",
			"grip": 0.3,
			"outline": [[0.0015, 0.0015], [0.0025, 0.0015], [0.0025, 0.0025], [0.0015, 0.0025]]
		},
		{
			"kind": "gravel",
			"grip": 0.7,
			"outline": [[0.004, 0.0015], [0.005, 0.0015], [0.005, 0.0025], [0.004, 0.0025]]
		}
	]
}`

func writeTrack(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tr, err := Load(writeTrack(t, testTrackJSON))
	require.NoError(t, err)

	assert.Equal(t, "proving-ground", tr.Name)
	assert.Equal(t, 12.5, tr.Elevation)
	assert.Len(t, tr.Surfaces(), 2)

	info := tr.Info()
	assert.Equal(t, 2, info.Surfaces)
	assert.Equal(t, 0.002, info.Longitude)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeTrack(t, `{not json`))
	assert.Error(t, err)

	_, err = Load(writeTrack(t, `{
		"name": "bad", "longitude": 1, "latitude": 1,
		"surfaces": [{"kind": "ice", "grip": 0.3, "outline": [[0,0],[1,1]]}]
	}`))
	assert.Error(t, err, "two-point outline must be rejected")

	_, err = Load(writeTrack(t, `{
		"name": "bad", "longitude": 1, "latitude": 1,
		"surfaces": [{"kind": "ice", "grip": 0, "outline": [[0,0],[0.001,0],[0.001,0.001]]}]
	}`))
	assert.Error(t, err, "zero grip must be rejected")
}

func TestSurfaceAt(t *testing.T) {
	tr, err := Load(writeTrack(t, testTrackJSON))
	require.NoError(t, err)

	// The ice patch is centred on the track origin.
	s, ok := tr.SurfaceAt(0, 0)
	require.True(t, ok)
	assert.Equal(t, "ice", s.Kind)
	assert.Equal(t, 0.3, s.Grip)

	// The gravel patch sits about 280 m east of the origin.
	s, ok = tr.SurfaceAt(280, 0)
	require.True(t, ok)
	assert.Equal(t, "gravel", s.Kind)

	// Far away from both patches.
	_, ok = tr.SurfaceAt(5000, 5000)
	assert.False(t, ok)
	assert.Equal(t, 1.0, tr.GripAt(5000, 5000), "default grip off-patch")
	assert.Equal(t, 0.3, tr.GripAt(0, 0))
}

func TestFlat(t *testing.T) {
	tr := Flat("pad", 0.9)
	_, ok := tr.SurfaceAt(123, -456)
	assert.False(t, ok)
	assert.Equal(t, 0.9, tr.GripAt(123, -456))
	assert.Equal(t, 0, tr.Info().Surfaces)
}

func TestWorld_SphereCast(t *testing.T) {
	tr, err := Load(writeTrack(t, testTrackJSON))
	require.NoError(t, err)
	w := NewWorld(tr)

	// Cast onto the ice patch at the origin.
	hit, ok := w.SphereCast(mgl64.Vec3{0, 14, 0}, mgl64.Vec3{0, -1, 0}, 0.35, 3)
	require.True(t, ok)
	assert.InDelta(t, 12.5, hit.Point.Y(), 1e-9, "contact on the elevation plane")
	assert.Equal(t, 0.3, hit.Grip)

	// Off-patch contact falls back to the default grip.
	hit, ok = w.SphereCast(mgl64.Vec3{5000, 14, 5000}, mgl64.Vec3{0, -1, 0}, 0.35, 3)
	require.True(t, ok)
	assert.Equal(t, 1.0, hit.Grip)

	// Above the reach of the cast.
	_, ok = w.SphereCast(mgl64.Vec3{0, 50, 0}, mgl64.Vec3{0, -1, 0}, 0.35, 3)
	assert.False(t, ok)
}
