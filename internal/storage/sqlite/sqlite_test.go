package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axlesim/axle/internal/database"
	"github.com/axlesim/axle/internal/logging"
	"github.com/axlesim/axle/internal/model"
	"github.com/axlesim/axle/internal/session"
	"github.com/axlesim/axle/pkg/core"
)

func newTestBackend(t *testing.T, cfg Config) (*Backend, *session.Context) {
	t.Helper()

	sessionCtx := session.NewContext()

	b, err := New(cfg, logging.NewSlogManager(), sessionCtx)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	return b, sessionCtx
}

func TestNew(t *testing.T) {
	b, _ := newTestBackend(t, Config{})
	defer b.Close()

	assert.NotNil(t, b.Backend)
	assert.NotNil(t, b.db)
}

func TestEndSession_DumpsToDisk(t *testing.T) {
	dumpPath := filepath.Join(t.TempDir(), "session.db")
	b, _ := newTestBackend(t, Config{DumpPath: dumpPath})
	defer b.Close()

	coreSession := &core.SessionInfo{
		Name:      "dump test",
		Scenario:  "figure-eight",
		Track:     "Test Ring",
		StartTime: time.Now(),
		TickRate:  60,
	}
	coreTrack := &core.TrackInfo{Name: "Test Ring"}
	require.NoError(t, b.StartSession(coreSession, coreTrack))

	require.NoError(t, b.AddVehicle(&core.VehicleInfo{RuntimeID: 1, Name: "hatchback", JoinTime: time.Now()}))
	require.NoError(t, b.RecordTickSample(&core.TickSample{VehicleID: 1, Tick: 1, SimTime: 1.0 / 60.0}))

	require.NoError(t, b.EndSession())

	info, err := os.Stat(dumpPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// The dumped file is a standalone SQLite database with the session data.
	dumped, err := database.GetSqliteDBStandalone(dumpPath)
	require.NoError(t, err)

	var tickCount int64
	require.NoError(t, dumped.Model(&model.TickState{}).Where("session_id = ?", coreSession.ID).Count(&tickCount).Error)
	assert.Equal(t, int64(1), tickCount)

	var wheelCount int64
	require.NoError(t, dumped.Model(&model.WheelState{}).Where("session_id = ?", coreSession.ID).Count(&wheelCount).Error)
	assert.Equal(t, int64(core.WheelCount), wheelCount)
}

func TestEndSession_NoDumpPath(t *testing.T) {
	b, _ := newTestBackend(t, Config{})
	defer b.Close()

	coreSession := &core.SessionInfo{Name: "no dump", StartTime: time.Now(), TickRate: 60}
	require.NoError(t, b.StartSession(coreSession, &core.TrackInfo{Name: "Test Ring"}))
	assert.NoError(t, b.EndSession())
}

func TestGetExportedFilePath(t *testing.T) {
	dumpPath := filepath.Join(t.TempDir(), "export.db")
	b, _ := newTestBackend(t, Config{DumpPath: dumpPath})
	defer b.Close()

	assert.Equal(t, dumpPath, b.GetExportedFilePath())
}

func TestGetExportMetadata(t *testing.T) {
	dumpPath := filepath.Join(t.TempDir(), "meta.db")
	b, sessionCtx := newTestBackend(t, Config{DumpPath: dumpPath})
	defer b.Close()

	coreSession := &core.SessionInfo{
		Name:      "metadata run",
		Scenario:  "slalom",
		Track:     "Hill Course",
		StartTime: time.Now(),
		TickRate:  60,
	}
	coreTrack := &core.TrackInfo{Name: "Hill Course"}
	require.NoError(t, b.StartSession(coreSession, coreTrack))
	sessionCtx.SetSession(coreSession, coreTrack)
	sessionCtx.SetTick(120)

	require.NoError(t, b.AddVehicle(&core.VehicleInfo{RuntimeID: 1, Name: "coupe", JoinTime: time.Now()}))
	require.NoError(t, b.AddVehicle(&core.VehicleInfo{RuntimeID: 2, Name: "truck", JoinTime: time.Now()}))
	require.NoError(t, b.EndSession())

	meta := b.GetExportMetadata()
	assert.Equal(t, "metadata run", meta.SessionName)
	assert.Equal(t, "slalom", meta.Scenario)
	assert.Equal(t, "Hill Course", meta.Track)
	assert.Equal(t, 60, meta.TickRate)
	assert.Equal(t, 2, meta.Vehicles)
	assert.InDelta(t, 2.0, meta.DurationSec, 1e-9)
}
