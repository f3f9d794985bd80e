package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/axlesim/axle/pkg/core"
)

func TestContext_Defaults(t *testing.T) {
	ctx := NewContext()

	s := ctx.GetSession()
	assert.Equal(t, "No session loaded", s.Name)

	track := ctx.GetTrack()
	assert.Equal(t, "No track loaded", track.Name)

	assert.Equal(t, uint64(0), ctx.Tick())
}

func TestContext_SetSession(t *testing.T) {
	ctx := NewContext()

	ctx.SetSession(
		&core.SessionInfo{Name: "morning-run", StartTime: time.Now(), TickRate: 50},
		&core.TrackInfo{Name: "proving-ground"},
	)

	assert.Equal(t, "morning-run", ctx.GetSession().Name)
	assert.Equal(t, 50, ctx.GetSession().TickRate)
	assert.Equal(t, "proving-ground", ctx.GetTrack().Name)
}

func TestContext_Tick(t *testing.T) {
	ctx := NewContext()

	ctx.SetTick(42)
	assert.Equal(t, uint64(42), ctx.Tick())

	ctx.SetTick(43)
	assert.Equal(t, uint64(43), ctx.Tick())
}
