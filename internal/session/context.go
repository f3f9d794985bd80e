package session

import (
	"sync"
	"sync/atomic"

	"github.com/axlesim/axle/pkg/core"
)

// Context holds the current session and track state
type Context struct {
	mu      sync.RWMutex
	Session *core.SessionInfo
	Track   *core.TrackInfo

	tick atomic.Uint64
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		Session: &core.SessionInfo{Name: "No session loaded"},
		Track:   &core.TrackInfo{Name: "No track loaded"},
	}
}

// GetSession returns the current session
func (sc *Context) GetSession() *core.SessionInfo {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.Session
}

// GetTrack returns the current track
func (sc *Context) GetTrack() *core.TrackInfo {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.Track
}

// SetSession sets the current session and track
func (sc *Context) SetSession(session *core.SessionInfo, track *core.TrackInfo) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.Session = session
	sc.Track = track
}

// SetTick records the most recent sim tick. The runner updates it every
// tick so log records and status output can carry the sim position.
func (sc *Context) SetTick(tick uint64) {
	sc.tick.Store(tick)
}

// Tick returns the most recent sim tick
func (sc *Context) Tick() uint64 {
	return sc.tick.Load()
}
