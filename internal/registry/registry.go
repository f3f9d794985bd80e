package registry

import (
	"sync"

	"github.com/axlesim/axle/pkg/core"
)

// VehicleRegistry caches vehicles when they join the session to avoid
// subsequent db reads. Latency in these calls is critical to quickly
// process incoming tick data.
type VehicleRegistry struct {
	m        sync.Mutex
	Vehicles map[uint16]core.VehicleInfo
}

func NewVehicleRegistry() *VehicleRegistry {
	return &VehicleRegistry{
		m:        sync.Mutex{},
		Vehicles: make(map[uint16]core.VehicleInfo),
	}
}

func (r *VehicleRegistry) Reset() {
	r.m.Lock()
	defer r.m.Unlock()
	r.Vehicles = make(map[uint16]core.VehicleInfo)
}

func (r *VehicleRegistry) Get(id uint16) (core.VehicleInfo, bool) {
	r.m.Lock()
	defer r.m.Unlock()
	if v, ok := r.Vehicles[id]; ok {
		return v, true
	}
	return core.VehicleInfo{}, false
}

func (r *VehicleRegistry) Add(v core.VehicleInfo) {
	r.m.Lock()
	defer r.m.Unlock()
	r.Vehicles[v.RuntimeID] = v
}

func (r *VehicleRegistry) Count() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.Vehicles)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
