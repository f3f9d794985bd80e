package worker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/axlesim/axle/internal/dispatcher"
	"github.com/axlesim/axle/internal/logging"
	"github.com/axlesim/axle/internal/model"
	"github.com/axlesim/axle/internal/registry"
	"github.com/axlesim/axle/internal/session"
	"github.com/axlesim/axle/pkg/core"
)

// mockLogger implements dispatcher.Logger for testing
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *mockLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *mockLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

// mockBackend implements storage.Backend for testing
type mockBackend struct {
	mu sync.Mutex

	vehicles []*core.VehicleInfo
	samples  []*core.TickSample
	events   []*core.SimEvent

	initCalled     bool
	closeCalled    bool
	sessionStarted bool
	sessionEnded   bool
	endSessionErr  error
}

func (b *mockBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initCalled = true
	return nil
}

func (b *mockBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeCalled = true
	return nil
}

func (b *mockBackend) StartSession(session *core.SessionInfo, track *core.TrackInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessionStarted = true
	return nil
}

func (b *mockBackend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.endSessionErr != nil {
		return b.endSessionErr
	}
	b.sessionEnded = true
	return nil
}

func (b *mockBackend) AddVehicle(v *core.VehicleInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vehicles = append(b.vehicles, v)
	return nil
}

func (b *mockBackend) RecordTickSample(s *core.TickSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, s)
	return nil
}

func (b *mockBackend) RecordEvent(e *core.SimEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

func (b *mockBackend) sampleCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

func newTestDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(&mockLogger{})
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	return d
}

func newTestManager() (*Manager, *mockBackend, Dependencies) {
	backend := &mockBackend{}
	deps := Dependencies{
		Registry:       registry.NewVehicleRegistry(),
		LogManager:     logging.NewSlogManager(),
		SessionContext: session.NewContext(),
	}
	return NewManager(deps, backend), backend, deps
}

func testSessionStart() SessionStart {
	return SessionStart{
		Session: &core.SessionInfo{
			Name:      "Test Session",
			Scenario:  "figure-eight",
			Track:     "Test Ring",
			StartTime: time.Now(),
			TickRate:  60,
		},
		Track: &core.TrackInfo{Name: "Test Ring"},
	}
}

func TestNewManager(t *testing.T) {
	manager, _, _ := newTestManager()

	if manager == nil {
		t.Fatal("expected non-nil manager")
	}
	if d := manager.GetLastDBWriteDuration(); d != 0 {
		t.Errorf("expected 0 write duration for plain backend, got %v", d)
	}
	if q := manager.GetQueueLengths(); q != (model.QueueLengths{}) {
		t.Errorf("expected zero queue lengths for plain backend, got %+v", q)
	}
}

func TestRegisterHandlers_RegistersAllCommands(t *testing.T) {
	d := newTestDispatcher(t)
	manager, _, _ := newTestManager()

	manager.RegisterHandlers(d)

	expectedCommands := []string{
		":SESSION:START:",
		":SESSION:END:",
		":NEW:VEHICLE:",
		":TICK:",
		":EVENT:",
	}

	for _, cmd := range expectedCommands {
		if !d.HasHandler(cmd) {
			t.Errorf("expected handler for %s to be registered", cmd)
		}
	}
}

func TestHandleSessionStart(t *testing.T) {
	manager, backend, deps := newTestManager()

	// A vehicle from a previous session should not survive the reset
	deps.Registry.Add(core.VehicleInfo{RuntimeID: 9, Name: "stale"})

	result, err := manager.handleSessionStart(dispatcher.Event{
		Command: ":SESSION:START:",
		Payload: testSessionStart(),
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %v", result)
	}
	if !backend.sessionStarted {
		t.Error("expected backend.StartSession to be called")
	}
	if deps.Registry.Count() != 0 {
		t.Errorf("expected registry reset, got %d vehicles", deps.Registry.Count())
	}
	if got := deps.SessionContext.GetSession().Name; got != "Test Session" {
		t.Errorf("expected session context updated, got name %q", got)
	}
}

func TestHandleSessionStart_BadPayload(t *testing.T) {
	manager, _, _ := newTestManager()

	_, err := manager.handleSessionStart(dispatcher.Event{
		Command: ":SESSION:START:",
		Payload: "not a session",
	})
	if err == nil {
		t.Error("expected error for wrong payload type")
	}

	_, err = manager.handleSessionStart(dispatcher.Event{
		Command: ":SESSION:START:",
		Payload: SessionStart{},
	})
	if err == nil {
		t.Error("expected error for missing session and track")
	}
}

func TestHandleSessionEnd(t *testing.T) {
	manager, backend, _ := newTestManager()

	_, err := manager.handleSessionEnd(dispatcher.Event{Command: ":SESSION:END:"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !backend.sessionEnded {
		t.Error("expected backend.EndSession to be called")
	}
}

func TestHandleSessionEnd_BackendError(t *testing.T) {
	manager, backend, _ := newTestManager()
	backend.endSessionErr = errors.New("disk full")

	_, err := manager.handleSessionEnd(dispatcher.Event{Command: ":SESSION:END:"})
	if err == nil {
		t.Error("expected backend error to propagate")
	}
}

func TestHandleNewVehicle(t *testing.T) {
	manager, backend, deps := newTestManager()

	v := &core.VehicleInfo{RuntimeID: 3, Name: "hatchback", JoinTick: 5}
	_, err := manager.handleNewVehicle(dispatcher.Event{Command: ":NEW:VEHICLE:", Payload: v})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(backend.vehicles) != 1 {
		t.Fatalf("expected 1 vehicle in backend, got %d", len(backend.vehicles))
	}

	// Verify vehicle is also in the registry
	cached, found := deps.Registry.Get(3)
	if !found {
		t.Fatal("expected vehicle to be cached in registry")
	}
	if cached.Name != "hatchback" {
		t.Errorf("expected cached vehicle name 'hatchback', got '%s'", cached.Name)
	}
}

func TestHandleTickSample_TooEarly(t *testing.T) {
	manager, backend, _ := newTestManager()

	_, err := manager.handleTickSample(dispatcher.Event{
		Command: ":TICK:",
		Payload: core.TickSample{VehicleID: 42, Tick: 1},
	})
	if !errors.Is(err, ErrTooEarlyForStateAssociation) {
		t.Errorf("expected ErrTooEarlyForStateAssociation, got %v", err)
	}
	if len(backend.samples) != 0 {
		t.Error("expected no samples recorded for unregistered vehicle")
	}
}

func TestHandleTickSample(t *testing.T) {
	manager, backend, deps := newTestManager()
	deps.Registry.Add(core.VehicleInfo{RuntimeID: 1, Name: "coupe"})

	_, err := manager.handleTickSample(dispatcher.Event{
		Command: ":TICK:",
		Payload: core.TickSample{VehicleID: 1, Tick: 7, SpeedKmh: 55.0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(backend.samples) != 1 {
		t.Fatalf("expected 1 sample in backend, got %d", len(backend.samples))
	}
	if backend.samples[0].Tick != 7 {
		t.Errorf("expected tick 7, got %d", backend.samples[0].Tick)
	}
}

func TestHandleSimEvent(t *testing.T) {
	manager, backend, _ := newTestManager()

	_, err := manager.handleSimEvent(dispatcher.Event{
		Command: ":EVENT:",
		Payload: core.SimEvent{VehicleID: 1, Kind: core.EventTakeoff, Tick: 12},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(backend.events) != 1 {
		t.Fatalf("expected 1 event in backend, got %d", len(backend.events))
	}
	if backend.events[0].Kind != core.EventTakeoff {
		t.Errorf("expected takeoff event, got %s", backend.events[0].Kind)
	}
}

func TestDispatchTickSample_Buffered(t *testing.T) {
	d := newTestDispatcher(t)
	manager, backend, deps := newTestManager()
	manager.RegisterHandlers(d)

	deps.Registry.Add(core.VehicleInfo{RuntimeID: 1, Name: "coupe"})

	result, err := d.Dispatch(dispatcher.Event{
		Command: ":TICK:",
		Payload: core.TickSample{VehicleID: 1, Tick: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "queued" {
		t.Errorf("expected queued result, got %v", result)
	}

	// The handler runs on the buffer goroutine
	deadline := time.Now().Add(2 * time.Second)
	for backend.sampleCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("sample never reached the backend")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// durationBackend exposes a DB write duration for monitoring
type durationBackend struct {
	mockBackend
}

func (b *durationBackend) GetLastDBWriteDuration() time.Duration {
	return 42 * time.Millisecond
}

func (b *durationBackend) GetQueueLengths() model.QueueLengths {
	return model.QueueLengths{Ticks: 3, WheelStates: 12, Events: 1}
}

func TestProviderPassthrough(t *testing.T) {
	deps := Dependencies{
		Registry:       registry.NewVehicleRegistry(),
		LogManager:     logging.NewSlogManager(),
		SessionContext: session.NewContext(),
	}
	manager := NewManager(deps, &durationBackend{})

	if d := manager.GetLastDBWriteDuration(); d != 42*time.Millisecond {
		t.Errorf("expected 42ms write duration, got %v", d)
	}
	q := manager.GetQueueLengths()
	if q.Ticks != 3 || q.WheelStates != 12 || q.Events != 1 {
		t.Errorf("unexpected queue lengths: %+v", q)
	}
}
