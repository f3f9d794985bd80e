package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Track{},
	&Session{},
	&Vehicle{},
	&TickState{},
	&WheelState{},
	&SimEvent{},
	&RunnerPerformance{},
}

var DatabaseModelsSQLite = []interface{}{
	&Track{},
	&Session{},
	&Vehicle{},
	&TickState{},
	&WheelState{},
	&SimEvent{},
	&RunnerPerformance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// RunnerPerformance is the model for sim runner performance metrics
type RunnerPerformance struct {
	Time                time.Time    `json:"time" gorm:"type:timestamptz;index:idx_time"`
	SessionID           uint         `json:"sessionId" gorm:"index:idx_runnerperformance_session_id"`
	Session             Session      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	QueueLengths        QueueLengths `json:"queueLengths" gorm:"embedded;embeddedPrefix:queue_"`
	LastWriteDurationMs float32      `json:"lastWriteDurationMs"`
	TicksPerSecond      float32      `json:"ticksPerSecond"`
}

func (*RunnerPerformance) TableName() string {
	return "runner_performances"
}

// QueueLengths is the model for the write queue lengths
type QueueLengths struct {
	Ticks       uint16 `json:"ticks"`
	WheelStates uint16 `json:"wheelStates"`
	Events      uint16 `json:"events"`
}

////////////////////////
// RECORDING MODELS
////////////////////////

// Position is a world-space position or vector in meters. Y is up.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Track is the main model for a track
type Track struct {
	gorm.Model
	Name      string     `json:"name" gorm:"size:127"`
	Latitude  float64    `json:"latitude" gorm:"-"`
	Longitude float64    `json:"longitude" gorm:"-"`
	Elevation float64    `json:"elevation"`
	Location  geom.Point `json:"location"`
	Surfaces  int        `json:"surfaces"`
	Sessions  []Session
}

func (*Track) TableName() string {
	return "tracks"
}

func (t *Track) GetOrInsert(db *gorm.DB) (
	created bool,
	err error,
) {
	var existingTrack Track
	err = db.Where("name = ?", t.Name).First(&existingTrack).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// insert
			err = db.Create(t).Error
			return true, err
		}
		return false, err
	}
	// overwrite with db record if found
	*t = existingTrack
	return false, nil
}

// Session is the main model for a recording session
type Session struct {
	gorm.Model
	Name        string         `json:"name" gorm:"size:200"`
	Scenario    string         `json:"scenario" gorm:"size:200"`
	StartTime   time.Time      `json:"startTime" gorm:"type:timestamptz;index:idx_session_start"`
	EndTime     sql.NullTime   `json:"endTime" gorm:"type:timestamptz"`
	TickRate    int            `json:"tickRate"`
	TrackID     uint
	Track       Track          `gorm:"foreignkey:TrackID"`
	VehicleSpec datatypes.JSON `json:"vehicleSpec" gorm:"type:jsonb;default:'{}'"`
	Version     string         `json:"version" gorm:"size:64;default:1.0.0"`

	Vehicles    []Vehicle
	TickStates  []TickState
	WheelStates []WheelState
	SimEvents   []SimEvent
}

func (*Session) TableName() string {
	return "sessions"
}

// Vehicle is a simulated vehicle within a session
// Uses composite primary key (SessionID, RuntimeID) - RuntimeID is the runner-assigned sequential ID
type Vehicle struct {
	SessionID uint           `json:"sessionId" gorm:"primaryKey;autoIncrement:false"`
	RuntimeID uint16         `json:"runtimeId" gorm:"primaryKey;autoIncrement:false"`
	Session   Session        `gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"deletedAt" gorm:"index"`
	JoinTime  time.Time      `json:"joinTime" gorm:"type:timestamptz;NOT NULL;index:idx_vehicle_join_time"` // Wall time when the vehicle entered the session
	JoinTick  uint64         `json:"joinTick"`                                                              // Sim tick when the vehicle entered the session
	Name      string         `json:"name" gorm:"size:64"`
}

func (*Vehicle) TableName() string {
	return "vehicles"
}

// TickState tracks body-level vehicle state at a sim tick
// References Vehicle by (SessionID, VehicleRuntimeID) composite FK
type TickState struct {
	ID               uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time             time.Time `json:"time" gorm:"type:timestamptz;"`
	SessionID        uint      `json:"sessionId" gorm:"index:idx_tickstate_session_id"`
	Session          Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick             uint64    `json:"tick" gorm:"index:idx_tickstate_tick"`
	VehicleRuntimeID uint16    `json:"vehicleRuntimeId" gorm:"index:idx_tickstate_vehicle_runtime_id"`
	Vehicle          Vehicle   `gorm:"foreignkey:SessionID,VehicleRuntimeID;references:SessionID,RuntimeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	SimTime        float64  `json:"simTime"`                                 // Seconds since session start
	Position       Position `json:"position" gorm:"embedded;embeddedPrefix:pos_"`
	Velocity       Position `json:"velocity" gorm:"embedded;embeddedPrefix:vel_"` // World-space velocity in m/s
	SpeedKmh       float32  `json:"speedKmh"`
	Gear           uint8    `json:"gear"`                                    // 0-4
	DriftAngleDeg  float32  `json:"driftAngleDeg"`                           // Angle between heading and travel direction
	GroundedWheels uint8    `json:"groundedWheels"`                          // Count of wheels with ground contact
	Grounded       bool     `json:"grounded" gorm:"default:false"`           // Vehicle-level grounded (more than one wheel down)
	PitchDeg       float32  `json:"pitchDeg"`                                // Visual body tilt
	RollDeg        float32  `json:"rollDeg"`
}

func (*TickState) TableName() string {
	return "tick_states"
}

// WheelState tracks per-wheel state at a sim tick, four rows per vehicle tick
// References Vehicle by (SessionID, VehicleRuntimeID) composite FK
type WheelState struct {
	ID               uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time             time.Time `json:"time" gorm:"type:timestamptz;"`
	SessionID        uint      `json:"sessionId" gorm:"index:idx_wheelstate_session_id"`
	Session          Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick             uint64    `json:"tick" gorm:"index:idx_wheelstate_tick"`
	VehicleRuntimeID uint16    `json:"vehicleRuntimeId" gorm:"index:idx_wheelstate_vehicle_runtime_id"`
	Vehicle          Vehicle   `gorm:"foreignkey:SessionID,VehicleRuntimeID;references:SessionID,RuntimeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	WheelIndex  uint8   `json:"wheelIndex"`                    // 0=FL 1=FR 2=RL 3=RR
	Grounded    bool    `json:"grounded" gorm:"default:false"` // Wheel-level ground contact
	Offset      float32 `json:"offset"`                        // Normalized spring compression 0-1
	LateralSlip float32 `json:"lateralSlip"`                   // Sideways slip ratio 0-1
	ForwardSlip float32 `json:"forwardSlip"`                   // Spin vs ground speed mismatch -1..1
	Skid        float32 `json:"skid"`                          // Smoothed skid intensity 0-1
	Force       float32 `json:"force"`                         // Suspension force magnitude in N
	SteerDeg    float32 `json:"steerDeg"`                      // Steering angle, positive is right
	SpinRate    float32 `json:"spinRate"`                      // Visual spin in rad/s
	Drop        float32 `json:"drop"`                          // Visual drop below hardpoint in meters
}

func (*WheelState) TableName() string {
	return "wheel_states"
}

// SimEvent is a discrete simulation event such as a gear change or takeoff
type SimEvent struct {
	ID               uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time             time.Time      `json:"time" gorm:"type:timestamptz;"`
	SessionID        uint           `json:"sessionId" gorm:"index:idx_simevent_session_id"`
	Session          Session        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Tick             uint64         `json:"tick" gorm:"index:idx_simevent_tick"`
	VehicleRuntimeID uint16         `json:"vehicleRuntimeId"`
	Kind             string         `json:"kind" gorm:"size:32"`
	SimTime          float64        `json:"simTime"`
	Data             datatypes.JSON `json:"data" gorm:"type:jsonb;default:'{}'"`
}

func (*SimEvent) TableName() string {
	return "sim_events"
}
