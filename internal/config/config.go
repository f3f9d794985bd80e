// Package config reads axled.cfg.json through viper and materializes the
// typed sub-configs the daemon wires at startup. Vehicle tuning lives under
// the vehicle.* keys and becomes an immutable vehicle.Config at spawn.
package config

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"

	"github.com/axlesim/axle/internal/curve"
	"github.com/axlesim/axle/internal/vehicle"
	"github.com/axlesim/axle/pkg/core"
)

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds sqlite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the recording backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig holds the OpenTelemetry export settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// BodyConfig holds the rigid body parameters of the chassis
type BodyConfig struct {
	Mass        float64
	HalfExtents mgl64.Vec3
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("sim.tickRate", 50)
	viper.SetDefault("sim.realtime", false)
	viper.SetDefault("sim.streamBuffer", 256)

	viper.SetDefault("monitor.statusDir", ".")

	viper.SetDefault("api.serverUrl", "http://localhost:5000/api")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "axle")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "axle")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "./axle.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "axled")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	setVehicleDefaults()

	viper.SetConfigName("axled.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// setVehicleDefaults mirrors vehicle.DefaultConfig so a bare config file
// yields the stock hatchback tuning.
func setVehicleDefaults() {
	viper.SetDefault("vehicle.mass", 1200.0)
	viper.SetDefault("vehicle.halfExtents", []float64{0.9, 0.4, 2.1})
	viper.SetDefault("vehicle.hardpoints", [][]float64{
		{-0.8, -0.2, 1.3},
		{0.8, -0.2, 1.3},
		{-0.8, -0.2, -1.3},
		{0.8, -0.2, -1.3},
	})

	viper.SetDefault("vehicle.springForce", 6000.0)
	viper.SetDefault("vehicle.damper", 800.0)
	viper.SetDefault("vehicle.maxSpringDistance", 0.8)
	viper.SetDefault("vehicle.wheelRadius", 0.35)

	viper.SetDefault("vehicle.maxSpeed", 60.0)
	viper.SetDefault("vehicle.accel", 8.0)
	viper.SetDefault("vehicle.accelCurve", [][]float64{{0, 1}, {0.5, 0.8}, {1, 0.3}})
	viper.SetDefault("vehicle.inclineCurve", [][]float64{{0, 1}, {0.25, 0.3}, {0.5, 0}, {1, 0}})
	viper.SetDefault("vehicle.brakeAccel", 12.0)
	viper.SetDefault("vehicle.rollingResistance", 2.5)

	viper.SetDefault("vehicle.maxTurnAngle", 30.0)
	viper.SetDefault("vehicle.steerCurve", [][]float64{{0, 1}, {0.5, 0.7}, {1, 0.4}})
	viper.SetDefault("vehicle.autoCounterSteer", true)

	viper.SetDefault("vehicle.frictionCoeff", 1.0)
	viper.SetDefault("vehicle.driftFactor", 0.55)
	viper.SetDefault("vehicle.maxDriftAngle", 60.0)
	viper.SetDefault("vehicle.slopeSlideAngle", 35.0)
	viper.SetDefault("vehicle.lateralSlipCurve", [][]float64{{0, 0.2}, {0.3, 1}, {1, 0.8}})
	viper.SetDefault("vehicle.forwardSlipCurve", [][]float64{{0, 1}, {1, 0.4}})

	viper.SetDefault("vehicle.downForce", 5.0)
	viper.SetDefault("vehicle.airAngularDamping", 0.05)
	viper.SetDefault("vehicle.groundCentroid", []float64{0, -0.3, 0})
	viper.SetDefault("vehicle.airCentroid", []float64{0, 0, 0})

	viper.SetDefault("vehicle.gearThresholds", []float64{40, 80, 120, 160, 220})
	viper.SetDefault("vehicle.gearShiftTime", 0.3)

	viper.SetDefault("vehicle.maxWheelTravel", 0.25)
	viper.SetDefault("vehicle.forwardTilt", 5.0)
	viper.SetDefault("vehicle.sidewaysTilt", 6.0)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float64 config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// GetStorageConfig materializes the storage.* block.
func GetStorageConfig() StorageConfig {
	var sc StorageConfig
	_ = viper.UnmarshalKey("storage", &sc)
	return sc
}

// GetOTelConfig materializes the otel.* block.
func GetOTelConfig() OTelConfig {
	var oc OTelConfig
	_ = viper.UnmarshalKey("otel", &oc)
	return oc
}

// Body materializes the chassis parameters from the vehicle.* block.
func Body() (BodyConfig, error) {
	he, err := vec3(viper.Get("vehicle.halfExtents"))
	if err != nil {
		return BodyConfig{}, fmt.Errorf("vehicle.halfExtents: %w", err)
	}
	bc := BodyConfig{
		Mass:        viper.GetFloat64("vehicle.mass"),
		HalfExtents: he,
	}
	if bc.Mass <= 0 {
		return BodyConfig{}, fmt.Errorf("vehicle.mass %v must be positive", bc.Mass)
	}
	return bc, nil
}

// Vehicle materializes the vehicle.* tuning block into an immutable
// vehicle.Config and validates it.
func Vehicle() (vehicle.Config, error) {
	cfg := vehicle.Config{
		SpringForce:       viper.GetFloat64("vehicle.springForce"),
		Damper:            viper.GetFloat64("vehicle.damper"),
		MaxSpringDistance: viper.GetFloat64("vehicle.maxSpringDistance"),
		WheelRadius:       viper.GetFloat64("vehicle.wheelRadius"),

		MaxSpeed:          viper.GetFloat64("vehicle.maxSpeed"),
		Accel:             viper.GetFloat64("vehicle.accel"),
		BrakeAccel:        viper.GetFloat64("vehicle.brakeAccel"),
		RollingResistance: viper.GetFloat64("vehicle.rollingResistance"),

		MaxTurnAngleDeg:  viper.GetFloat64("vehicle.maxTurnAngle"),
		AutoCounterSteer: viper.GetBool("vehicle.autoCounterSteer"),

		FrictionCoeff:      viper.GetFloat64("vehicle.frictionCoeff"),
		DriftFactor:        viper.GetFloat64("vehicle.driftFactor"),
		MaxDriftAngleDeg:   viper.GetFloat64("vehicle.maxDriftAngle"),
		SlopeSlideAngleDeg: viper.GetFloat64("vehicle.slopeSlideAngle"),

		DownForce:         viper.GetFloat64("vehicle.downForce"),
		AirAngularDamping: viper.GetFloat64("vehicle.airAngularDamping"),

		GearShiftTime: viper.GetFloat64("vehicle.gearShiftTime"),

		MaxWheelTravel:  viper.GetFloat64("vehicle.maxWheelTravel"),
		ForwardTiltDeg:  viper.GetFloat64("vehicle.forwardTilt"),
		SidewaysTiltDeg: viper.GetFloat64("vehicle.sidewaysTilt"),
	}

	hp, err := pairList(viper.Get("vehicle.hardpoints"))
	if err != nil {
		return cfg, fmt.Errorf("vehicle.hardpoints: %w", err)
	}
	if len(hp) != core.WheelCount {
		return cfg, fmt.Errorf("vehicle.hardpoints: expected %d points, got %d", core.WheelCount, len(hp))
	}
	for i, p := range hp {
		if len(p) != 3 {
			return cfg, fmt.Errorf("vehicle.hardpoints[%d]: expected 3 components, got %d", i, len(p))
		}
		cfg.Hardpoints[i] = mgl64.Vec3{p[0], p[1], p[2]}
	}

	for _, c := range []struct {
		key  string
		dest *curve.Curve
	}{
		{"vehicle.accelCurve", &cfg.AccelCurve},
		{"vehicle.inclineCurve", &cfg.InclineCurve},
		{"vehicle.steerCurve", &cfg.SteerCurve},
		{"vehicle.lateralSlipCurve", &cfg.LateralSlipCurve},
		{"vehicle.forwardSlipCurve", &cfg.ForwardSlipCurve},
	} {
		pts, err := pairList(viper.Get(c.key))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", c.key, err)
		}
		cv, err := curve.FromPairs(pts)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", c.key, err)
		}
		*c.dest = cv
	}

	gc, err := vec3(viper.Get("vehicle.groundCentroid"))
	if err != nil {
		return cfg, fmt.Errorf("vehicle.groundCentroid: %w", err)
	}
	cfg.GroundCentroid = gc
	ac, err := vec3(viper.Get("vehicle.airCentroid"))
	if err != nil {
		return cfg, fmt.Errorf("vehicle.airCentroid: %w", err)
	}
	cfg.AirCentroid = ac

	th, err := floatList(viper.Get("vehicle.gearThresholds"))
	if err != nil {
		return cfg, fmt.Errorf("vehicle.gearThresholds: %w", err)
	}
	if len(th) != len(cfg.GearThresholdsKmh) {
		return cfg, fmt.Errorf("vehicle.gearThresholds: expected %d entries, got %d", len(cfg.GearThresholdsKmh), len(th))
	}
	copy(cfg.GearThresholdsKmh[:], th)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("vehicle config: %w", err)
	}
	return cfg, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// floatList accepts the shapes viper yields for a number list: the typed
// slice from SetDefault or the []any from a parsed JSON file.
func floatList(v any) ([]float64, error) {
	switch t := v.(type) {
	case []float64:
		return t, nil
	case []any:
		out := make([]float64, len(t))
		for i, e := range t {
			f, ok := toFloat(e)
			if !ok {
				return nil, fmt.Errorf("element %d is not a number (%T)", i, e)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a number list, got %T", v)
}

func pairList(v any) ([][]float64, error) {
	switch t := v.(type) {
	case [][]float64:
		return t, nil
	case []any:
		out := make([][]float64, len(t))
		for i, e := range t {
			fs, err := floatList(e)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			out[i] = fs
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a point list, got %T", v)
}

func vec3(v any) (mgl64.Vec3, error) {
	fs, err := floatList(v)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	if len(fs) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fs))
	}
	return mgl64.Vec3{fs[0], fs[1], fs[2]}, nil
}
