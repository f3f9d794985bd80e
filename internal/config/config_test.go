package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axlesim/axle/internal/vehicle"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "axled.cfg.json"), []byte(contents), 0o644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./logs", viper.GetString("logsDir"))
	assert.Equal(t, 50, viper.GetInt("sim.tickRate"))
	assert.Equal(t, false, viper.GetBool("sim.realtime"))
	assert.Equal(t, 256, viper.GetInt("sim.streamBuffer"))
	assert.Equal(t, "http://localhost:5000/api", viper.GetString("api.serverUrl"))
	assert.Equal(t, "", viper.GetString("api.apiKey"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, "postgres", viper.GetString("db.username"))
	assert.Equal(t, "postgres", viper.GetString("db.password"))
	assert.Equal(t, "axle", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "localhost", viper.GetString("influx.host"))
	assert.Equal(t, "8086", viper.GetString("influx.port"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "./recordings", viper.GetString("storage.memory.outputDir"))
	assert.Equal(t, true, viper.GetBool("storage.memory.compressOutput"))
	assert.Equal(t, "./axle.db", viper.GetString("storage.sqlite.path"))
	assert.Equal(t, "3m", viper.GetString("storage.sqlite.dumpInterval"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "axled", viper.GetString("otel.serviceName"))
	assert.Equal(t, "5s", viper.GetString("otel.batchTimeout"))
	assert.Equal(t, "", viper.GetString("otel.endpoint"))
	assert.Equal(t, true, viper.GetBool("otel.insecure"))
	assert.Equal(t, 1200.0, viper.GetFloat64("vehicle.mass"))
	assert.Equal(t, 60.0, viper.GetFloat64("vehicle.maxSpeed"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestTypedGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	viper.Set("testInt", 42)
	viper.Set("testBool", true)
	viper.Set("testFloat", 2.5)

	assert.Equal(t, "testValue", GetString("testKey"))
	assert.Equal(t, 42, GetInt("testInt"))
	assert.Equal(t, true, GetBool("testBool"))
	assert.Equal(t, 2.5, GetFloat("testFloat"))
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "memory", sc.Type)
	assert.Equal(t, "./recordings", sc.Memory.OutputDir)
	assert.Equal(t, true, sc.Memory.CompressOutput)
	assert.Equal(t, "./axle.db", sc.SQLite.Path)
	assert.Equal(t, 3*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false },
			"sqlite": { "path": "/tmp/axle.db", "dumpInterval": "10m" }
		}
	}`)
	require.NoError(t, Load(dir))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, false, sc.Memory.CompressOutput)
	assert.Equal(t, "/tmp/axle.db", sc.SQLite.Path)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	oc := GetOTelConfig()
	assert.Equal(t, false, oc.Enabled)
	assert.Equal(t, "axled", oc.ServiceName)
	assert.Equal(t, 5*time.Second, oc.BatchTimeout)
	assert.Equal(t, "", oc.Endpoint)
	assert.Equal(t, true, oc.Insecure)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"endpoint": "localhost:4317",
			"insecure": false
		}
	}`)
	require.NoError(t, Load(dir))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4317", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestVehicle_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg, err := Vehicle()
	require.NoError(t, err)

	// A bare config file must reproduce the stock tuning exactly.
	assert.Equal(t, vehicle.DefaultConfig(), cfg)
}

func TestVehicle_OverridesFromFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"vehicle": {
			"maxSpeed": 80,
			"accelCurve": [[0, 1], [1, 0.5]]
		}
	}`)
	require.NoError(t, Load(dir))

	cfg, err := Vehicle()
	require.NoError(t, err)

	assert.Equal(t, 80.0, cfg.MaxSpeed)
	assert.InDelta(t, 0.75, cfg.AccelCurve.Eval(0.5), 1e-12)
	// Untouched keys keep their defaults.
	assert.Equal(t, 6000.0, cfg.SpringForce)
}

func TestVehicle_BadCurve(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{"vehicle": {"accelCurve": [[0, 1]]}}`)
	require.NoError(t, Load(dir))

	_, err := Vehicle()
	assert.Error(t, err)
}

func TestVehicle_BadHardpoints(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{"vehicle": {"hardpoints": [[0, 0, 1], [1, 0, 1], [0, 0, -1]]}}`)
	require.NoError(t, Load(dir))

	_, err := Vehicle()
	assert.Error(t, err)
}

func TestBody_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	bc, err := Body()
	require.NoError(t, err)
	assert.Equal(t, 1200.0, bc.Mass)
	assert.Equal(t, mgl64.Vec3{0.9, 0.4, 2.1}, bc.HalfExtents)
}

func TestBody_BadMass(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{"vehicle": {"mass": -10}}`)
	require.NoError(t, Load(dir))

	_, err := Body()
	assert.Error(t, err)
}
