package influx

import (
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/axlesim/axle/internal/model"
	"github.com/axlesim/axle/pkg/core"
)

// TickSamplePoint converts a body sample into a point for the sim_ticks bucket.
func TickSamplePoint(session string, s *core.TickSample, at time.Time) *influxdb2_write.Point {
	return influxdb2.NewPoint(
		"tick",
		map[string]string{
			"session": session,
			"vehicle": strconv.Itoa(int(s.VehicleID)),
		},
		map[string]interface{}{
			"tick":            int64(s.Tick),
			"speed_kmh":       s.SpeedKmh,
			"gear":            s.Gear,
			"drift_angle_deg": s.DriftAngleDeg,
			"grounded_wheels": s.GroundedWheels,
			"pitch_deg":       s.PitchDeg,
			"roll_deg":        s.RollDeg,
			"pos_x":           s.Position.X,
			"pos_y":           s.Position.Y,
			"pos_z":           s.Position.Z,
		},
		at,
	)
}

// WheelSamplePoints converts the four wheel samples into points for the wheel_ticks bucket.
func WheelSamplePoints(session string, s *core.TickSample, at time.Time) []*influxdb2_write.Point {
	points := make([]*influxdb2_write.Point, 0, core.WheelCount)
	for i, w := range s.Wheels {
		points = append(points, influxdb2.NewPoint(
			"wheel",
			map[string]string{
				"session": session,
				"vehicle": strconv.Itoa(int(s.VehicleID)),
				"wheel":   strconv.Itoa(i),
			},
			map[string]interface{}{
				"grounded":     w.Grounded,
				"offset":       w.Offset,
				"lateral_slip": w.LateralSlip,
				"forward_slip": w.ForwardSlip,
				"skid":         w.Skid,
				"force":        w.Force,
				"steer_deg":    w.SteerDeg,
				"spin_rate":    w.SpinRate,
				"drop":         w.Drop,
			},
			at,
		))
	}
	return points
}

// EventPoint converts a sim event into a point for the sim_events bucket.
func EventPoint(session string, e *core.SimEvent) *influxdb2_write.Point {
	return influxdb2.NewPoint(
		"event",
		map[string]string{
			"session": session,
			"vehicle": strconv.Itoa(int(e.VehicleID)),
			"kind":    string(e.Kind),
		},
		map[string]interface{}{
			"tick":     int64(e.Tick),
			"sim_time": e.SimTime,
		},
		e.Time,
	)
}

// PerformancePoint converts a runner performance snapshot into a point
// for the runner_performance bucket.
func PerformancePoint(p *model.RunnerPerformance) *influxdb2_write.Point {
	return influxdb2.NewPoint(
		"runner",
		map[string]string{
			"session": strconv.Itoa(int(p.SessionID)),
		},
		map[string]interface{}{
			"queue_ticks":        int(p.QueueLengths.Ticks),
			"queue_wheel_states": int(p.QueueLengths.WheelStates),
			"queue_events":       int(p.QueueLengths.Events),
			"last_write_ms":      p.LastWriteDurationMs,
			"ticks_per_second":   p.TicksPerSecond,
		},
		p.Time,
	)
}
