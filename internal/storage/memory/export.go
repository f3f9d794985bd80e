package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/axlesim/axle/pkg/core"
)

// AxleExport is the root JSON structure consumed by the replay player
type AxleExport struct {
	Version     string        `json:"version"`
	SessionName string        `json:"sessionName"`
	Scenario    string        `json:"scenario"`
	TrackName   string        `json:"trackName"`
	TickRate    int           `json:"tickRate"`
	EndTick     uint64        `json:"endTick"`
	DurationSec float64       `json:"durationSec"`
	Vehicles    []VehicleJSON `json:"vehicles"`
	Events      [][]any       `json:"events"`
}

// VehicleJSON represents one vehicle and its per-tick frames
type VehicleJSON struct {
	ID       uint16  `json:"id"`
	Name     string  `json:"name"`
	JoinTick uint64  `json:"joinTick"`
	Frames   [][]any `json:"frames"`
}

// exportJSON writes the session data to a JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	// Build filename
	sessionName := strings.ReplaceAll(b.session.Name, " ", "_")
	sessionName = strings.ReplaceAll(sessionName, ":", "_")
	timestamp := b.session.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", sessionName, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", sessionName, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() AxleExport {
	endTick, duration := b.endOfSession()

	export := AxleExport{
		Version:     b.session.Version,
		SessionName: b.session.Name,
		Scenario:    b.session.Scenario,
		TrackName:   b.track.Name,
		TickRate:    b.session.TickRate,
		EndTick:     endTick,
		DurationSec: duration,
		Vehicles:    make([]VehicleJSON, 0, len(b.vehicles)),
		Events:      make([][]any, 0, len(b.events)),
	}

	// Stable vehicle order by runtime ID
	ids := make([]int, 0, len(b.vehicles))
	for id := range b.vehicles {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	for _, id := range ids {
		record := b.vehicles[uint16(id)]
		vehicle := VehicleJSON{
			ID:       record.Vehicle.RuntimeID,
			Name:     record.Vehicle.Name,
			JoinTick: record.Vehicle.JoinTick,
			Frames:   make([][]any, 0, len(record.Samples)),
		}

		// Format: [tick, [x,y,z], speedKmh, gear, driftAngleDeg, grounded, [pitchDeg, rollDeg], wheels]
		// Where wheels is: [[steerDeg, spinRate, drop, skid], ...] in FL, FR, RL, RR order
		for _, s := range record.Samples {
			wheels := make([][]any, 0, core.WheelCount)
			for _, w := range s.Wheels {
				wheels = append(wheels, []any{w.SteerDeg, w.SpinRate, w.Drop, w.Skid})
			}
			frame := []any{
				s.Tick,
				[]float64{s.Position.X, s.Position.Y, s.Position.Z},
				s.SpeedKmh,
				s.Gear,
				s.DriftAngleDeg,
				boolToInt(s.Grounded),
				[]float64{s.PitchDeg, s.RollDeg},
				wheels,
			}
			vehicle.Frames = append(vehicle.Frames, frame)
		}

		export.Vehicles = append(export.Vehicles, vehicle)
	}

	// Convert events
	// Format: [tick, "kind", vehicleId, data]
	for _, evt := range b.events {
		export.Events = append(export.Events, []any{
			evt.Tick,
			string(evt.Kind),
			evt.VehicleID,
			evt.Data,
		})
	}

	return export
}

// endOfSession returns the highest recorded tick and the sim time it maps to.
func (b *Backend) endOfSession() (uint64, float64) {
	var endTick uint64
	var duration float64
	for _, record := range b.vehicles {
		for _, s := range record.Samples {
			if s.Tick > endTick {
				endTick = s.Tick
			}
			if s.SimTime > duration {
				duration = s.SimTime
			}
		}
	}
	return endTick, duration
}

// GetExportedFilePath returns the path of the last exported file
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the exported session for upload
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.session == nil {
		return core.UploadMetadata{}
	}

	_, duration := b.endOfSession()
	trackName := ""
	if b.track != nil {
		trackName = b.track.Name
	}

	return core.UploadMetadata{
		SessionName: b.session.Name,
		Scenario:    b.session.Scenario,
		Track:       trackName,
		TickRate:    b.session.TickRate,
		Vehicles:    len(b.vehicles),
		DurationSec: duration,
	}
}

func (b *Backend) writeJSON(path string, data AxleExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data AxleExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
