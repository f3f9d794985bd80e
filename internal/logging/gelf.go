package logging

import (
	"fmt"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogWriter connects a GELF writer to the given Graylog endpoint.
// The returned writer is passed to Setup as an extra sink, so every record
// also ships to Graylog. UDP, so a dead endpoint degrades silently rather
// than blocking the sim.
func NewGraylogWriter(addr string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to graylog at %s: %w", addr, err)
	}
	w.Facility = "axled"
	return w, nil
}
