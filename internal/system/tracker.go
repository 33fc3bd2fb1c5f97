package system

import "github.com/l1jgo/causetrack/internal/world"

// Tracker is what the tick systems need from the phase tracker.
type Tracker interface {
	world.Recorder
	Run(name string, source any, fn func() error) error
}
