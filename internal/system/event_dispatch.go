package system

import (
	"time"

	"github.com/l1jgo/causetrack/internal/core/event"
	coresys "github.com/l1jgo/causetrack/internal/core/system"
)

// EventDispatchSystem delivers the events emitted on the deferred lane during
// the previous stages, such as commit summaries. Stage 3 (Events).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Stage() coresys.Stage { return coresys.StageEvents }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
