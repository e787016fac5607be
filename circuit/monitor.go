package circuit

import "github.com/sarchlab/akita/v4/monitoring"

// RunStats is a snapshot of the scheduler's own bookkeeping, the fields an
// embedding application (e.g. a schematic editor polling engine health)
// would want from a monitor without adding I/O to the settle loop itself.
type RunStats struct {
	LastSteps     int
	LastStatus    RunStatus
	ConflictWires int
}

// WithMonitor attaches an akita monitoring.Monitor for diagnostics. The
// scheduler here is a synchronous, bounded-step state machine rather than a
// sim.Component driven by a VTimeInSec engine (the same reason mem.Storage
// is used directly for RAM/ROM cells instead of the full akita event-time
// machinery), so Simulator does not register itself as a monitored
// component the way a sim.TickingComponent would with RegisterComponent.
// Instead the monitor is kept so an embedder can poll Stats() and publish it
// under whatever fields their own akita integration expects.
func (s *Simulator) WithMonitor(m *monitoring.Monitor) *Simulator {
	s.monitor = m
	return s
}

// Stats reports the outcome of the most recently completed RunSim/
// RunSimParallel call.
func (s *Simulator) Stats() RunStats {
	return s.lastStats
}
