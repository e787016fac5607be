package circuit

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/cellwire/gologic/state"
)

// LevelTrace is a slog level below Debug, for per-component-evaluation
// tracing during a settle pass. Enabling it on a wide circuit is noisy;
// it exists for debugging a single failing scenario, not routine use.
const LevelTrace = slog.Level(-8)

// defaultLogger is used by Simulator methods that don't have one injected.
// Callers that want structured output routed elsewhere should build their
// own *slog.Logger and keep it alongside their Simulator.
var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

func traceEval(logger *slog.Logger, cid ComponentID, c *Component) {
	logger.Log(context.Background(), LevelTrace, "evaluate component", "id", cid, "kind", c.Kind, "name", c.Name)
}

// WithLogger attaches a structured logger to the Simulator, used for
// LevelTrace per-component-evaluation logging during RunSim. Without one
// set, the Simulator logs nothing.
func (s *Simulator) WithLogger(logger *slog.Logger) *Simulator {
	s.logger = logger
	return s
}

// Dump renders every wire's current resolved state as a human-readable
// table for debugging.
func (s *Simulator) Dump() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Wire", "Name", "Width", "State", "Conflict"})
	for i, w := range s.g.wires {
		conflict := "no"
		if state.AnyConflict(s.g.conflict[i]) {
			conflict = "yes"
		}
		t.AppendRow(table.Row{i, w.Name, w.Width, s.g.resolved[i].String(), conflict})
	}
	return t.Render()
}

// DumpComponents renders every component's kind, name, and port wiring.
func (s *Simulator) DumpComponents() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Component", "Name", "Kind", "Inputs", "Outputs"})
	for i, c := range s.g.components {
		t.AppendRow(table.Row{i, c.Name, c.Kind, fmt.Sprint(c.Inputs), fmt.Sprint(c.Outputs)})
	}
	return t.Render()
}
