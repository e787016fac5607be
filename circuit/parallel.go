package circuit

import (
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/cpu"

	"github.com/cellwire/gologic/state"
)

// workerCount sizes the parallel scheduler's goroutine pool from the host's
// logical core count rather than a hardcoded literal. gopsutil's probe can
// fail in sandboxed/containerized environments, in which case runtime.NumCPU
// is the fallback.
func workerCount() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// ensureLevels computes, once, a static wavefront partition of the
// component set: level i can only be evaluated once every component in
// levels 0..i-1 has produced its outputs. A component's dependencies are
// the drivers of the wires in its fanoutSources() (the same set that
// determines whether a wire change re-queues it in the serial scheduler),
// so Register has none (its output never depends combinationally on an
// input) and RAM depends only on whatever drives readAddr.
//
// A netlist with a genuine combinational feedback loop (no register
// breaking the cycle) has no valid level assignment; ensureLevels reports
// acyclic=false and RunSimParallel falls back to the serial scheduler,
// which tolerates such loops by iterating to a fixpoint or MaxStepsReached
// instead of requiring a static order.
func (g *Graph) ensureLevels() {
	if g.levelsComputed {
		return
	}
	g.levelsComputed = true

	n := len(g.components)
	drivers := make([][]ComponentID, len(g.wires))
	for ci := range g.components {
		c := &g.components[ci]
		for _, w := range c.Outputs {
			drivers[w] = append(drivers[w], ComponentID(ci))
		}
	}

	deps := make([][]ComponentID, n)
	indegree := make([]int, n)
	seen := make([]map[ComponentID]bool, n)
	for ci := range g.components {
		seen[ci] = make(map[ComponentID]bool)
	}
	for ci := range g.components {
		c := &g.components[ci]
		for _, w := range c.fanoutSources() {
			for _, d := range drivers[w] {
				if seen[ci][d] {
					continue
				}
				seen[ci][d] = true
				deps[ci] = append(deps[ci], d)
				indegree[ci]++
			}
		}
	}

	// dependents[d] lists components that depend on d, for Kahn's algorithm.
	dependents := make([][]ComponentID, n)
	for ci := range g.components {
		for _, d := range deps[ci] {
			dependents[d] = append(dependents[d], ComponentID(ci))
		}
	}

	remaining := indegree
	var levels [][]ComponentID
	placed := make([]bool, n)
	total := 0
	for total < n {
		var level []ComponentID
		for ci := 0; ci < n; ci++ {
			if !placed[ci] && remaining[ci] == 0 {
				level = append(level, ComponentID(ci))
			}
		}
		if len(level) == 0 {
			g.acyclic = false
			return
		}
		for _, ci := range level {
			placed[ci] = true
			for _, dep := range dependents[ci] {
				remaining[dep]--
			}
		}
		levels = append(levels, level)
		total += len(level)
	}
	g.levels = levels
	g.acyclic = true
}

// evaluateLevelParallel runs every component in a level concurrently
// (bounded by workers in flight), then applies their outputs serially. The
// transfer functions only read g.resolved/g.contribs, never write them, so
// the concurrent phase has no data race; serializing the apply phase avoids
// needing per-wire locks for the (rare) case that two components in the
// same level both drive the same wire.
func (g *Graph) evaluateLevelParallel(level []ComponentID, workers int) []WireID {
	outputs := make([][]state.LogicState, len(level))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, cid := range level {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, cid ComponentID) {
			defer wg.Done()
			defer func() { <-sem }()
			c := &g.components[cid]
			outputs[i] = transferTable[c.Kind](g, c)
		}(i, cid)
	}
	wg.Wait()

	var changed []WireID
	for i, cid := range level {
		c := &g.components[cid]
		for j, w := range c.Outputs {
			slot := c.outSlot[j]
			g.contribs[w][slot] = outputs[i][j]
			if g.recomputeWire(w) {
				changed = append(changed, w)
			}
		}
	}
	return changed
}

// RunSimParallel is RunSim's wavefront-parallel counterpart: components are
// grouped into dependency-ordered levels once, and each level's components
// are evaluated concurrently across a worker pool sized by workerCount.
// Falls back to the serial RunSim whenever the netlist contains a
// combinational feedback loop, since a static level order can't express
// one.
func (s *Simulator) RunSimParallel(maxSteps int) (RunResult, error) {
	if maxSteps <= 0 {
		return RunResult{}, state.NewError("RunSimParallel", state.ArgumentOutOfRange, "maxSteps must be positive")
	}
	g := s.g
	g.ensureLevels()
	if !g.acyclic {
		return s.RunSim(maxSteps)
	}

	workers := workerCount()
	logger := s.logger
	if logger == nil {
		logger = defaultLogger
	}
	steps := 0
	committed := make([]bool, len(g.components))

	for {
		for _, level := range g.levels {
			if steps+len(level) > maxSteps {
				result := RunResult{Steps: steps, Status: MaxStepsReached}
				s.lastStats = RunStats{LastSteps: result.Steps, LastStatus: result.Status}
				return result, nil
			}
			for _, cid := range level {
				traceEval(logger, cid, &g.components[cid])
			}
			g.evaluateLevelParallel(level, workers)
			steps += len(level)
		}

		edgeComponents := g.detectEdges(committed)
		if len(edgeComponents) == 0 {
			break
		}
		for _, cid := range edgeComponents {
			committed[cid] = true
		}
		g.commitEdges(edgeComponents)
	}

	g.refreshClockBaseline()

	conflicts := g.collectConflicts()
	result := RunResult{Steps: steps, Status: Ok}
	if len(conflicts) > 0 {
		result = RunResult{Steps: steps, Status: Conflict, ConflictWires: conflicts}
	}
	s.lastStats = RunStats{LastSteps: result.Steps, LastStatus: result.Status, ConflictWires: len(result.ConflictWires)}
	return result, nil
}
