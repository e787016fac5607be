// Package baseline implements a regression baseline store: named snapshots
// of a circuit's wire states, saved after a known-good RunSim and compared
// against on later runs to catch unintended behavior changes. This is the
// "regression tester for hardware designs" workflow the engine is meant to
// sit underneath: a CI job runs a design's scenarios, diffs the result
// against the last approved baseline, and fails the build on any
// unexplained difference.
package baseline

import (
	"context"
	"time"
)

// Snapshot is one recorded run: every named wire's resolved state at the
// time RunSim settled, keyed by the name config.NameTable assigned it.
type Snapshot struct {
	Name      string
	CreatedAt time.Time
	Wires     map[string]string // wire name -> state.LogicState.String()
}

// Store persists and retrieves named Snapshots. SQLStore is the only
// production implementation; the interface exists so comparison logic
// (Compare, and anything built on top of it) can be tested against a mock
// instead of a real database.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, name string) (Snapshot, error)
	List(ctx context.Context) ([]string, error)
}

// Diff is one wire whose recorded state changed between two snapshots.
type Diff struct {
	Wire string
	Was  string
	Now  string
}

// Compare reports every wire present in both snapshots whose recorded
// state differs, plus wires that appear in only one of the two (reported
// with the missing side as the empty string). It does not itself know
// anything about LogicState semantics; it's a plain string diff over
// whatever Print/String produced when the snapshot was taken.
func Compare(baseline, current Snapshot) []Diff {
	var diffs []Diff
	seen := make(map[string]bool, len(baseline.Wires))
	for name, was := range baseline.Wires {
		seen[name] = true
		now, ok := current.Wires[name]
		if !ok {
			diffs = append(diffs, Diff{Wire: name, Was: was, Now: ""})
			continue
		}
		if was != now {
			diffs = append(diffs, Diff{Wire: name, Was: was, Now: now})
		}
	}
	for name, now := range current.Wires {
		if !seen[name] {
			diffs = append(diffs, Diff{Wire: name, Was: "", Now: now})
		}
	}
	return diffs
}
