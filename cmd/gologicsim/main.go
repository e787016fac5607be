// Command gologicsim loads a YAML netlist, runs it to a settled state (or
// to a clocked step count), prints the resolved wire states, and
// optionally records or checks the run against a baseline store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/cellwire/gologic/baseline"
	"github.com/cellwire/gologic/circuit"
	"github.com/cellwire/gologic/config"
)

var (
	netlistPath string
	maxSteps    int
	verbose     bool
	monitorAddr string

	baselineDSN    string
	baselineDriver string
	saveBaseline   string
	checkBaseline  string
)

func main() {
	root := &cobra.Command{
		Use:   "gologicsim",
		Short: "Run a four-valued digital logic netlist to settlement",
		RunE:  run,
	}
	root.Flags().StringVarP(&netlistPath, "netlist", "n", "", "path to the YAML netlist (required)")
	root.Flags().IntVar(&maxSteps, "max-steps", 10000, "component-evaluation budget before RunSim gives up")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace every component evaluation")
	root.Flags().StringVar(&monitorAddr, "monitor", "", "if non-empty, start an akita monitoring server; the value is not used as the listen address")
	root.Flags().StringVar(&baselineDriver, "baseline-driver", "sqlite3", "baseline store driver: sqlite3 or mysql")
	root.Flags().StringVar(&baselineDSN, "baseline-dsn", "", "baseline store DSN; baseline features disabled if empty")
	root.Flags().StringVar(&saveBaseline, "save-baseline", "", "save this run's wire states under the given baseline name")
	root.Flags().StringVar(&checkBaseline, "check-baseline", "", "compare this run's wire states against the named baseline")
	_ = root.MarkFlagRequired("netlist")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sim, names, err := config.LoadFile(netlistPath)
	if err != nil {
		return fmt.Errorf("loading netlist: %w", err)
	}
	if verbose {
		sim = sim.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: circuit.LevelTrace})))
	}

	var monitor *monitoring.Monitor
	if monitorAddr != "" {
		monitor = monitoring.NewMonitor()
		monitor.StartServer()
		sim = sim.WithMonitor(monitor)
		slog.Info("monitoring server started")
	}

	result, err := sim.RunSim(maxSteps)
	if err != nil {
		return fmt.Errorf("running simulation: %w", err)
	}
	fmt.Printf("status: %s, steps: %d\n", result.Status, result.Steps)
	if result.Status == circuit.Conflict {
		for _, w := range result.ConflictWires {
			fmt.Printf("  conflict on wire %d\n", w)
		}
	}
	if monitor != nil {
		stats := sim.Stats()
		slog.Info("run stats", "last_steps", stats.LastSteps, "last_status", stats.LastStatus, "conflict_wires", stats.ConflictWires)
	}

	snapshot, err := snapshotWires(sim, names)
	if err != nil {
		return err
	}
	printWires(snapshot)

	if baselineDSN == "" {
		return nil
	}
	store, err := baseline.NewSQLStore(ctx, baselineDriver, baselineDSN)
	if err != nil {
		return fmt.Errorf("opening baseline store: %w", err)
	}
	atexit.Register(func() {
		if cerr := store.Close(); cerr != nil {
			slog.Error("closing baseline store", "err", cerr)
		}
	})

	if saveBaseline != "" {
		snap := baseline.Snapshot{Name: saveBaseline, Wires: snapshot}
		if err := store.Save(ctx, snap); err != nil {
			return fmt.Errorf("saving baseline %q: %w", saveBaseline, err)
		}
		fmt.Printf("saved baseline %q\n", saveBaseline)
	}

	if checkBaseline != "" {
		approved, err := store.Load(ctx, checkBaseline)
		if err != nil {
			return fmt.Errorf("loading baseline %q: %w", checkBaseline, err)
		}
		current := baseline.Snapshot{Name: checkBaseline, Wires: snapshot}
		diffs := baseline.Compare(approved, current)
		if len(diffs) == 0 {
			fmt.Printf("matches baseline %q\n", checkBaseline)
			return nil
		}
		fmt.Printf("%d diff(s) against baseline %q:\n", len(diffs), checkBaseline)
		for _, d := range diffs {
			fmt.Printf("  %s: was %q, now %q\n", d.Wire, d.Was, d.Now)
		}
		return fmt.Errorf("run diverges from baseline %q", checkBaseline)
	}
	return nil
}

func snapshotWires(sim *circuit.Simulator, names *config.NameTable) (map[string]string, error) {
	out := make(map[string]string, len(names.Wires))
	for name, id := range names.Wires {
		s, err := sim.WireState(id)
		if err != nil {
			return nil, fmt.Errorf("reading wire %q: %w", name, err)
		}
		out[name] = s.String()
	}
	return out, nil
}

func printWires(snapshot map[string]string) {
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s = %s\n", name, snapshot[name])
	}
}
