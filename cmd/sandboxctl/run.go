package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memsandbox/internal/scenario"
)

var (
	runStrict bool
	runMapped bool
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario and report addresses, free runs and leaks",
		Long: `The run command executes every step of a scenario file against a fresh
arena and prints the address each step received, the free runs left at the end,
and the blocks that were never freed.

Example:
  sandboxctl run testdata/reference.yaml
  sandboxctl run testdata/reference.yaml --strict --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args)
		},
	}
	cmd.Flags().BoolVar(&runStrict, "strict", false, "Stop at the first failed step")
	cmd.Flags().BoolVar(&runMapped, "mapped", false, "Back the arena with an anonymous mapping")
	return cmd
}

// loadScenario reads the scenario file and applies the shared flags.
func loadScenario(path string) (*scenario.Scenario, error) {
	printVerbose("Loading scenario: %s\n", path)
	s, err := scenario.LoadFile(path)
	if err != nil {
		return nil, err
	}
	s.Strict = s.Strict || runStrict
	s.Mapped = s.Mapped || runMapped
	return s, nil
}

func runRun(args []string) error {
	s, err := loadScenario(args[0])
	if err != nil {
		return err
	}

	rep, runErr := s.Run(allocOptions()...)
	if rep == nil {
		return runErr
	}

	if jsonOut {
		if err := printJSON(rep); err != nil {
			return err
		}
	} else {
		printReport(rep)
	}

	if runErr != nil {
		return runErr
	}
	if rep.Failed > 0 {
		return fmt.Errorf("%d of %d steps failed", rep.Failed, len(rep.Results))
	}
	return nil
}

func printReport(rep *scenario.Report) {
	printInfo("\nScenario: %s\n", rep.Name)
	if rep.Mapped {
		printVerbose("Arena: anonymous mapping\n")
	}
	for _, r := range rep.Results {
		name := r.Name
		if name == "" {
			name = "-"
		}
		status := fmt.Sprintf("-> %d", r.Addr)
		if r.Moved {
			status += " (moved)"
		}
		if r.Err != "" {
			status = "FAILED: " + r.Err
		}
		printInfo("  #%-3d %-13s %-8s size %-6d %s\n", r.Step, r.Op, name, r.Size, status)
	}

	printInfo("\nFree runs:\n")
	for _, run := range rep.Runs {
		printInfo("  %5d..%-5d (%d bytes)\n", run.Start, run.End(), run.Len)
	}

	bytes := 0
	for _, b := range rep.Leaks {
		bytes += b.Size
	}
	printInfo("\nLive blocks: %d (%d bytes)\n", len(rep.Leaks), bytes)
	for _, b := range rep.Leaks {
		printVerbose("  %5d  %d bytes\n", b.Addr, b.Size)
	}

	st := rep.Stats
	printVerbose("\nStats:\n")
	printVerbose("  alloc %d, free %d, realloc %d (%d in place, %d moved)\n",
		st.AllocCalls, st.FreeCalls, st.ReallocCalls, st.ReallocInPlace, st.ReallocMoved)
	printVerbose("  out of memory %d, contract violations %d\n", st.OutOfMemory, st.ContractViolations)
}
