package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/trexctl/internal/scenario"
	"github.com/Mohsinsiddi/trexctl/internal/trex"
	"github.com/Mohsinsiddi/trexctl/internal/ui"
)

var scenarioKeepGoing bool

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Replay token operations with assertions",
	Long: `Scenarios are YAML files listing calls to the suite contracts and the
views expected before and after each call. Without a file the embedded
scenario runs every token operation once.`,
}

var scenarioListCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "List the steps of a scenario",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		sc, err := loadScenario(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.StyleTitle.Render(sc.Name))
		if sc.Description != "" {
			fmt.Fprintln(out, ui.Meta(sc.Description))
		}
		t := ui.NewTable([]ui.Column{{Title: "#"}, {Title: "Step"}, {Title: "Call"}, {Title: "Checks"}})
		for i, st := range sc.Steps {
			call := st.Describe()
			if st.ExpectRevert {
				call += "  (reverts)"
			}
			t.AddRow(ui.Row{strconv.Itoa(i + 1), st.Name, call, strconv.Itoa(len(st.Expect))})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d steps", len(sc.Steps))))
		return nil
	},
}

var scenarioRunCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a scenario against the saved deployment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		sc, err := loadScenario(args)
		if err != nil {
			return err
		}
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		suite, err := s.attach(out)
		if err != nil {
			return err
		}
		if !suite.Issued {
			fmt.Fprintln(out, ui.Warn("Initial amounts are not minted; balance checks may fail"))
		}
		return runScenario(ctx, out, s, suite, sc, scenarioKeepGoing)
	},
}

func loadScenario(args []string) (*scenario.Scenario, error) {
	if len(args) == 0 {
		return scenario.Default()
	}
	return scenario.Load(args[0])
}

// runScenario runs sc and prints one block per step: the call, its
// transaction, every watched view before and after, and failures.
func runScenario(ctx context.Context, out io.Writer, s *session, suite *trex.Suite, sc *scenario.Scenario, keepGoing bool) error {
	fmt.Fprintln(out, ui.Info(fmt.Sprintf("Running scenario %s (%d steps)", ui.Name(sc.Name), len(sc.Steps))))

	r := scenario.NewRunner(s.backend, s.catalog, suite, s.roster, logger)
	sp := ui.NewSpinner("running scenario")
	r.OnStep(func(i, total int, name string) {
		sp.Update(fmt.Sprintf("[%d/%d] %s", i, total, name))
	})
	sp.Start()
	rep, err := r.Run(ctx, sc, keepGoing)
	sp.Stop()
	if rep != nil {
		printReport(out, rep)
	}
	return err
}

func printReport(out io.Writer, rep *scenario.Report) {
	for i, st := range rep.Steps {
		head := fmt.Sprintf("%2d. %s  %s", i+1, st.Name, ui.Meta(st.Call))
		if st.OK() {
			fmt.Fprintln(out, ui.Success(head))
		} else {
			fmt.Fprintln(out, ui.Err(head))
		}
		if st.Reverted {
			fmt.Fprintln(out, "    "+ui.Meta("reverted: "+st.Reason))
		}
		for _, v := range st.Views {
			line := fmt.Sprintf("    %s: %s -> %s", v.Label, v.Before, ui.Val(v.After))
			if v.Before == v.After {
				line = fmt.Sprintf("    %s: %s", v.Label, v.After)
			}
			fmt.Fprintln(out, ui.Meta(line))
		}
		for _, f := range st.Failures {
			fmt.Fprintln(out, "    "+ui.StyleError.Render(f))
		}
	}
	fmt.Fprintln(out)

	failed := rep.Failed()
	summary := fmt.Sprintf("%s: %d steps, %d failed", rep.Scenario, len(rep.Steps), failed)
	if rep.Skipped > 0 {
		summary += fmt.Sprintf(", %d not run", rep.Skipped)
	}
	if failed > 0 {
		fmt.Fprintln(out, ui.Err(summary))
		return
	}
	fmt.Fprintln(out, ui.Success(summary))
}

func init() {
	scenarioRunCmd.Flags().BoolVar(&scenarioKeepGoing, "keep-going", false, "run every step even after a failure")
	scenarioCmd.AddCommand(scenarioListCmd, scenarioRunCmd)
}
