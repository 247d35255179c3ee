package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/trexctl/internal/contract"
	"github.com/Mohsinsiddi/trexctl/internal/scenario"
	"github.com/Mohsinsiddi/trexctl/internal/trex"
	"github.com/Mohsinsiddi/trexctl/internal/ui"
)

var (
	deployIssue    bool
	deployScenario bool
	deployYes      bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy and wire the full token suite",
	Long: `Deploy the identity implementation and authority, the claim topics and
issuers registries, the identity registry and its storage, the compliance
module, the token with its onchain identity and the claim issuer. Then bind
roles, register every holder identity and add one signed claim per holder.

The deployment record is written to <config>/deployments/<network>.json.

  --issue      also mint the configured initial amounts
  --scenario   also mint and replay the default operations scenario`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func runDeploy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	fmt.Fprintln(out, ui.Banner(Version))
	fmt.Fprintln(out, ui.Info(fmt.Sprintf("Deploying to %s on %s", ui.Name(s.network), s.chainLabel())))
	if shared := s.roster.Shared(); len(shared) > 0 {
		for role, from := range shared {
			fmt.Fprintln(out, ui.Warn(fmt.Sprintf("%s uses the %s key", role, from)))
		}
	}

	if s.net.Confirm && !deployYes {
		ok, err := ui.Confirm(fmt.Sprintf("Broadcast the suite deployment to %s?", s.network))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
	}
	if len(s.reg.All()) > 0 {
		fmt.Fprintln(out, ui.Warn("Replacing existing deployment record "+s.reg.Path()))
	}

	d := trex.NewDeployer(s.backend, s.catalog, s.roster, cfg, logger)
	sp := ui.NewSpinner("deploying")
	d.OnStep(func(i, total int, name string) {
		sp.Update(fmt.Sprintf("[%d/%d] %s", i, total, name))
	})
	sp.Start()
	suite, err := d.Deploy(ctx)
	sp.Stop()
	if err != nil {
		if suite != nil && len(suite.Entries()) > 0 {
			saveIncomplete(out, s, suite, err)
		}
		return fmt.Errorf("deploy: %w", err)
	}

	s.reg.Reset(s.network, s.chainID.Int64())
	s.reg.SetRoster(s.roster.Addresses())
	suite.Save(s.reg)
	if err := s.reg.Save(); err != nil {
		return fmt.Errorf("saving deployment record: %w", err)
	}
	fmt.Fprintln(out, ui.Success(fmt.Sprintf("Suite deployed: %d contracts", len(suite.Entries()))))
	printContracts(out, s, suite.Entries())

	if deployIssue || deployScenario {
		if err := issueAndSave(ctx, out, s, suite); err != nil {
			return err
		}
	}
	if deployScenario {
		sc, err := scenario.Default()
		if err != nil {
			return err
		}
		return runScenario(ctx, out, s, suite, sc, false)
	}
	if !deployIssue {
		fmt.Fprintln(out, ui.Hint("Mint the initial allocation with: trexctl issue"))
	}
	return nil
}

// saveIncomplete records the contracts of an aborted deployment so their
// addresses survive; commands refuse to attach to such a record.
func saveIncomplete(out io.Writer, s *session, suite *trex.Suite, cause error) {
	s.reg.Reset(s.network, s.chainID.Int64())
	s.reg.SetRoster(s.roster.Addresses())
	suite.Save(s.reg)
	s.reg.MarkIncomplete(cause)
	if err := s.reg.Save(); err != nil {
		logger.Error("saving incomplete deployment record", zap.Error(err))
		return
	}
	fmt.Fprintln(out, ui.Warn(fmt.Sprintf("Deployment aborted after %d contracts", len(suite.Entries()))))
	printContracts(out, s, suite.Entries())
}

func printContracts(out io.Writer, s *session, entries []contract.Entry) {
	explorer := s.explorer()
	cols := []ui.Column{{Title: "Contract"}, {Title: "Artifact"}, {Title: "Address"}}
	if explorer != nil {
		cols = append(cols, ui.Column{Title: "Explorer"})
	}
	t := ui.NewTable(cols)
	for _, e := range entries {
		row := ui.Row{e.Name, e.Artifact, e.Address}
		if explorer != nil {
			row = append(row, explorer.AddressURL(e.Address))
		}
		t.AddRow(row)
	}
	fmt.Fprintln(out, t.Render())
	fmt.Fprintln(out, ui.Meta("Record: "+s.reg.Path()))
}

func init() {
	deployCmd.Flags().BoolVar(&deployIssue, "issue", false, "mint the configured initial amounts after deploying")
	deployCmd.Flags().BoolVar(&deployScenario, "scenario", false, "mint and run the default scenario after deploying")
	deployCmd.Flags().BoolVarP(&deployYes, "yes", "y", false, "skip the confirmation prompt")
}
