package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/trex"
	"github.com/Mohsinsiddi/trexctl/internal/ui"
)

var issueForce bool

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Mint the configured initial amounts",
	Long: `Mint every investor's configured amount, then the deployer's, from the
token agent against the saved deployment.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		suite, err := s.attach(out)
		if err != nil {
			return err
		}
		if suite.Issued && !issueForce {
			fmt.Fprintln(out, ui.Warn("Initial amounts were already minted on "+s.network))
			fmt.Fprintln(out, ui.Hint("Mint again with: trexctl issue --force"))
			return nil
		}
		return issueAndSave(ctx, out, s, suite)
	},
}

// issueAndSave mints the allocation and records it in the deployment file.
func issueAndSave(ctx context.Context, out io.Writer, s *session, suite *trex.Suite) error {
	sp := ui.NewSpinner("minting initial amounts")
	sp.Start()
	allocs, err := trex.Issue(ctx, suite, s.roster, cfg, logger)
	sp.Stop()
	if err != nil {
		return fmt.Errorf("issue: %w", err)
	}
	s.reg.MarkIssued()
	if err := s.reg.Save(); err != nil {
		return fmt.Errorf("saving deployment record: %w", err)
	}

	decimals := cfg.Token.Decimals
	t := ui.NewTable([]ui.Column{{Title: "Holder"}, {Title: "Amount"}, {Title: "Units"}})
	for _, a := range allocs {
		t.AddRow(ui.Row{a.Holder, a.Amount.String(), chain.FormatUnits(a.Amount, decimals)})
	}
	fmt.Fprintln(out, ui.Success(fmt.Sprintf("Minted to %d holders", len(allocs))))
	fmt.Fprintln(out, t.Render())
	return nil
}

func init() {
	issueCmd.Flags().BoolVar(&issueForce, "force", false, "mint even if the record says it was done")
}
