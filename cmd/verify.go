package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/trexctl/internal/trex"
	"github.com/Mohsinsiddi/trexctl/internal/ui"
)

var errVerifyFailed = errors.New("verification failed")

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the saved deployment against the chain",
	Long: `Check that roster addresses are distinct, every suite contract has code,
every holder identity is registered and, once issued, every balance matches
the configured allocation.`,
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
		checks, err := trex.NewVerifier(s.backend, suite, s.roster, cfg, logger).Verify(ctx)
		if err != nil {
			return err
		}

		t := ui.NewTable([]ui.Column{{Title: "Status", Width: 6}, {Title: "Check"}, {Title: "Detail"}})
		var failed, skipped int
		for _, c := range checks {
			t.AddRow(ui.Row{ui.Status(c.Status), c.Name, c.Detail})
			switch c.Status {
			case trex.StatusFail:
				failed++
			case trex.StatusSkip:
				skipped++
			}
		}
		fmt.Fprintln(out, t.Render())

		summary := fmt.Sprintf("%d checks, %d failed, %d skipped", len(checks), failed, skipped)
		if trex.Failed(checks) {
			fmt.Fprintln(out, ui.Err(summary))
			return errVerifyFailed
		}
		fmt.Fprintln(out, ui.Success(summary))
		return nil
	},
}
