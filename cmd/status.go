package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved deployment and live token state",
	Args:  cobra.NoArgs,
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
		token := suite.Token()
		info, err := token.Info(ctx)
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}

		fmt.Fprintln(out, ui.KeyValueBlock("Token", [][2]string{
			{"Network", s.network + " · " + s.chainLabel()},
			{"Address", token.Address.Hex()},
			{"Name", info.Name},
			{"Symbol", info.Symbol},
			{"Decimals", strconv.Itoa(int(info.Decimals))},
			{"Total supply", chain.FormatUnits(info.TotalSupply, info.Decimals) + " " + info.Symbol},
			{"Paused", strconv.FormatBool(info.Paused)},
			{"Initial amounts minted", strconv.FormatBool(suite.Issued)},
		}))
		printContracts(out, s, suite.Entries())

		holders := cfg.HolderNames()
		if r := s.roster.Recovery(); r != "" {
			holders = append(holders, r)
		}
		states, err := token.HolderStates(ctx, holders, s.roster.Addresses())
		if err != nil {
			return fmt.Errorf("reading holders: %w", err)
		}
		t := ui.NewTable([]ui.Column{
			{Title: "Holder"}, {Title: "Address"}, {Title: "Balance"}, {Title: "Frozen"}, {Title: "Wallet frozen"},
		})
		for _, h := range states {
			walletFrozen := ""
			if h.IsFrozen {
				walletFrozen = "yes"
			}
			t.AddRow(ui.Row{
				h.Name,
				h.Address.Hex(),
				chain.FormatUnits(h.Balance, info.Decimals),
				chain.FormatUnits(h.Frozen, info.Decimals),
				walletFrozen,
			})
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}
