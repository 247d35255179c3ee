package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/trexctl/internal/ui"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

var walletYes bool

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage role keys for keystore networks",
	Long: `Keystore networks sign with one private key per role, kept in the OS
keychain (or an encrypted file on headless Linux). TREXCTL_KEY_<ROLE> env
vars take precedence over stored keys. tokenAgent and tokenAdmin fall back
to the tokenIssuer key when they have none.`,
}

var walletImportCmd = &cobra.Command{
	Use:   "import <role> [private-key]",
	Short: "Store the private key of a role",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		role := args[0]
		if err := checkRole(role); err != nil {
			return err
		}
		var hexKey string
		if len(args) == 2 {
			hexKey = args[1]
		} else {
			fmt.Fprintf(out, "Private key for %s: ", ui.Name(role))
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			hexKey = strings.TrimSpace(line)
		}
		s, err := wallet.KeySignerFromHex(hexKey)
		if err != nil {
			return err
		}
		if err := openKeystore(cfg.Dir()).Store(role, hexKey); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Key for %s stored: %s", role, ui.Addr(s.Address().Hex()))))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles with a stored key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ks := openKeystore(cfg.Dir())
		roles, err := ks.List()
		if err != nil {
			return err
		}
		if len(roles) == 0 {
			fmt.Fprintln(out, ui.Info("No role keys stored yet."))
			fmt.Fprintln(out, ui.Hint("Add one with: trexctl wallet import deployer 0xYourKey"))
			return nil
		}

		t := ui.NewTable([]ui.Column{{Title: "Role"}, {Title: "Address"}})
		for _, role := range roles {
			hexKey, err := ks.Retrieve(role)
			if err != nil {
				return err
			}
			addr := "invalid key"
			if s, err := wallet.KeySignerFromHex(hexKey); err == nil {
				addr = s.Address().Hex()
			}
			t.AddRow(ui.Row{role, addr})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d key(s) stored", len(roles))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <role>",
	Short: "Delete the stored key of a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		role := args[0]
		if !walletYes {
			ok, err := ui.ConfirmDanger(fmt.Sprintf("Remove the stored key of %s?", role))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, ui.Meta("Cancelled."))
				return nil
			}
		}
		if err := openKeystore(cfg.Dir()).Delete(role); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Key for %s removed.", role)))
		return nil
	},
}

// knownRoles lists every name a roster can bind.
func knownRoles() []string {
	roles := []string{
		wallet.RoleDeployer, wallet.RoleTokenIssuer, wallet.RoleTokenAgent,
		wallet.RoleTokenAdmin, wallet.RoleClaimIssuer,
	}
	roles = append(roles, cfg.HolderNames()[1:]...)
	if cfg.RecoveryWallet != "" && !slices.Contains(roles, cfg.RecoveryWallet) {
		roles = append(roles, cfg.RecoveryWallet)
	}
	return roles
}

func checkRole(role string) error {
	if known := knownRoles(); !slices.Contains(known, role) {
		return fmt.Errorf("%q: %w (known: %s)", role, wallet.ErrRoleNotFound, strings.Join(known, ", "))
	}
	return nil
}

func init() {
	walletRemoveCmd.Flags().BoolVarP(&walletYes, "yes", "y", false, "skip the confirmation prompt")
	walletCmd.AddCommand(walletImportCmd, walletListCmd, walletRemoveCmd)
}
