package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/trexctl/internal/ui"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.json with the default suite settings",
	Long: `Write the effective configuration to <config>/config.json so networks,
holders, amounts and the claim can be edited. An existing file is kept
unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path := filepath.Join(cfg.Dir(), "config.json")
		if _, err := os.Stat(path); err == nil && !initForce {
			fmt.Fprintln(out, ui.Info("Config already exists: "+path))
			fmt.Fprintln(out, ui.Hint("Overwrite with: trexctl init --force"))
			return nil
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintln(out, ui.Success("Config written: "+path))
		fmt.Fprintln(out, ui.Hint("Point artifacts_dir at your compiled contracts, then run: trexctl deploy"))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config.json")
}
