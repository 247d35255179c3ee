package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Mohsinsiddi/trexctl/internal/config"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/trexctl/cmd.Version=1.2.3" .
var Version = "0.1.0"

// EnvConfigDir overrides the --config flag.
const EnvConfigDir = "TREXCTL_CONFIG_DIR"

var (
	cfgDir        string
	cfg           *config.Config
	logger        = zap.NewNop()
	verbose       bool
	networkFlag   string
	artifactsFlag string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "trexctl",
	Short: "Deploy and exercise a permissioned security token suite",
	Long: `trexctl deploys an ERC-3643 style token suite from compiled artifacts,
wires identities, claims and roles, mints the initial allocation and replays
token operations against the result.

  trexctl deploy --issue        deploy the suite and mint configured amounts
  trexctl verify                check the saved deployment against the chain
  trexctl scenario run          replay every token operation with assertions

Network profiles, holders and amounts live in config.json under --config
(default: ~/.trexctl).`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		if logger, err = newLogger(verbose); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if artifactsFlag != "" {
			cfg.ArtifactsDir = artifactsFlag
		}
		logger.Debug("config loaded", zap.String("dir", cfg.Dir()), zap.String("artifacts", cfg.ArtifactsDir))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newLogger builds the console logger on stderr. Step logs are info level and
// show with --verbose together with debug output; otherwise only warnings
// and errors are printed next to the styled output.
func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zc.DisableStacktrace = true
	zc.Sampling = nil
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	if envDir := os.Getenv(EnvConfigDir); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.trexctl, env "+EnvConfigDir+")")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network profile from config (default: default_network)")
	rootCmd.PersistentFlags().StringVar(&artifactsFlag, "artifacts", "", "compiled contract artifacts directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every step, transaction and receipt")

	rootCmd.AddCommand(
		initCmd,
		networkCmd,
		accountsCmd,
		artifactsCmd,
		deployCmd,
		issueCmd,
		statusCmd,
		scenarioCmd,
		verifyCmd,
		claimCmd,
		walletCmd,
	)
}
