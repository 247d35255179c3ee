package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/trexctl/internal/artifact"
	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/config"
	"github.com/Mohsinsiddi/trexctl/internal/contract"
	"github.com/Mohsinsiddi/trexctl/internal/rpc"
	"github.com/Mohsinsiddi/trexctl/internal/trex"
	"github.com/Mohsinsiddi/trexctl/internal/ui"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

// dialBackend connects to a network profile. Tests swap it for an in-memory
// backend.
var dialBackend = func(ctx context.Context, net config.Network) (chain.Backend, error) {
	algo, err := rpc.ParseAlgorithm(net.RPCAlgorithm)
	if err != nil {
		return nil, err
	}
	probeCtx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()
	return rpc.Select(probeCtx, net.RPCs, algo,
		chain.WithRateLimit(net.RateLimit),
		chain.WithPollInterval(config.ReceiptPoll),
		chain.WithReceiptTimeout(config.TxDeployTimeout),
	)
}

// openKeystore returns the role key store. Tests swap it for an in-memory one.
var openKeystore = func(dir string) wallet.KeystoreBackend {
	return wallet.DefaultKeystore(dir)
}

// session is everything a chain command needs: the connected backend, the
// artifacts, the roster and the deployment record of the active network.
type session struct {
	network string
	net     config.Network
	backend chain.Backend
	chainID *big.Int
	catalog *artifact.Catalog
	roster  *wallet.Roster
	reg     *contract.Registry
}

func openSession(ctx context.Context) (*session, error) {
	return connect(ctx, true)
}

// connect opens a session; artifacts are skipped for commands that only
// need the roster.
func connect(ctx context.Context, withArtifacts bool) (*session, error) {
	name, net, err := cfg.Network(networkFlag)
	if err != nil {
		return nil, err
	}
	b, err := dialBackend(ctx, net)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", name, err)
	}
	s := &session{network: name, net: net, backend: b}

	if s.chainID, err = b.ChainID(ctx); err != nil {
		s.close()
		return nil, fmt.Errorf("reading chain id: %w", err)
	}
	if net.ChainID != 0 && s.chainID.Int64() != net.ChainID {
		s.close()
		return nil, fmt.Errorf("network %s expects chain id %d, node reports %s", name, net.ChainID, s.chainID)
	}
	if withArtifacts {
		if s.catalog, err = loadCatalog(); err != nil {
			s.close()
			return nil, err
		}
	}
	if s.roster, err = loadRoster(ctx, net, b); err != nil {
		s.close()
		return nil, err
	}
	s.reg = contract.NewRegistry(cfg.DeploymentPath(name))
	if err := s.reg.Load(); err != nil {
		s.close()
		return nil, err
	}
	logger.Debug("session opened",
		zap.String("network", name),
		zap.Stringer("chain_id", s.chainID),
		zap.String("accounts", net.Accounts),
		zap.String("record", s.reg.Path()),
	)
	return s, nil
}

// loadCatalog loads the configured artifacts and warns about names that
// matched more than one file.
func loadCatalog() (*artifact.Catalog, error) {
	cat, err := artifact.LoadCatalog(cfg.ArtifactsDir)
	if err != nil {
		return nil, err
	}
	shadowed := cat.Shadowed()
	names := make([]string, 0, len(shadowed))
	for name := range shadowed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a, _ := cat.Get(name)
		logger.Warn("artifact name matches several files",
			zap.String("name", name),
			zap.String("using", a.Path),
			zap.Strings("ignored", shadowed[name]))
	}
	return cat, nil
}

func (s *session) close() {
	if c, ok := s.backend.(interface{ Close() }); ok {
		c.Close()
	}
}

// chainLabel names the connected chain, e.g. "Polygon Amoy (80002)".
func (s *session) chainLabel() string {
	if c, err := chain.NewRegistry().GetByChainID(s.chainID.Int64()); err == nil {
		return fmt.Sprintf("%s (%s)", c.DisplayName, s.chainID)
	}
	return "chain " + s.chainID.String()
}

// explorer returns the explorer entry of the connected chain, if known.
func (s *session) explorer() *chain.Chain {
	c, err := chain.NewRegistry().GetByChainID(s.chainID.Int64())
	if err != nil || c.Explorer == "" {
		return nil
	}
	return c
}

func loadRoster(ctx context.Context, net config.Network, b chain.Backend) (*wallet.Roster, error) {
	investors := cfg.HolderNames()[1:]
	if net.Accounts == config.AccountsKeystore {
		return wallet.KeystoreRoster(openKeystore(cfg.Dir()), investors, cfg.RecoveryWallet)
	}
	lister, ok := b.(wallet.AccountLister)
	if !ok {
		return nil, errors.New("backend cannot list node accounts; use a keystore network")
	}
	return wallet.NodeRoster(ctx, lister, investors, cfg.RecoveryWallet)
}

// attach binds the saved deployment of the session's network.
func (s *session) attach(out io.Writer) (*trex.Suite, error) {
	if !s.reg.Exists() {
		return nil, fmt.Errorf("no deployment recorded for %s: run `trexctl deploy` first", s.network)
	}
	rec := s.reg.Record()
	if rec.Incomplete != "" {
		return nil, fmt.Errorf("deployment on %s was aborted (%s): run `trexctl deploy` again", s.network, rec.Incomplete)
	}
	if rec.ChainID != 0 && rec.ChainID != s.chainID.Int64() {
		return nil, fmt.Errorf("deployment record %s is for chain %d, connected to %s", s.reg.Path(), rec.ChainID, s.chainID)
	}
	suite, err := trex.Attach(s.backend, s.catalog, rec, logger)
	if err != nil {
		return nil, err
	}
	for _, name := range rosterDrift(s.reg, s.roster) {
		logger.Warn("roster differs from deployment record", zap.String("name", name))
		fmt.Fprintln(out, ui.Warn(fmt.Sprintf("%s resolves to a different address than at deploy time", name)))
	}
	return suite, nil
}

// rosterDrift lists saved names whose live address changed. The generated
// claim signing and action keys are fresh on every run and not compared.
func rosterDrift(reg *contract.Registry, roster *wallet.Roster) []string {
	names, saved := reg.Roster()
	live := roster.Addresses()
	var out []string
	for _, name := range names {
		if name == wallet.KeyClaimSigning || name == wallet.KeyAction {
			continue
		}
		if addr, ok := live[name]; ok && addr != saved[name] {
			out = append(out, name)
		}
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
