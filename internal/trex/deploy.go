package trex

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/trexctl/internal/artifact"
	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/config"
	"github.com/Mohsinsiddi/trexctl/internal/contract"
	"github.com/Mohsinsiddi/trexctl/internal/onchainid"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

// StepFunc is called before each deployment step with its 1-based index.
type StepFunc func(index, total int, name string)

// Deployer wires a fresh suite from the artifact catalog.
type Deployer struct {
	backend chain.Backend
	catalog *artifact.Catalog
	roster  *wallet.Roster
	cfg     *config.Config
	log     *zap.Logger
	onStep  StepFunc
	now     func() time.Time

	suite *Suite
}

// NewDeployer returns a Deployer. A nil logger discards output.
func NewDeployer(b chain.Backend, cat *artifact.Catalog, roster *wallet.Roster, cfg *config.Config, log *zap.Logger) *Deployer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Deployer{backend: b, catalog: cat, roster: roster, cfg: cfg, log: log, now: time.Now}
}

// OnStep registers a progress callback.
func (d *Deployer) OnStep(fn StepFunc) { d.onStep = fn }

type step struct {
	name string
	run  func(ctx context.Context) error
}

// Deploy runs every deployment step in order, waiting for each receipt.
// The first failing step aborts the deployment; the contracts created so far
// are returned with the error.
func (d *Deployer) Deploy(ctx context.Context) (*Suite, error) {
	if a, b, ok := d.roster.Distinct(); !ok {
		return nil, fmt.Errorf("roster: %s and %s share an address", a, b)
	}
	d.suite = newSuite()
	topic := onchainid.Topic(d.cfg.Claim.Topic)

	steps := []step{
		{"deploy identity implementation", func(ctx context.Context) error {
			deployer, _ := d.roster.Address(wallet.RoleDeployer)
			return d.deploy(ctx, NameIdentityImplementation, artifact.Identity, deployer, true)
		}},
		{"deploy implementation authority", func(ctx context.Context) error {
			return d.deploy(ctx, NameImplementationAuthority, artifact.ImplementationAuthority, d.addr(NameIdentityImplementation))
		}},
		{"deploy claim topics registry", func(ctx context.Context) error {
			return d.deploy(ctx, NameClaimTopicsRegistry, artifact.ClaimTopicsRegistry)
		}},
		{"deploy claim issuers registry", func(ctx context.Context) error {
			return d.deploy(ctx, NameClaimIssuersRegistry, artifact.ClaimIssuersRegistry)
		}},
		{"deploy identity registry storage", func(ctx context.Context) error {
			return d.deploy(ctx, NameIdentityRegistryStorage, artifact.IdentityRegistryStorage)
		}},
		{"deploy identity registry", func(ctx context.Context) error {
			return d.deploy(ctx, NameIdentityRegistry, artifact.IdentityRegistry,
				d.addr(NameClaimIssuersRegistry), d.addr(NameClaimTopicsRegistry), d.addr(NameIdentityRegistryStorage))
		}},
		{"deploy compliance", func(ctx context.Context) error {
			return d.deploy(ctx, NameCompliance, artifact.BasicCompliance)
		}},
		{"deploy token identity", func(ctx context.Context) error {
			issuer, err := d.roster.Address(wallet.RoleTokenIssuer)
			if err != nil {
				return err
			}
			return d.deploy(ctx, NameTokenOID, artifact.IdentityProxy, d.addr(NameImplementationAuthority), issuer)
		}},
		{"deploy token", func(ctx context.Context) error {
			t := d.cfg.Token
			return d.deploy(ctx, NameToken, artifact.Token,
				d.addr(NameIdentityRegistry), d.addr(NameCompliance), t.Name, t.Symbol, t.Decimals, d.addr(NameTokenOID))
		}},
		{"grant TOKEN_ROLE on compliance to token", func(ctx context.Context) error {
			return d.transact(ctx, NameCompliance, wallet.RoleDeployer, "grantRole", TokenRole, d.addr(NameToken))
		}},
		{"grant AGENT_ROLE on token to token agent", func(ctx context.Context) error {
			return d.grantTo(ctx, NameToken, AgentRole, wallet.RoleTokenAgent)
		}},
		{"grant AGENT_ROLE on identity registry to token", func(ctx context.Context) error {
			return d.transact(ctx, NameIdentityRegistry, wallet.RoleDeployer, "grantRole", AgentRole, d.addr(NameToken))
		}},
		{"bind identity registry storage", func(ctx context.Context) error {
			return d.transact(ctx, NameIdentityRegistryStorage, wallet.RoleDeployer, "bindIdentityRegistry", d.addr(NameIdentityRegistry))
		}},
		{"add claim topic", func(ctx context.Context) error {
			return d.transact(ctx, NameClaimTopicsRegistry, wallet.RoleDeployer, "addClaimTopic", topic)
		}},
		{"deploy claim issuer", func(ctx context.Context) error {
			owner, err := d.roster.Address(wallet.RoleClaimIssuer)
			if err != nil {
				return err
			}
			return d.deploy(ctx, NameClaimIssuer, artifact.ClaimIssuer, owner)
		}},
		{"add claim signing key to claim issuer", func(ctx context.Context) error {
			key, _ := d.roster.Address(wallet.KeyClaimSigning)
			return d.transact(ctx, NameClaimIssuer, wallet.RoleClaimIssuer, "addKey",
				onchainid.KeyHash(key), onchainid.PurposeClaim, onchainid.KeyTypeECDSA)
		}},
		{"register claim issuer", func(ctx context.Context) error {
			return d.transact(ctx, NameClaimIssuersRegistry, wallet.RoleDeployer, "addClaimIssuer",
				d.addr(NameClaimIssuer), []*big.Int{topic})
		}},
		{"deploy holder identities", d.deployIdentities},
		{"add action key to first investor identity", d.addActionKey},
		{"grant roles on identity registry", func(ctx context.Context) error {
			if err := d.grantTo(ctx, NameIdentityRegistry, AgentRole, wallet.RoleTokenAgent); err != nil {
				return err
			}
			return d.transact(ctx, NameIdentityRegistry, wallet.RoleDeployer, "grantRole", TokenRole, d.addr(NameToken))
		}},
		{"register identities", d.registerIdentities},
		{"add claims", func(ctx context.Context) error { return d.addClaims(ctx, topic) }},
	}

	started := d.now()
	for i, st := range steps {
		if d.onStep != nil {
			d.onStep(i+1, len(steps), st.name)
		}
		d.log.Info("deployment step", zap.Int("step", i+1), zap.Int("of", len(steps)), zap.String("name", st.name))
		if err := st.run(ctx); err != nil {
			return d.suite, fmt.Errorf("step %d (%s): %w", i+1, st.name, err)
		}
	}
	d.log.Info("suite deployed",
		zap.Stringer("token", d.addr(NameToken)),
		zap.Int("identities", len(d.suite.identities)),
		zap.Duration("took", d.now().Sub(started)))
	return d.suite, nil
}

func (d *Deployer) addr(name string) common.Address {
	if c, ok := d.suite.contracts[name]; ok {
		return c.Address
	}
	return common.Address{}
}

func (d *Deployer) signer(role string) (wallet.Signer, error) {
	return d.roster.Signer(role)
}

// deploy creates artifact artName as the deployer and records it as name.
func (d *Deployer) deploy(ctx context.Context, name, artName string, args ...interface{}) error {
	c, err := d.create(ctx, wallet.RoleDeployer, name, artName, contract.KindSuite, args...)
	if err != nil {
		return err
	}
	d.suite.add(name, c)
	return nil
}

func (d *Deployer) create(ctx context.Context, role, name, artName, kind string, args ...interface{}) (*contract.Bound, error) {
	art, err := d.catalog.Get(artName)
	if err != nil {
		return nil, err
	}
	s, err := d.signer(role)
	if err != nil {
		return nil, err
	}
	c, receipt, err := contract.Deploy(ctx, d.backend, s, art, d.log, args...)
	if err != nil {
		return nil, err
	}
	c.Name = name
	d.suite.entries = append(d.suite.entries, contract.Entry{
		Name:       name,
		Address:    c.Address.Hex(),
		Artifact:   artName,
		Kind:       kind,
		TxHash:     receipt.Hash.Hex(),
		Deployer:   s.Address().Hex(),
		DeployedAt: d.now().UTC().Format(time.RFC3339),
	})
	return c, nil
}

func (d *Deployer) transact(ctx context.Context, name, role, method string, args ...interface{}) error {
	c, err := d.suite.Contract(name)
	if err != nil {
		return err
	}
	s, err := d.signer(role)
	if err != nil {
		return err
	}
	_, err = c.Transact(ctx, s, method, args...)
	return err
}

// grantTo grants role on contract name to the address bound to a roster role.
func (d *Deployer) grantTo(ctx context.Context, name string, role common.Hash, to string) error {
	addr, err := d.roster.Address(to)
	if err != nil {
		return err
	}
	return d.transact(ctx, name, wallet.RoleDeployer, "grantRole", role, addr)
}

// deployIdentities deploys one identity proxy per holder, deployed by the
// deployer with the holder wallet as management key, bound to the Identity ABI.
func (d *Deployer) deployIdentities(ctx context.Context) error {
	identityArt, err := d.catalog.Get(artifact.Identity)
	if err != nil {
		return err
	}
	for _, holder := range d.roster.Holders() {
		owner, err := d.roster.Address(holder)
		if err != nil {
			return err
		}
		proxy, err := d.create(ctx, wallet.RoleDeployer, IdentityPrefix+holder, artifact.IdentityProxy, contract.KindIdentity,
			d.addr(NameImplementationAuthority), owner)
		if err != nil {
			return fmt.Errorf("identity of %s: %w", holder, err)
		}
		d.suite.identities[holder] = contract.NewBound(IdentityPrefix+holder, proxy.Address, identityArt.ABI, d.backend, d.log)
		d.log.Debug("identity deployed", zap.String("holder", holder), zap.Stringer("identity", proxy.Address))
	}
	return nil
}

func (d *Deployer) addActionKey(ctx context.Context) error {
	investors := d.roster.Investors()
	if len(investors) == 0 {
		d.log.Info("no investors, skipping action key")
		return nil
	}
	first := investors[0]
	key, _ := d.roster.Address(wallet.KeyAction)
	return d.transact(ctx, IdentityPrefix+first, first, "addKey",
		onchainid.KeyHash(key), onchainid.PurposeAction, onchainid.KeyTypeECDSA)
}

func (d *Deployer) registerIdentities(ctx context.Context) error {
	countries := map[string]uint16{wallet.RoleDeployer: d.cfg.DeployerCountry}
	for _, inv := range d.cfg.Investors {
		countries[normalizeName(inv.Name)] = inv.Country
	}

	var wallets, ids []common.Address
	var cs []uint16
	for _, holder := range d.roster.Holders() {
		w, err := d.roster.Address(holder)
		if err != nil {
			return err
		}
		wallets = append(wallets, w)
		ids = append(ids, d.suite.identities[holder].Address)
		cs = append(cs, countries[holder])
	}
	return d.transact(ctx, NameIdentityRegistry, wallet.RoleTokenAgent, "batchRegisterIdentity", wallets, ids, cs)
}

// addClaims signs one claim per holder with the claim signing key and has
// each holder add it to their own identity.
func (d *Deployer) addClaims(ctx context.Context, topic *big.Int) error {
	issuer := d.addr(NameClaimIssuer)
	for _, holder := range d.roster.Holders() {
		id := d.suite.identities[holder]
		claim := &onchainid.Claim{
			Identity: id.Address,
			Issuer:   issuer,
			Topic:    topic,
			Scheme:   d.cfg.Claim.Scheme,
			Data:     []byte(d.cfg.Claim.Data),
		}
		if _, err := onchainid.SignClaim(d.roster.ClaimSigningKey, claim); err != nil {
			return fmt.Errorf("signing claim for %s: %w", holder, err)
		}
		s, err := d.signer(holder)
		if err != nil {
			return err
		}
		if _, err := id.Transact(ctx, s, "addClaim",
			claim.Topic, new(big.Int).SetUint64(claim.Scheme), claim.Issuer, claim.Signature, claim.Data, claim.URI); err != nil {
			return fmt.Errorf("claim for %s: %w", holder, err)
		}
	}
	return nil
}
