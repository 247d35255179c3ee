package trex

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/trexctl/internal/artifact"
	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/contract"
)

// Names of the suite contracts in the deployment record.
const (
	NameIdentityImplementation  = "identityImplementation"
	NameImplementationAuthority = "implementationAuthority"
	NameClaimTopicsRegistry     = "claimTopicsRegistry"
	NameClaimIssuersRegistry    = "claimIssuersRegistry"
	NameIdentityRegistryStorage = "identityRegistryStorage"
	NameIdentityRegistry        = "identityRegistry"
	NameCompliance              = "compliance"
	NameTokenOID                = "tokenOID"
	NameToken                   = "token"
	NameClaimIssuer             = "claimIssuer"
)

// IdentityPrefix prefixes holder names to address their identity contract.
const IdentityPrefix = "identity:"

// Suite is a deployed (or attached) token suite.
type Suite struct {
	contracts  map[string]*contract.Bound
	order      []string
	identities map[string]*contract.Bound
	entries    []contract.Entry

	// Issued is set once the initial amounts were minted.
	Issued bool
}

func newSuite() *Suite {
	return &Suite{
		contracts:  make(map[string]*contract.Bound),
		identities: make(map[string]*contract.Bound),
	}
}

func (s *Suite) add(name string, c *contract.Bound) {
	if _, ok := s.contracts[name]; !ok {
		s.order = append(s.order, name)
	}
	s.contracts[name] = c
}

// Contract returns a suite contract by record name, or a holder identity as
// "identity:<holder>".
func (s *Suite) Contract(name string) (*contract.Bound, error) {
	if holder, ok := strings.CutPrefix(name, IdentityPrefix); ok {
		return s.Identity(holder)
	}
	c, ok := s.contracts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contract.ErrContractNotFound, name)
	}
	return c, nil
}

// Identity returns the identity contract of a holder.
func (s *Suite) Identity(holder string) (*contract.Bound, error) {
	c, ok := s.identities[holder]
	if !ok {
		return nil, fmt.Errorf("%w: %s%s", contract.ErrContractNotFound, IdentityPrefix, holder)
	}
	return c, nil
}

// Token returns the token with its view helpers.
func (s *Suite) Token() *Token {
	return &Token{Bound: s.contracts[NameToken]}
}

// Contracts returns the suite contracts in deployment order.
func (s *Suite) Contracts() []*contract.Bound {
	out := make([]*contract.Bound, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.contracts[n])
	}
	return out
}

// Names returns the suite contract names in deployment order.
func (s *Suite) Names() []string {
	return append([]string(nil), s.order...)
}

// Holders returns the holders with an identity, sorted.
func (s *Suite) Holders() []string {
	out := make([]string, 0, len(s.identities))
	for h := range s.identities {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Entries returns the record entries of the deployment.
func (s *Suite) Entries() []contract.Entry {
	return append([]contract.Entry(nil), s.entries...)
}

// Save writes the suite into reg. The caller persists reg.
func (s *Suite) Save(reg *contract.Registry) {
	for _, e := range s.entries {
		reg.Add(e)
	}
	for holder, id := range s.identities {
		reg.SetIdentity(holder, id.Address)
	}
	if s.Issued {
		reg.MarkIssued()
	}
}

// Attach binds the contracts of a saved deployment record.
func Attach(b chain.Backend, cat *artifact.Catalog, rec contract.Record, log *zap.Logger) (*Suite, error) {
	if len(rec.Contracts) == 0 {
		return nil, fmt.Errorf("deployment record for %s is empty: run `trexctl deploy` first", rec.Network)
	}
	identityArt, err := cat.Get(artifact.Identity)
	if err != nil {
		return nil, err
	}

	s := newSuite()
	s.Issued = rec.Issued
	for _, e := range rec.Contracts {
		if e.Kind == contract.KindIdentity {
			s.entries = append(s.entries, e)
			continue
		}
		art, err := cat.Get(e.Artifact)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", e.Name, err)
		}
		if !common.IsHexAddress(e.Address) {
			return nil, fmt.Errorf("binding %s: invalid address %q", e.Name, e.Address)
		}
		s.add(e.Name, contract.NewBound(e.Name, common.HexToAddress(e.Address), art.ABI, b, log))
		s.entries = append(s.entries, e)
	}
	for holder, addr := range rec.Identities {
		s.identities[holder] = contract.NewBound(IdentityPrefix+holder, common.HexToAddress(addr), identityArt.ABI, b, log)
	}
	if _, ok := s.contracts[NameToken]; !ok {
		return nil, fmt.Errorf("%w: %s (incomplete deployment record)", contract.ErrContractNotFound, NameToken)
	}
	return s, nil
}
