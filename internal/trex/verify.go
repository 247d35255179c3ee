package trex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/config"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

// Check outcomes.
const (
	StatusPass = "pass"
	StatusFail = "fail"
	StatusSkip = "skip"
)

// Check is the result of one environment check.
type Check struct {
	Name   string
	Status string
	Detail string
}

// Failed reports whether any check failed.
func Failed(checks []Check) bool {
	for _, c := range checks {
		if c.Status == StatusFail {
			return true
		}
	}
	return false
}

// Verifier checks a deployed suite against the roster and config.
type Verifier struct {
	backend chain.Backend
	suite   *Suite
	roster  *wallet.Roster
	cfg     *config.Config
	log     *zap.Logger
}

// NewVerifier returns a Verifier. A nil logger discards output.
func NewVerifier(b chain.Backend, s *Suite, roster *wallet.Roster, cfg *config.Config, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{backend: b, suite: s, roster: roster, cfg: cfg, log: log}
}

// Verify runs every check. It only returns an error when the context ends;
// failing checks are reported in the results.
func (v *Verifier) Verify(ctx context.Context) ([]Check, error) {
	var checks []Check
	add := func(c Check) {
		v.log.Debug("check", zap.String("name", c.Name), zap.String("status", c.Status), zap.String("detail", c.Detail))
		checks = append(checks, c)
	}

	add(v.checkRoster())
	for _, c := range v.suite.Contracts() {
		add(v.checkCode(ctx, "code: "+c.Name, c.Address))
	}
	for _, holder := range v.roster.Holders() {
		add(v.checkIdentity(ctx, holder))
	}
	for _, c := range v.checkBalances(ctx) {
		add(c)
	}
	return checks, ctx.Err()
}

func (v *Verifier) checkRoster() Check {
	c := Check{Name: "roster: distinct addresses"}
	if a, b, ok := v.roster.Distinct(); !ok {
		c.Status, c.Detail = StatusFail, fmt.Sprintf("%s and %s share an address", a, b)
		return c
	}
	c.Status = StatusPass
	c.Detail = fmt.Sprintf("%d accounts", len(v.roster.Names()))
	if shared := v.roster.Shared(); len(shared) > 0 {
		c.Detail += fmt.Sprintf(", %d borrowed keys", len(shared))
	}
	return c
}

func (v *Verifier) checkCode(ctx context.Context, name string, addr common.Address) Check {
	c := Check{Name: name}
	code, err := v.backend.GetCode(ctx, addr)
	switch {
	case err != nil:
		c.Status, c.Detail = StatusFail, err.Error()
	case len(code) == 0:
		c.Status, c.Detail = StatusFail, "no code at "+addr.Hex()
	default:
		c.Status, c.Detail = StatusPass, fmt.Sprintf("%s (%d bytes)", addr.Hex(), len(code))
	}
	return c
}

// checkIdentity checks the holder's identity has code and, when the
// registry exposes identity(address), that it is registered to the wallet.
func (v *Verifier) checkIdentity(ctx context.Context, holder string) Check {
	c := Check{Name: "identity: " + holder}
	id, err := v.suite.Identity(holder)
	if err != nil {
		c.Status, c.Detail = StatusFail, err.Error()
		return c
	}
	if code := v.checkCode(ctx, c.Name, id.Address); code.Status != StatusPass {
		return code
	}

	registry, err := v.suite.Contract(NameIdentityRegistry)
	if err != nil || !registry.Has("identity") {
		c.Status, c.Detail = StatusSkip, "identity registry has no identity(address) view"
		return c
	}
	walletAddr, err := v.roster.Address(holder)
	if err != nil {
		c.Status, c.Detail = StatusFail, err.Error()
		return c
	}
	out, err := registry.Call(ctx, "identity", walletAddr)
	if err != nil {
		c.Status, c.Detail = StatusFail, err.Error()
		return c
	}
	if got, _ := out[0].(common.Address); got != id.Address {
		c.Status, c.Detail = StatusFail, fmt.Sprintf("registered %s, deployed %s", got.Hex(), id.Address.Hex())
		return c
	}
	c.Status, c.Detail = StatusPass, id.Address.Hex()
	return c
}

func (v *Verifier) checkBalances(ctx context.Context) []Check {
	names, amounts, addrs, err := expectedBalances(v.cfg, v.roster)
	if err != nil {
		return []Check{{Name: "balances", Status: StatusFail, Detail: err.Error()}}
	}
	if !v.suite.Issued {
		out := make([]Check, 0, len(names))
		for _, n := range names {
			out = append(out, Check{Name: "balance: " + n, Status: StatusSkip, Detail: "initial amounts not issued"})
		}
		return out
	}

	states, err := v.suite.Token().HolderStates(ctx, names, addrs)
	if err != nil {
		return []Check{{Name: "balances", Status: StatusFail, Detail: err.Error()}}
	}
	out := make([]Check, 0, len(states))
	for _, st := range states {
		c := Check{Name: "balance: " + st.Name, Status: StatusPass, Detail: st.Balance.String()}
		if want := amounts[st.Name]; st.Balance.Cmp(want) != 0 {
			c.Status, c.Detail = StatusFail, fmt.Sprintf("balance %s, want %s", st.Balance, want)
		}
		out = append(out, c)
	}
	return out
}
