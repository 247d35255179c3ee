package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/trexctl/internal/artifact"
	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"github.com/Mohsinsiddi/trexctl/internal/contract"
	"github.com/Mohsinsiddi/trexctl/internal/trex"
	"github.com/Mohsinsiddi/trexctl/internal/wallet"
)

const maxParallelViews = 8

// ViewChange is a watched view before and after a step.
type ViewChange struct {
	Label  string
	Before string
	After  string
}

// StepResult is the outcome of one step.
type StepResult struct {
	Name     string
	Call     string
	TxHash   common.Hash
	Reverted bool
	Reason   string
	Views    []ViewChange
	Failures []string
	Duration time.Duration
}

// OK reports whether the step met all its expectations.
func (r *StepResult) OK() bool { return len(r.Failures) == 0 }

// Report collects the results of a run.
type Report struct {
	Scenario string
	Steps    []StepResult
	Skipped  int // steps not run after a failure
}

// Failed returns the number of failed steps.
func (r *Report) Failed() int {
	n := 0
	for i := range r.Steps {
		if !r.Steps[i].OK() {
			n++
		}
	}
	return n
}

// Runner executes scenarios against a suite.
type Runner struct {
	backend chain.Backend
	catalog *artifact.Catalog
	suite   *trex.Suite
	roster  *wallet.Roster
	log     *zap.Logger
	res     *resolver
	onStep  func(index, total int, name string)
}

// NewRunner returns a Runner. A nil logger discards output.
func NewRunner(b chain.Backend, cat *artifact.Catalog, s *trex.Suite, roster *wallet.Roster, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		backend: b,
		catalog: cat,
		suite:   s,
		roster:  roster,
		log:     log,
		res:     &resolver{suite: s, roster: roster, vars: make(map[string]common.Address)},
	}
}

// OnStep registers a progress callback.
func (r *Runner) OnStep(fn func(index, total int, name string)) { r.onStep = fn }

// Vars returns the addresses saved by deploy_identity steps.
func (r *Runner) Vars() map[string]common.Address {
	out := make(map[string]common.Address, len(r.res.vars))
	for k, v := range r.res.vars {
		out[k] = v
	}
	return out
}

// Run executes the steps in order. It stops at the first failed step unless
// keepGoing is set. A failed step makes Run return ErrExpectationFailed along
// with the report.
func (r *Runner) Run(ctx context.Context, sc *Scenario, keepGoing bool) (*Report, error) {
	rep := &Report{Scenario: sc.Name}
	for i := range sc.Steps {
		if err := ctx.Err(); err != nil {
			rep.Skipped = len(sc.Steps) - i
			return rep, err
		}
		st := &sc.Steps[i]
		if r.onStep != nil {
			r.onStep(i+1, len(sc.Steps), st.Name)
		}
		res := r.runStep(ctx, st)
		rep.Steps = append(rep.Steps, res)

		fields := []zap.Field{
			zap.Int("step", i+1),
			zap.String("name", st.Name),
			zap.String("call", res.Call),
			zap.Bool("reverted", res.Reverted),
			zap.Duration("took", res.Duration),
		}
		if res.TxHash != (common.Hash{}) {
			fields = append(fields, zap.Stringer("tx", res.TxHash))
		}
		for _, v := range res.Views {
			r.log.Debug("view", zap.String("step", st.Name), zap.String("view", v.Label),
				zap.String("before", v.Before), zap.String("after", v.After))
		}
		if !res.OK() {
			r.log.Warn("scenario step failed", append(fields, zap.Strings("failures", res.Failures))...)
			if !keepGoing {
				rep.Skipped = len(sc.Steps) - i - 1
				break
			}
			continue
		}
		r.log.Info("scenario step", fields...)
	}
	if n := rep.Failed(); n > 0 {
		return rep, fmt.Errorf("%w: %d of %d steps failed", ErrExpectationFailed, n, len(rep.Steps))
	}
	return rep, nil
}

func (r *Runner) runStep(ctx context.Context, st *Step) (res StepResult) {
	started := time.Now()
	res = StepResult{Name: st.Name, Call: st.Describe()}
	fail := func(format string, args ...interface{}) {
		res.Failures = append(res.Failures, fmt.Sprintf(format, args...))
	}
	defer func() { res.Duration = time.Since(started) }()

	views := collectViews(st)
	before, err := r.snapshot(ctx, views)
	if err != nil {
		fail("reading views before: %v", err)
		return res
	}

	as := st.As
	if as == "" {
		as = wallet.RoleDeployer
	}
	signer, err := r.roster.Signer(as)
	if err != nil {
		fail("%v", err)
		return res
	}

	var receipt *chain.Receipt
	if st.DeployIdentity != nil {
		receipt, err = r.deployIdentity(ctx, signer, st.DeployIdentity)
	} else {
		receipt, err = r.transact(ctx, signer, st)
	}
	if receipt != nil {
		res.TxHash = receipt.Hash
	}
	var revert *chain.RevertError
	switch {
	case errors.As(err, &revert):
		res.Reverted, res.Reason = true, revert.Reason
		if !st.ExpectRevert {
			fail("reverted: %s", revert.Reason)
		}
	case err != nil:
		fail("%v", err)
		return res
	case st.ExpectRevert:
		fail("expected a revert, transaction succeeded")
	}

	after, err := r.snapshot(ctx, views)
	if err != nil {
		fail("reading views after: %v", err)
		return res
	}
	for _, v := range views {
		key := v.Label()
		res.Views = append(res.Views, ViewChange{Label: key, Before: format(before[key]), After: format(after[key])})
	}
	for _, e := range st.Expect {
		if msg := r.check(e, before[e.View.Label()], after[e.View.Label()]); msg != "" {
			fail("%s", msg)
		}
	}
	return res
}

func (r *Runner) transact(ctx context.Context, s wallet.Signer, st *Step) (*chain.Receipt, error) {
	c, err := r.contract(st.Contract)
	if err != nil {
		return nil, err
	}
	args, err := r.res.resolve([]interface{}(st.Args))
	if err != nil {
		return nil, err
	}
	return c.Transact(ctx, s, st.Call, args.([]interface{})...)
}

// deployIdentity deploys an identity proxy on the suite's implementation
// authority and saves its address.
func (r *Runner) deployIdentity(ctx context.Context, s wallet.Signer, di *DeployIdentity) (*chain.Receipt, error) {
	owner, err := r.res.resolveString(di.Owner)
	if err != nil {
		return nil, err
	}
	ownerAddr, ok := owner.(common.Address)
	if !ok {
		return nil, fmt.Errorf("identity owner %q is not an address", di.Owner)
	}
	authority, err := r.suite.Contract(trex.NameImplementationAuthority)
	if err != nil {
		return nil, err
	}
	art, err := r.catalog.Get(artifact.IdentityProxy)
	if err != nil {
		return nil, err
	}
	proxy, receipt, err := contract.Deploy(ctx, r.backend, s, art, r.log, authority.Address, ownerAddr)
	if err != nil {
		return receipt, err
	}
	r.res.vars[di.Save] = proxy.Address
	r.log.Info("identity deployed", zap.String("var", di.Save), zap.Stringer("identity", proxy.Address))
	return receipt, nil
}

// contract resolves a step target: a suite name, identity:<holder> or a $var
// saved by deploy_identity (bound to the Identity ABI).
func (r *Runner) contract(name string) (*contract.Bound, error) {
	if name == "" {
		name = trex.NameToken
	}
	if v, ok := strings.CutPrefix(name, prefixVar); ok {
		addr, ok := r.res.vars[v]
		if !ok {
			return nil, fmt.Errorf("undefined variable %s", name)
		}
		art, err := r.catalog.Get(artifact.Identity)
		if err != nil {
			return nil, err
		}
		return contract.NewBound(name, addr, art.ABI, r.backend, r.log), nil
	}
	return r.suite.Contract(name)
}

func collectViews(st *Step) []View {
	seen := make(map[string]bool)
	var out []View
	add := func(v View) {
		if !seen[v.Label()] {
			seen[v.Label()] = true
			out = append(out, v)
		}
	}
	for _, v := range st.Watch {
		add(v)
	}
	for _, e := range st.Expect {
		add(e.View)
	}
	return out
}

// snapshot reads every view in parallel, keyed by label.
func (r *Runner) snapshot(ctx context.Context, views []View) (map[string]interface{}, error) {
	values := make([]interface{}, len(views))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelViews)
	for i, v := range views {
		i, v := i, v
		g.Go(func() error {
			val, err := r.read(ctx, v)
			if err != nil {
				return fmt.Errorf("%s: %w", v.Label(), err)
			}
			values[i] = val
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(views))
	for i, v := range views {
		out[v.Label()] = values[i]
	}
	return out, nil
}

func (r *Runner) read(ctx context.Context, v View) (interface{}, error) {
	c, err := r.contract(v.Contract)
	if err != nil {
		return nil, err
	}
	args, err := r.res.resolve([]interface{}(v.Of))
	if err != nil {
		return nil, err
	}
	out, err := c.Call(ctx, v.View, args.([]interface{})...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("view returned nothing")
	}
	return out[0], nil
}

// check returns a failure message, or "" when e holds.
func (r *Runner) check(e Expectation, before, after interface{}) string {
	label := e.View.Label()
	if e.Change != "" {
		want, err := parseChange(e.Change)
		if err != nil {
			return fmt.Sprintf("%s: %v", label, err)
		}
		b, okB := before.(*big.Int)
		a, okA := after.(*big.Int)
		if !okB || !okA {
			return fmt.Sprintf("%s: change needs a numeric view, got %T", label, after)
		}
		if got := new(big.Int).Sub(a, b); got.Cmp(want) != 0 {
			return fmt.Sprintf("%s changed by %s, want %s (%s -> %s)", label, got, want, b, a)
		}
		return ""
	}
	want, err := r.res.resolve(e.Equals)
	if err != nil {
		return fmt.Sprintf("%s: %v", label, err)
	}
	if !equalValues(after, want) {
		return fmt.Sprintf("%s = %s, want %s", label, format(after), format(want))
	}
	return ""
}
