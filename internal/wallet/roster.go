package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Fixed roles of a suite deployment.
const (
	RoleDeployer    = "deployer"
	RoleTokenIssuer = "tokenIssuer"
	RoleTokenAgent  = "tokenAgent"
	RoleTokenAdmin  = "tokenAdmin"
	RoleClaimIssuer = "claimIssuer"

	// Generated per run; resolvable by name but unable to send.
	KeyClaimSigning = "claimSigningKey"
	KeyAction       = "actionKey"
)

// ErrRoleNotFound is returned when a name is not bound in the roster.
var ErrRoleNotFound = errors.New("role not found")

// AccountLister lists node-managed accounts in node order.
type AccountLister interface {
	Accounts(ctx context.Context) ([]common.Address, error)
}

// Roster binds role and holder names to signers.
type Roster struct {
	names     []string
	signers   map[string]Signer
	investors []string
	recovery  string
	shared    map[string]string // name -> role whose key it borrowed

	// ClaimSigningKey signs claims for the claim issuer contract.
	ClaimSigningKey *ecdsa.PrivateKey
	// ActionKey is added as an ACTION key to the first investor's identity.
	ActionKey *ecdsa.PrivateKey
}

// NewRoster creates an empty roster for the given investors and recovery
// wallet, with freshly generated claim signing and action keys.
func NewRoster(investors []string, recovery string) (*Roster, error) {
	signing, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating claim signing key: %w", err)
	}
	action, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating action key: %w", err)
	}
	return &Roster{
		signers:         make(map[string]Signer),
		shared:          make(map[string]string),
		investors:       investors,
		recovery:        recovery,
		ClaimSigningKey: signing,
		ActionKey:       action,
	}, nil
}

// Bind assigns a signer to name, keeping first-bound order.
func (r *Roster) Bind(name string, s Signer) {
	if _, ok := r.signers[name]; !ok {
		r.names = append(r.names, name)
	}
	r.signers[name] = s
}

// Signer returns the signer bound to name.
func (r *Roster) Signer(name string) (Signer, error) {
	s, ok := r.signers[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrRoleNotFound)
	}
	return s, nil
}

// Address resolves a bound name or one of the generated keys.
func (r *Roster) Address(name string) (common.Address, error) {
	switch name {
	case KeyClaimSigning:
		return crypto.PubkeyToAddress(r.ClaimSigningKey.PublicKey), nil
	case KeyAction:
		return crypto.PubkeyToAddress(r.ActionKey.PublicKey), nil
	}
	s, err := r.Signer(name)
	if err != nil {
		return common.Address{}, err
	}
	return s.Address(), nil
}

// Names returns bound names in binding order.
func (r *Roster) Names() []string {
	return append([]string(nil), r.names...)
}

// Investors returns investor names in configured order.
func (r *Roster) Investors() []string {
	return append([]string(nil), r.investors...)
}

// Holders returns the deployer followed by every investor: the wallets that
// get an identity.
func (r *Roster) Holders() []string {
	return append([]string{RoleDeployer}, r.investors...)
}

// Recovery returns the name of the recovery wallet.
func (r *Roster) Recovery() string { return r.recovery }

// Addresses maps every bound name, plus the generated keys, to its address.
func (r *Roster) Addresses() map[string]common.Address {
	out := make(map[string]common.Address, len(r.signers)+2)
	for name, s := range r.signers {
		out[name] = s.Address()
	}
	out[KeyClaimSigning] = crypto.PubkeyToAddress(r.ClaimSigningKey.PublicKey)
	out[KeyAction] = crypto.PubkeyToAddress(r.ActionKey.PublicKey)
	return out
}

// Shared returns the roles that borrowed another role's key.
func (r *Roster) Shared() map[string]string {
	out := make(map[string]string, len(r.shared))
	for k, v := range r.shared {
		out[k] = v
	}
	return out
}

// Distinct reports the first pair of names sharing an address, if any.
// Roles that deliberately borrowed a key are ignored.
func (r *Roster) Distinct() (a, b string, ok bool) {
	seen := make(map[common.Address]string, len(r.names))
	for _, name := range r.names {
		if _, borrowed := r.shared[name]; borrowed {
			continue
		}
		addr := r.signers[name].Address()
		if prev, dup := seen[addr]; dup {
			return prev, name, false
		}
		seen[addr] = name
	}
	return "", "", true
}

func (r *Roster) fixedOrder() []string {
	order := []string{RoleDeployer, RoleTokenIssuer, RoleTokenAgent, RoleTokenAdmin, RoleClaimIssuer}
	order = append(order, r.investors...)
	if r.recovery != "" {
		order = append(order, r.recovery)
	}
	return order
}

// NodeRoster binds node accounts in order: deployer, tokenIssuer, tokenAgent,
// tokenAdmin, claimIssuer, investors..., recovery wallet.
func NodeRoster(ctx context.Context, lister AccountLister, investors []string, recovery string) (*Roster, error) {
	r, err := NewRoster(investors, recovery)
	if err != nil {
		return nil, err
	}
	accounts, err := lister.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing node accounts: %w", err)
	}
	order := r.fixedOrder()
	if len(accounts) < len(order) {
		return nil, fmt.Errorf("node exposes %d accounts, %d needed (%v)", len(accounts), len(order), order)
	}
	for i, name := range order {
		r.Bind(name, NewNodeSigner(accounts[i]))
	}
	return r, nil
}

// KeystoreRoster binds one stored key per role. tokenAgent and tokenAdmin fall
// back to the tokenIssuer key; a missing recovery wallet gets a throwaway key.
func KeystoreRoster(ks KeystoreBackend, investors []string, recovery string) (*Roster, error) {
	r, err := NewRoster(investors, recovery)
	if err != nil {
		return nil, err
	}

	fallback := map[string]string{
		RoleTokenAgent: RoleTokenIssuer,
		RoleTokenAdmin: RoleTokenIssuer,
	}
	var missing []string
	for _, name := range r.fixedOrder() {
		hexKey, err := ks.Retrieve(name)
		if errors.Is(err, ErrKeyNotFound) {
			if alt, ok := fallback[name]; ok {
				hexKey, err = ks.Retrieve(alt)
				if err == nil {
					r.shared[name] = alt
				}
			}
		}
		if errors.Is(err, ErrKeyNotFound) && name == recovery {
			key, gerr := crypto.GenerateKey()
			if gerr != nil {
				return nil, gerr
			}
			r.Bind(name, NewKeySigner(key))
			continue
		}
		if errors.Is(err, ErrKeyNotFound) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return nil, err
		}
		s, err := KeySignerFromHex(hexKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		r.Bind(name, s)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("no key for %v (use `trexctl wallet import <role>` or %s<ROLE>): %w",
			missing, EnvKeyPrefix, ErrKeyNotFound)
	}
	return r, nil
}
