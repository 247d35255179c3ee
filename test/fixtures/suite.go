package fixtures

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	agentRole = crypto.Keccak256Hash([]byte("AGENT_ROLE"))
	adminRole = common.Hash{}
)

func keyHash(addr common.Address) [32]byte {
	return crypto.Keccak256Hash(common.LeftPadBytes(addr.Bytes(), 32))
}

// Suite is a Go model of the suite contracts, enough to replay deployments
// and the token operations of the default scenario. It does not evaluate
// compliance modules.
type Suite struct {
	b          *Backend
	roles      map[common.Address]map[common.Hash]map[common.Address]bool
	owners     map[common.Address]common.Address
	tokens     map[common.Address]*tokenState
	registries map[common.Address]*registryState
	identities map[common.Address]*identityState
	topics     map[common.Address][]*big.Int
	issuers    map[common.Address][]common.Address
}

type identityState struct {
	keys   map[[32]byte]map[uint64]bool
	claims map[string][][32]byte
}

type registryState struct {
	identity map[common.Address]common.Address
	country  map[common.Address]uint16
}

type tokenState struct {
	name, symbol string
	decimals     uint8
	registry     common.Address
	compliance   common.Address
	onchainID    common.Address
	paused       bool
	supply       *big.Int
	balances     map[common.Address]*big.Int
	frozenTokens map[common.Address]*big.Int
	frozen       map[common.Address]bool
	allowances   map[common.Address]map[common.Address]*big.Int
}

// InstallSuite attaches the suite model to every matching contract the
// backend deploys from now on.
func InstallSuite(b *Backend) *Suite {
	s := &Suite{
		b:          b,
		roles:      make(map[common.Address]map[common.Hash]map[common.Address]bool),
		owners:     make(map[common.Address]common.Address),
		tokens:     make(map[common.Address]*tokenState),
		registries: make(map[common.Address]*registryState),
		identities: make(map[common.Address]*identityState),
		topics:     make(map[common.Address][]*big.Int),
		issuers:    make(map[common.Address][]common.Address),
	}
	b.OnDeploy(s.attach)
	return s
}

// Balance reads a token balance straight from the model.
func (s *Suite) Balance(token, holder common.Address) *big.Int {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return new(big.Int).Set(s.tokens[token].balance(holder))
}

// Registered reports the identity the registry holds for wallet.
func (s *Suite) Registered(registry, wallet common.Address) common.Address {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return s.registries[registry].identity[wallet]
}

// HasKey reports whether an identity holds key for purpose.
func (s *Suite) HasKey(identity common.Address, key [32]byte, purpose uint64) bool {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	id, ok := s.identities[identity]
	return ok && id.hasPurpose(key, purpose)
}

// HasRole reads the role table of a contract.
func (s *Suite) HasRole(contract common.Address, role common.Hash, account common.Address) bool {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return s.roles[contract][role][account]
}

func (s *Suite) attach(d Deployment, c *Contract) {
	s.owners[d.Address] = d.From
	if _, ok := c.ABI.Methods["grantRole"]; ok {
		s.installRoles(d, c)
	}
	switch d.Name {
	case "Identity":
		s.installIdentity(c, d.Args[0].(common.Address))
	case "IdentityProxy":
		// calls go through the Identity ABI, as with a real proxy
		if impl := s.b.artifactABI("Identity"); impl != nil {
			c.ABI = *impl
		}
		s.installIdentity(c, d.Args[1].(common.Address))
	case "ClaimIssuer":
		s.installIdentity(c, d.Args[0].(common.Address))
		c.Methods["isClaimValid"] = func(_ common.Address, a []interface{}) ([]interface{}, error) {
			return []interface{}{s.claimValid(d.Address, a[0].(common.Address), a[1].(*big.Int), a[2].([]byte), a[3].([]byte))}, nil
		}
	case "ClaimTopicsRegistry":
		c.Methods["addClaimTopic"] = s.onlyOwner(d.Address, func(_ common.Address, a []interface{}) ([]interface{}, error) {
			s.topics[d.Address] = append(s.topics[d.Address], a[0].(*big.Int))
			return nil, nil
		})
		c.Methods["getClaimTopics"] = func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{append([]*big.Int{}, s.topics[d.Address]...)}, nil
		}
	case "ClaimIssuersRegistry":
		c.Methods["addClaimIssuer"] = s.onlyOwner(d.Address, func(_ common.Address, a []interface{}) ([]interface{}, error) {
			s.issuers[d.Address] = append(s.issuers[d.Address], a[0].(common.Address))
			return nil, nil
		})
		c.Methods["getClaimIssuers"] = func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{append([]common.Address{}, s.issuers[d.Address]...)}, nil
		}
	case "IdentityRegistry":
		s.installRegistry(d, c)
	case "Token":
		s.installToken(d, c)
	}
}

func (b *Backend) artifactABI(name string) *abi.ABI {
	for i := range b.artifacts {
		if b.artifacts[i].name == name {
			return &b.artifacts[i].abi
		}
	}
	return nil
}

func (s *Suite) onlyOwner(contract common.Address, m Method) Method {
	return func(from common.Address, a []interface{}) ([]interface{}, error) {
		if s.owners[contract] != from {
			return nil, errors.New("Ownable: caller is not the owner")
		}
		return m(from, a)
	}
}

func (s *Suite) onlyRole(contract common.Address, role common.Hash, m Method) Method {
	return func(from common.Address, a []interface{}) ([]interface{}, error) {
		if !s.roles[contract][role][from] {
			return nil, errors.New("AccessControl: account is missing role")
		}
		return m(from, a)
	}
}

func (s *Suite) installRoles(d Deployment, c *Contract) {
	table := map[common.Hash]map[common.Address]bool{adminRole: {d.From: true}}
	s.roles[d.Address] = table
	set := func(role common.Hash, acc common.Address, v bool) {
		if table[role] == nil {
			table[role] = map[common.Address]bool{}
		}
		table[role][acc] = v
	}
	c.Methods["hasRole"] = func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return []interface{}{table[common.Hash(a[0].([32]byte))][a[1].(common.Address)]}, nil
	}
	c.Methods["grantRole"] = s.onlyRole(d.Address, adminRole, func(_ common.Address, a []interface{}) ([]interface{}, error) {
		set(common.Hash(a[0].([32]byte)), a[1].(common.Address), true)
		return nil, nil
	})
	c.Methods["revokeRole"] = s.onlyRole(d.Address, adminRole, func(_ common.Address, a []interface{}) ([]interface{}, error) {
		set(common.Hash(a[0].([32]byte)), a[1].(common.Address), false)
		return nil, nil
	})
	c.Methods["renounceRole"] = func(from common.Address, a []interface{}) ([]interface{}, error) {
		if a[1].(common.Address) != from {
			return nil, errors.New("AccessControl: can only renounce roles for self")
		}
		set(common.Hash(a[0].([32]byte)), from, false)
		return nil, nil
	}
}

// --- identities ---

func (id *identityState) hasPurpose(key [32]byte, purpose uint64) bool {
	p := id.keys[key]
	return p[1] || p[purpose]
}

func (s *Suite) installIdentity(c *Contract, manager common.Address) {
	id := &identityState{
		keys:   map[[32]byte]map[uint64]bool{keyHash(manager): {1: true}},
		claims: map[string][][32]byte{},
	}
	s.identities[c.Address] = id
	self := c.Address

	c.Methods["keyHasPurpose"] = func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return []interface{}{id.hasPurpose(a[0].([32]byte), a[1].(*big.Int).Uint64())}, nil
	}
	c.Methods["addKey"] = func(from common.Address, a []interface{}) ([]interface{}, error) {
		if !id.hasPurpose(keyHash(from), 1) {
			return nil, errors.New("Permissions: Sender does not have management key")
		}
		key, purpose := a[0].([32]byte), a[1].(*big.Int).Uint64()
		if id.keys[key] == nil {
			id.keys[key] = map[uint64]bool{}
		}
		if id.keys[key][purpose] {
			return nil, errors.New("Conflict: Key already has purpose")
		}
		id.keys[key][purpose] = true
		return []interface{}{true}, nil
	}
	c.Methods["addClaim"] = func(from common.Address, a []interface{}) ([]interface{}, error) {
		if from != self && !id.hasPurpose(keyHash(from), 3) {
			return nil, errors.New("Permissions: Sender does not have claim signer key")
		}
		topic, issuer := a[0].(*big.Int), a[2].(common.Address)
		if _, isIssuer := s.identities[issuer]; isIssuer && issuer != self {
			if !s.claimValid(issuer, self, topic, a[3].([]byte), a[4].([]byte)) {
				return nil, errors.New("invalid claim")
			}
		}
		claimID := crypto.Keccak256Hash(issuer.Bytes(), common.LeftPadBytes(topic.Bytes(), 32))
		id.claims[topic.String()] = append(id.claims[topic.String()], claimID)
		return []interface{}{claimID}, nil
	}
	c.Methods["getClaimIdsByTopic"] = func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return []interface{}{append([][32]byte{}, id.claims[a[0].(*big.Int).String()]...)}, nil
	}
}

func (s *Suite) claimValid(issuer, identity common.Address, topic *big.Int, sig, data []byte) bool {
	id, ok := s.identities[issuer]
	if !ok || len(sig) != 65 {
		return false
	}
	addrT, _ := abi.NewType("address", "", nil)
	uintT, _ := abi.NewType("uint256", "", nil)
	bytesT, _ := abi.NewType("bytes", "", nil)
	packed, err := abi.Arguments{{Type: addrT}, {Type: uintT}, {Type: bytesT}}.Pack(identity, topic, data)
	if err != nil {
		return false
	}
	rsv := append([]byte{}, sig...)
	if rsv[64] >= 27 {
		rsv[64] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(crypto.Keccak256(packed)), rsv)
	if err != nil {
		return false
	}
	return id.hasPurpose(keyHash(crypto.PubkeyToAddress(*pub)), 3)
}

// --- identity registry ---

func (s *Suite) installRegistry(d Deployment, c *Contract) {
	reg := &registryState{identity: map[common.Address]common.Address{}, country: map[common.Address]uint16{}}
	s.registries[d.Address] = reg

	c.Methods["batchRegisterIdentity"] = s.onlyRole(d.Address, agentRole, func(_ common.Address, a []interface{}) ([]interface{}, error) {
		wallets, ids, countries := a[0].([]common.Address), a[1].([]common.Address), a[2].([]uint16)
		if len(wallets) != len(ids) || len(ids) != len(countries) {
			return nil, errors.New("array length mismatch")
		}
		for i, w := range wallets {
			if reg.identity[w] != (common.Address{}) {
				return nil, errors.New("address stored already")
			}
			reg.identity[w] = ids[i]
			reg.country[w] = countries[i]
		}
		return nil, nil
	})
	c.Methods["identity"] = func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return []interface{}{reg.identity[a[0].(common.Address)]}, nil
	}
	c.Methods["investorCountry"] = func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return []interface{}{reg.country[a[0].(common.Address)]}, nil
	}
	c.Methods["contains"] = func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return []interface{}{reg.identity[a[0].(common.Address)] != (common.Address{})}, nil
	}
	c.Methods["isVerified"] = c.Methods["contains"]
}

// --- token ---

func (t *tokenState) balance(a common.Address) *big.Int {
	if v, ok := t.balances[a]; ok {
		return v
	}
	return new(big.Int)
}

func (t *tokenState) frozenOf(a common.Address) *big.Int {
	if v, ok := t.frozenTokens[a]; ok {
		return v
	}
	return new(big.Int)
}

func (t *tokenState) allowance(owner, spender common.Address) *big.Int {
	if v, ok := t.allowances[owner][spender]; ok {
		return v
	}
	return new(big.Int)
}

func (t *tokenState) setAllowance(owner, spender common.Address, v *big.Int) {
	if t.allowances[owner] == nil {
		t.allowances[owner] = map[common.Address]*big.Int{}
	}
	t.allowances[owner][spender] = v
}

func (t *tokenState) free(a common.Address) *big.Int {
	return new(big.Int).Sub(t.balance(a), t.frozenOf(a))
}

func (t *tokenState) move(from, to common.Address, amt *big.Int) {
	t.balances[from] = new(big.Int).Sub(t.balance(from), amt)
	t.balances[to] = new(big.Int).Add(t.balance(to), amt)
}

// unfreezeShortfall releases frozen tokens so amt can leave a, as agent
// operations do.
func (t *tokenState) unfreezeShortfall(a common.Address, amt *big.Int) {
	if free := t.free(a); amt.Cmp(free) > 0 {
		t.frozenTokens[a] = new(big.Int).Sub(t.frozenOf(a), new(big.Int).Sub(amt, free))
	}
}

func (s *Suite) verified(t *tokenState, a common.Address) bool {
	reg, ok := s.registries[t.registry]
	return ok && reg.identity[a] != (common.Address{})
}

func (s *Suite) installToken(d Deployment, c *Contract) {
	t := &tokenState{
		registry:     d.Args[0].(common.Address),
		compliance:   d.Args[1].(common.Address),
		name:         d.Args[2].(string),
		symbol:       d.Args[3].(string),
		decimals:     d.Args[4].(uint8),
		onchainID:    d.Args[5].(common.Address),
		supply:       new(big.Int),
		balances:     map[common.Address]*big.Int{},
		frozenTokens: map[common.Address]*big.Int{},
		frozen:       map[common.Address]bool{},
		allowances:   map[common.Address]map[common.Address]*big.Int{},
	}
	s.tokens[d.Address] = t
	s.roles[d.Address][agentRole] = map[common.Address]bool{d.From: true}

	agent := func(m Method) Method { return s.onlyRole(d.Address, agentRole, m) }
	admin := func(m Method) Method { return s.onlyRole(d.Address, adminRole, m) }
	ret := func(v ...interface{}) ([]interface{}, error) { return v, nil }

	c.Methods["name"] = func(common.Address, []interface{}) ([]interface{}, error) { return ret(t.name) }
	c.Methods["symbol"] = func(common.Address, []interface{}) ([]interface{}, error) { return ret(t.symbol) }
	c.Methods["decimals"] = func(common.Address, []interface{}) ([]interface{}, error) { return ret(t.decimals) }
	c.Methods["totalSupply"] = func(common.Address, []interface{}) ([]interface{}, error) { return ret(new(big.Int).Set(t.supply)) }
	c.Methods["paused"] = func(common.Address, []interface{}) ([]interface{}, error) { return ret(t.paused) }
	c.Methods["compliance"] = func(common.Address, []interface{}) ([]interface{}, error) { return ret(t.compliance) }
	c.Methods["identityRegistry"] = func(common.Address, []interface{}) ([]interface{}, error) { return ret(t.registry) }
	c.Methods["onchainID"] = func(common.Address, []interface{}) ([]interface{}, error) { return ret(t.onchainID) }
	c.Methods["balanceOf"] = func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return ret(new(big.Int).Set(t.balance(a[0].(common.Address))))
	}
	c.Methods["getFrozenTokens"] = func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return ret(new(big.Int).Set(t.frozenOf(a[0].(common.Address))))
	}
	c.Methods["isFrozen"] = func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return ret(t.frozen[a[0].(common.Address)])
	}
	c.Methods["allowance"] = func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return ret(new(big.Int).Set(t.allowance(a[0].(common.Address), a[1].(common.Address))))
	}

	transfer := func(from, to common.Address, amt *big.Int) error {
		if t.paused {
			return errors.New("Pausable: paused")
		}
		if t.frozen[from] || t.frozen[to] {
			return errors.New("wallet is frozen")
		}
		if amt.Cmp(t.free(from)) > 0 {
			return errors.New("Insufficient Balance")
		}
		if !s.verified(t, to) {
			return errors.New("Transfer not possible")
		}
		t.move(from, to, amt)
		return nil
	}
	transferFrom := func(spender, from, to common.Address, amt *big.Int) error {
		allowed := t.allowance(from, spender)
		if amt.Cmp(allowed) > 0 {
			return errors.New("ERC20: insufficient allowance")
		}
		if err := transfer(from, to, amt); err != nil {
			return err
		}
		t.setAllowance(from, spender, new(big.Int).Sub(allowed, amt))
		return nil
	}
	forced := func(from, to common.Address, amt *big.Int) error {
		if t.balance(from).Cmp(amt) < 0 {
			return errors.New("sender balance too low")
		}
		if !s.verified(t, to) {
			return errors.New("Transfer not possible")
		}
		t.unfreezeShortfall(from, amt)
		t.move(from, to, amt)
		return nil
	}
	mint := func(to common.Address, amt *big.Int) error {
		if !s.verified(t, to) {
			return errors.New("Identity is not verified.")
		}
		t.balances[to] = new(big.Int).Add(t.balance(to), amt)
		t.supply = new(big.Int).Add(t.supply, amt)
		return nil
	}
	burn := func(who common.Address, amt *big.Int) error {
		if t.balance(who).Cmp(amt) < 0 {
			return errors.New("cannot burn more than balance")
		}
		t.unfreezeShortfall(who, amt)
		t.balances[who] = new(big.Int).Sub(t.balance(who), amt)
		t.supply = new(big.Int).Sub(t.supply, amt)
		return nil
	}
	freeze := func(who common.Address, amt *big.Int) error {
		if t.balance(who).Cmp(new(big.Int).Add(t.frozenOf(who), amt)) < 0 {
			return errors.New("Amount exceeds available balance")
		}
		t.frozenTokens[who] = new(big.Int).Add(t.frozenOf(who), amt)
		return nil
	}
	unfreeze := func(who common.Address, amt *big.Int) error {
		if t.frozenOf(who).Cmp(amt) < 0 {
			return errors.New("Amount should be less than or equal to frozen tokens")
		}
		t.frozenTokens[who] = new(big.Int).Sub(t.frozenOf(who), amt)
		return nil
	}

	c.Methods["transfer"] = func(from common.Address, a []interface{}) ([]interface{}, error) {
		return []interface{}{true}, transfer(from, a[0].(common.Address), a[1].(*big.Int))
	}
	c.Methods["transferFrom"] = func(from common.Address, a []interface{}) ([]interface{}, error) {
		return []interface{}{true}, transferFrom(from, a[0].(common.Address), a[1].(common.Address), a[2].(*big.Int))
	}
	c.Methods["approve"] = func(from common.Address, a []interface{}) ([]interface{}, error) {
		t.setAllowance(from, a[0].(common.Address), new(big.Int).Set(a[1].(*big.Int)))
		return ret(true)
	}
	c.Methods["increaseAllowance"] = func(from common.Address, a []interface{}) ([]interface{}, error) {
		sp := a[0].(common.Address)
		t.setAllowance(from, sp, new(big.Int).Add(t.allowance(from, sp), a[1].(*big.Int)))
		return ret(true)
	}
	c.Methods["decreaseAllowance"] = func(from common.Address, a []interface{}) ([]interface{}, error) {
		sp := a[0].(common.Address)
		next := new(big.Int).Sub(t.allowance(from, sp), a[1].(*big.Int))
		if next.Sign() < 0 {
			return nil, errors.New("ERC20: decreased allowance below zero")
		}
		t.setAllowance(from, sp, next)
		return ret(true)
	}
	c.Methods["mint"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return nil, mint(a[0].(common.Address), a[1].(*big.Int))
	})
	c.Methods["burn"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return nil, burn(a[0].(common.Address), a[1].(*big.Int))
	})
	c.Methods["forcedTransfer"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return []interface{}{true}, forced(a[0].(common.Address), a[1].(common.Address), a[2].(*big.Int))
	})
	c.Methods["freezePartialTokens"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return nil, freeze(a[0].(common.Address), a[1].(*big.Int))
	})
	c.Methods["unfreezePartialTokens"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		return nil, unfreeze(a[0].(common.Address), a[1].(*big.Int))
	})
	c.Methods["setAddressFrozen"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		t.frozen[a[0].(common.Address)] = a[1].(bool)
		return nil, nil
	})
	c.Methods["pause"] = agent(func(common.Address, []interface{}) ([]interface{}, error) {
		if t.paused {
			return nil, errors.New("Pausable: paused")
		}
		t.paused = true
		return nil, nil
	})
	c.Methods["unpause"] = agent(func(common.Address, []interface{}) ([]interface{}, error) {
		if !t.paused {
			return nil, errors.New("Pausable: not paused")
		}
		t.paused = false
		return nil, nil
	})
	c.Methods["setCompliance"] = admin(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		t.compliance = a[0].(common.Address)
		return nil, nil
	})
	c.Methods["setIdentityRegistry"] = admin(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		t.registry = a[0].(common.Address)
		return nil, nil
	})
	c.Methods["setOnchainID"] = admin(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		t.onchainID = a[0].(common.Address)
		return nil, nil
	})
	c.Methods["recoveryAddress"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		lost, next, oid := a[0].(common.Address), a[1].(common.Address), a[2].(common.Address)
		if t.balance(lost).Sign() == 0 {
			return nil, errors.New("no tokens to recover")
		}
		id, ok := s.identities[oid]
		if !ok || !id.hasPurpose(keyHash(next), 1) {
			return nil, errors.New("Recovery not possible")
		}
		reg := s.registries[t.registry]
		reg.identity[next], reg.country[next] = oid, reg.country[lost]
		delete(reg.identity, lost)
		delete(reg.country, lost)

		frozenAmt := t.frozenOf(lost)
		t.frozenTokens[lost] = new(big.Int)
		t.move(lost, next, t.balance(lost))
		t.frozenTokens[next] = new(big.Int).Add(t.frozenOf(next), frozenAmt)
		if t.frozen[lost] {
			t.frozen[next] = true
		}
		return ret(true)
	})

	batch := func(n int, each func(i int) error) error {
		for i := 0; i < n; i++ {
			if err := each(i); err != nil {
				return err
			}
		}
		return nil
	}
	c.Methods["batchTransfer"] = func(from common.Address, a []interface{}) ([]interface{}, error) {
		to, amts := a[0].([]common.Address), a[1].([]*big.Int)
		return nil, batch(len(to), func(i int) error { return transfer(from, to[i], amts[i]) })
	}
	c.Methods["batchTransferFrom"] = func(spender common.Address, a []interface{}) ([]interface{}, error) {
		from, to, amts := a[0].([]common.Address), a[1].([]common.Address), a[2].([]*big.Int)
		return nil, batch(len(from), func(i int) error { return transferFrom(spender, from[i], to[i], amts[i]) })
	}
	c.Methods["batchForcedTransfer"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		from, to, amts := a[0].([]common.Address), a[1].([]common.Address), a[2].([]*big.Int)
		return nil, batch(len(from), func(i int) error { return forced(from[i], to[i], amts[i]) })
	})
	c.Methods["batchMint"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		to, amts := a[0].([]common.Address), a[1].([]*big.Int)
		return nil, batch(len(to), func(i int) error { return mint(to[i], amts[i]) })
	})
	c.Methods["batchBurn"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		who, amts := a[0].([]common.Address), a[1].([]*big.Int)
		return nil, batch(len(who), func(i int) error { return burn(who[i], amts[i]) })
	})
	c.Methods["batchFreezePartialTokens"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		who, amts := a[0].([]common.Address), a[1].([]*big.Int)
		return nil, batch(len(who), func(i int) error { return freeze(who[i], amts[i]) })
	})
	c.Methods["batchUnfreezePartialTokens"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		who, amts := a[0].([]common.Address), a[1].([]*big.Int)
		return nil, batch(len(who), func(i int) error { return unfreeze(who[i], amts[i]) })
	})
	c.Methods["batchSetAddressFrozen"] = agent(func(_ common.Address, a []interface{}) ([]interface{}, error) {
		who, flags := a[0].([]common.Address), a[1].([]bool)
		for i := range who {
			t.frozen[who[i]] = flags[i]
		}
		return nil, nil
	})
}
