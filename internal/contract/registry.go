package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// ErrContractNotFound is returned when a contract is not in the deployment record.
var ErrContractNotFound = errors.New("contract not found")

// Entry kinds.
const (
	KindSuite    = "suite"
	KindIdentity = "identity"
)

// Entry is one deployed contract.
type Entry struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	Artifact   string `json:"artifact"` // ABI used to bind the address
	Kind       string `json:"kind"`
	TxHash     string `json:"tx_hash,omitempty"`
	Deployer   string `json:"deployer,omitempty"`
	DeployedAt string `json:"deployed_at,omitempty"`
}

// Record is the on-disk deployment of one network.
type Record struct {
	Network    string            `json:"network"`
	ChainID    int64             `json:"chain_id"`
	Contracts  []Entry           `json:"contracts"`
	Roster     map[string]string `json:"roster"`     // name -> wallet address
	Identities map[string]string `json:"identities"` // holder -> identity address
	Issued     bool              `json:"issued"`
	Incomplete string            `json:"incomplete,omitempty"` // error of an aborted deployment
}

// Registry stores the deployment record of one network as JSON.
type Registry struct {
	path string
	rec  Record
}

// NewRegistry creates a Registry backed by a JSON file.
func NewRegistry(path string) *Registry {
	return &Registry{path: path, rec: Record{
		Roster:     map[string]string{},
		Identities: map[string]string{},
	}}
}

// Path returns the backing file.
func (r *Registry) Path() string { return r.path }

// Exists reports whether a record has been saved.
func (r *Registry) Exists() bool {
	_, err := os.Stat(r.path)
	return err == nil
}

// Load reads the record from disk. A missing file leaves the registry empty.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("parsing deployment record %s: %w", r.path, err)
	}
	if rec.Roster == nil {
		rec.Roster = map[string]string{}
	}
	if rec.Identities == nil {
		rec.Identities = map[string]string{}
	}
	r.rec = rec
	return nil
}

// Save writes the record to disk, creating the directory.
func (r *Registry) Save() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r.rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}

// Reset clears every entry, keeping the file path.
func (r *Registry) Reset(network string, chainID int64) {
	r.rec = Record{
		Network:    network,
		ChainID:    chainID,
		Roster:     map[string]string{},
		Identities: map[string]string{},
	}
}

// Record returns the current record.
func (r *Registry) Record() Record { return r.rec }

// Add adds or replaces a contract entry, keeping deployment order.
func (r *Registry) Add(e Entry) {
	for i := range r.rec.Contracts {
		if r.rec.Contracts[i].Name == e.Name {
			r.rec.Contracts[i] = e
			return
		}
	}
	r.rec.Contracts = append(r.rec.Contracts, e)
}

// Get returns a contract by name.
func (r *Registry) Get(name string) (*Entry, error) {
	for i := range r.rec.Contracts {
		if r.rec.Contracts[i].Name == name {
			e := r.rec.Contracts[i]
			return &e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrContractNotFound, name, r.path)
}

// All returns every contract in deployment order.
func (r *Registry) All() []Entry {
	return append([]Entry(nil), r.rec.Contracts...)
}

// SetRoster stores the name -> address binding of a run.
func (r *Registry) SetRoster(addrs map[string]common.Address) {
	r.rec.Roster = make(map[string]string, len(addrs))
	for name, a := range addrs {
		r.rec.Roster[name] = a.Hex()
	}
}

// Roster returns the saved names in sorted order with their addresses.
func (r *Registry) Roster() ([]string, map[string]common.Address) {
	names := make([]string, 0, len(r.rec.Roster))
	out := make(map[string]common.Address, len(r.rec.Roster))
	for name, a := range r.rec.Roster {
		names = append(names, name)
		out[name] = common.HexToAddress(a)
	}
	sort.Strings(names)
	return names, out
}

// SetIdentity stores a holder's identity address.
func (r *Registry) SetIdentity(holder string, addr common.Address) {
	r.rec.Identities[holder] = addr.Hex()
}

// Identity returns a holder's identity address.
func (r *Registry) Identity(holder string) (common.Address, error) {
	a, ok := r.rec.Identities[holder]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: identity of %s", ErrContractNotFound, holder)
	}
	return common.HexToAddress(a), nil
}

// MarkIncomplete records that the deployment stopped with err.
func (r *Registry) MarkIncomplete(err error) { r.rec.Incomplete = err.Error() }

// MarkIssued records that initial amounts were minted.
func (r *Registry) MarkIssued() { r.rec.Issued = true }
