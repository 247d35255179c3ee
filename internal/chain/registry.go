package chain

import (
	"errors"
	"strings"
)

// ErrChainNotFound is returned when a chain is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Chain holds display metadata for a known EVM chain.
type Chain struct {
	Name           string `json:"name"`
	DisplayName    string `json:"display_name"`
	ChainID        int64  `json:"chain_id"`
	NativeCurrency string `json:"native_currency"`
	Explorer       string `json:"explorer,omitempty"` // empty for local dev chains
	Local          bool   `json:"local,omitempty"`
}

// Registry is a lookup table of chains the CLI knows how to label.
type Registry struct {
	chains []Chain
	byName map[string]*Chain
	byID   map[int64]*Chain
}

// NewRegistry returns the registry of known chains.
func NewRegistry() *Registry {
	chains := knownChains()
	r := &Registry{
		chains: chains,
		byName: make(map[string]*Chain, len(chains)),
		byID:   make(map[int64]*Chain, len(chains)),
	}
	for i := range r.chains {
		c := &r.chains[i]
		r.byName[c.Name] = c
		r.byID[c.ChainID] = c
	}
	return r
}

// All returns every chain in the registry.
func (r *Registry) All() []Chain {
	return r.chains
}

// GetByName finds a chain by its slug name (e.g. "amoy").
func (r *Registry) GetByName(name string) (*Chain, error) {
	c, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// GetByChainID finds a chain by its numeric chain ID.
func (r *Registry) GetByChainID(id int64) (*Chain, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// TxURL links to a transaction on the chain's explorer, or "" when there is none.
func (c *Chain) TxURL(hash string) string {
	if c.Explorer == "" {
		return ""
	}
	return c.Explorer + "/tx/" + hash
}

// AddressURL links to an address on the chain's explorer, or "" when there is none.
func (c *Chain) AddressURL(addr string) string {
	if c.Explorer == "" {
		return ""
	}
	return c.Explorer + "/address/" + addr
}

func knownChains() []Chain {
	return []Chain{
		{Name: "hardhat", DisplayName: "Hardhat Network", ChainID: 31337, NativeCurrency: "ETH", Local: true},
		{Name: "ganache", DisplayName: "Ganache", ChainID: 1337, NativeCurrency: "ETH", Local: true},
		{Name: "amoy", DisplayName: "Polygon Amoy", ChainID: 80002, NativeCurrency: "POL", Explorer: "https://amoy.polygonscan.com"},
		{Name: "polygon", DisplayName: "Polygon", ChainID: 137, NativeCurrency: "POL", Explorer: "https://polygonscan.com"},
		{Name: "sepolia", DisplayName: "Sepolia", ChainID: 11155111, NativeCurrency: "ETH", Explorer: "https://sepolia.etherscan.io"},
		{Name: "ethereum", DisplayName: "Ethereum", ChainID: 1, NativeCurrency: "ETH", Explorer: "https://etherscan.io"},
	}
}
