package rpc

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"
	AlgorithmFailover   Algorithm = "failover"

	// Nodes more than this many blocks behind the best are stale.
	staleBlockThreshold = 3
)

// ParseAlgorithm validates a configured algorithm name. Empty means fastest.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case "":
		return AlgorithmFastest, nil
	case AlgorithmFastest, AlgorithmRoundRobin, AlgorithmFailover:
		return a, nil
	default:
		return "", fmt.Errorf("unknown rpc algorithm %q (want fastest, round-robin or failover)", s)
	}
}

// Endpoint is a probed RPC endpoint.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool
	Err         error
}

// Picker selects an endpoint according to its algorithm. Round-robin state
// lives on the picker, so reuse one picker across calls.
type Picker struct {
	algo    Algorithm
	mu      sync.Mutex
	rrIndex int
}

// NewPicker creates a new Picker with the given algorithm.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{algo: algo}
}

// Pick selects an endpoint from the probed list.
func (p *Picker) Pick(endpoints []Endpoint) (*Endpoint, error) {
	healthy := make([]*Endpoint, 0, len(endpoints))
	for i := range endpoints {
		if endpoints[i].Healthy {
			healthy = append(healthy, &endpoints[i])
		}
	}
	if len(healthy) == 0 {
		return nil, ErrNoHealthyRPC
	}

	switch p.algo {
	case AlgorithmRoundRobin:
		p.mu.Lock()
		defer p.mu.Unlock()
		e := healthy[p.rrIndex%len(healthy)]
		p.rrIndex = (p.rrIndex + 1) % len(healthy)
		return e, nil
	case AlgorithmFailover:
		// configured order wins
		return healthy[0], nil
	default:
		winner := healthy[0]
		for _, e := range healthy[1:] {
			if e.Latency < winner.Latency {
				winner = e
			}
		}
		return winner, nil
	}
}

// markStale flags endpoints lagging the best observed block.
func markStale(endpoints []Endpoint) {
	var best uint64
	for _, e := range endpoints {
		if e.Healthy && e.BlockNumber > best {
			best = e.BlockNumber
		}
	}
	for i := range endpoints {
		e := &endpoints[i]
		if e.Healthy && best-e.BlockNumber > staleBlockThreshold {
			e.Healthy = false
			e.Err = fmt.Errorf("stale: %d blocks behind", best-e.BlockNumber)
		}
	}
}
