package rpc

import (
	"context"
	"time"

	"github.com/Mohsinsiddi/trexctl/internal/chain"
	"golang.org/x/sync/errgroup"
)

// probeTimeout bounds a single health check.
var probeTimeout = 5 * time.Second

// HealthCheck pings a single RPC and reports latency and block height.
func HealthCheck(ctx context.Context, url string) Endpoint {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	ep := Endpoint{URL: url}
	c, err := chain.Dial(ctx, url)
	if err != nil {
		ep.Err = err
		return ep
	}
	defer c.Close()

	ep.Latency, ep.BlockNumber, ep.Err = c.Ping(ctx)
	ep.Healthy = ep.Err == nil
	return ep
}

// Probe health-checks every URL in parallel, preserving order, and marks
// endpoints that lag the best block as unhealthy.
func Probe(ctx context.Context, urls []string) []Endpoint {
	endpoints := make([]Endpoint, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			endpoints[i] = HealthCheck(ctx, u)
			return nil
		})
	}
	_ = g.Wait() // probes never fail the group; errors live on the endpoint
	markStale(endpoints)
	return endpoints
}

// Select dials the best endpoint among urls. A single URL is dialed without
// probing.
func Select(ctx context.Context, urls []string, algo Algorithm, opts ...chain.Option) (*chain.Client, error) {
	switch len(urls) {
	case 0:
		return nil, ErrNoHealthyRPC
	case 1:
		return chain.Dial(ctx, urls[0], opts...)
	}

	winner, err := NewPicker(algo).Pick(Probe(ctx, urls))
	if err != nil {
		return nil, err
	}
	return chain.Dial(ctx, winner.URL, opts...)
}
