package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/fuelstack/intent-bridge/internal/gates"
)

// OriginChain bundles everything built once per source chain: the dialed
// client and the bound OpenGate.
type OriginChain struct {
	SourceChain
	Client   *ethclient.Client
	OpenGate *gates.OpenGate
}

// Registry holds the per-chain connections. It is built once at startup and
// injected everywhere a component needs to reach an origin chain, so there is
// exactly one client per chain and lookups by chain ID are explicit.
type Registry struct {
	origins map[uint64]*OriginChain
	order   []uint64
}

// NewRegistry dials every configured source chain and binds its OpenGate.
// A chain that cannot be dialed fails startup; a keeper that silently drops
// an origin chain would strand its orders.
func NewRegistry(chains []SourceChain, logger *logrus.Logger) (*Registry, error) {
	r := &Registry{origins: make(map[uint64]*OriginChain)}

	for _, chain := range chains {
		if _, dup := r.origins[chain.ChainID]; dup {
			r.Close()
			return nil, fmt.Errorf("duplicate source chain ID %d", chain.ChainID)
		}

		client, err := ethclient.Dial(chain.RPCURL)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("failed to dial %s at %s: %w", chain.Name, chain.RPCURL, err)
		}

		r.origins[chain.ChainID] = &OriginChain{
			SourceChain: chain,
			Client:      client,
			OpenGate:    gates.NewOpenGate(chain.OpenGate, client),
		}
		r.order = append(r.order, chain.ChainID)
		logger.Infof("📡 Connected to %s (chain %d)", chain.Name, chain.ChainID)
	}

	return r, nil
}

// Origin returns the origin chain registered under chainID.
func (r *Registry) Origin(chainID uint64) (*OriginChain, error) {
	origin, ok := r.origins[chainID]
	if !ok {
		return nil, fmt.Errorf("no origin chain registered for chain ID %d", chainID)
	}
	return origin, nil
}

// Origins returns all origin chains in configuration order.
func (r *Registry) Origins() []*OriginChain {
	out := make([]*OriginChain, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.origins[id])
	}
	return out
}

// Close releases every client connection.
func (r *Registry) Close() {
	for _, origin := range r.origins {
		origin.Client.Close()
	}
}
