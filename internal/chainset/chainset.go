// Package chainset wires together the local chain's and (optionally)
// the relay chain's RPC client and metadata cache, giving handlers one place to pick "this chain" vs "the relay" per
// request.
package chainset

import (
	"github.com/synnergy-network/substrate-gateway/internal/apierr"
	"github.com/synnergy-network/substrate-gateway/internal/metadata"
	"github.com/synnergy-network/substrate-gateway/internal/rpc"
)

// Chain bundles one chain's RPC client with its metadata cache.
type Chain struct {
	Client   *rpc.Client
	Metadata *metadata.Cache
}

// Set holds the local chain (always present) and the relay chain
// (present only when Relay.Enabled is configured).
type Set struct {
	Local        Chain
	Relay        *Chain
	AssetHubPara uint32
}

// New builds a Set from already-constructed chains. relay is nil when
// the relay chain is not configured, matching config.Relay.Enabled=false.
func New(local Chain, relay *Chain, assetHubPara uint32) *Set {
	return &Set{Local: local, Relay: relay, AssetHubPara: assetHubPara}
}

// Select returns the local or relay chain depending on useRelay,
// reporting apierr.RelayNotConfigured if the relay was requested but
// never configured.
func (s *Set) Select(useRelay bool) (Chain, error) {
	if !useRelay {
		return s.Local, nil
	}
	if s.Relay == nil {
		return Chain{}, apierr.RelayNotConfigured()
	}
	return *s.Relay, nil
}
