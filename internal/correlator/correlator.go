// Package correlator finds every Asset Hub (or other configured
// parachain) block included in a given relay chain block, by walking
// the relay's ParaInclusion.CandidateIncluded events and resolving each
// included head's block number against the parachain's own client.
package correlator

import (
	"context"
	"fmt"
	"strings"

	"github.com/synnergy-network/substrate-gateway/internal/apierr"
	"github.com/synnergy-network/substrate-gateway/internal/chainset"
	"github.com/synnergy-network/substrate-gateway/internal/resolver"
	"github.com/synnergy-network/substrate-gateway/internal/rpc"
	"github.com/synnergy-network/substrate-gateway/internal/scale"
	"github.com/synnergy-network/substrate-gateway/internal/storagekeys"
)

// FindAssetHubBlocks returns every configured parachain block included
// in the relay chain block at relayHash, resolved through assetHub's own
// client. A CandidateIncluded event whose shape doesn't match the
// common CandidateReceipt{descriptor{paraId}}/HeadData layout is
// skipped rather than failing the whole lookup — runtimes occasionally
// version these types, and one unreadable candidate shouldn't hide the
// others.
func FindAssetHubBlocks(ctx context.Context, relay, assetHub chainset.Chain, relayHash [32]byte, paraID uint32) ([]resolver.ResolvedBlock, error) {
	view, err := relay.Metadata.ViewAt(ctx, relayHash)
	if err != nil {
		return nil, fmt.Errorf("correlator: load relay metadata: %w", err)
	}

	key := storagekeys.BuildKey("System", "Events")
	raw, ok, err := rpc.StateGetStorage(ctx, relay.Client, key, relayHash)
	if err != nil {
		return nil, apierr.RpcFailure("state_getStorage", err)
	}
	if !ok {
		return nil, apierr.UnsupportedChain("relay chain block has no System.Events")
	}

	p, ok := view.Pallet("System")
	if !ok {
		return nil, fmt.Errorf("correlator: relay metadata has no System pallet")
	}
	se, ok := p.Storage["Events"]
	if !ok {
		return nil, fmt.Errorf("correlator: relay metadata has no System.Events entry")
	}

	dec := scale.NewDecoder(view.Registry)
	root, err := dec.Decode(scale.NewCursor(raw), se.ValueType)
	if err != nil {
		return nil, apierr.DecodeFailed("System", "Events", err)
	}

	var out []resolver.ResolvedBlock
	for _, rec := range root.Elems {
		event, ok := findNamedField(rec, "event")
		if !ok || event.Kind != scale.KindVariant || len(event.Fields) != 1 {
			continue
		}
		pallet := event.Variant.Name
		inner := event.Fields[0].Value
		if !strings.EqualFold(pallet, "ParaInclusion") || inner.Kind != scale.KindVariant {
			continue
		}
		if !strings.EqualFold(inner.Variant.Name, "CandidateIncluded") {
			continue
		}

		height, matched, ok := decodeCandidateIncluded(inner, paraID)
		if !ok || !matched {
			continue
		}

		hash, found, err := rpc.ChainGetBlockHash(ctx, assetHub.Client, height)
		if err != nil {
			return nil, apierr.RpcFailure("chain_getBlockHash", err)
		}
		if !found {
			continue
		}
		out = append(out, resolver.ResolvedBlock{Hash: hash, Height: height})
	}
	return out, nil
}

// decodeCandidateIncluded reads CandidateIncluded(CandidateReceipt,
// HeadData, CoreIndex, GroupIndex): the receipt's descriptor.paraId
// field (to filter for the configured parachain) and the head data's
// embedded block number (the second SCALE field of any
// sp_runtime::generic::Header: 32-byte parent hash, then a
// Compact<u32> block number).
func decodeCandidateIncluded(candidateIncluded scale.Node, wantParaID uint32) (height uint64, matched bool, ok bool) {
	if len(candidateIncluded.Fields) < 2 {
		return 0, false, false
	}
	receipt := candidateIncluded.Fields[0].Value
	headData := candidateIncluded.Fields[1].Value

	descriptor, ok := findNamedField(receipt, "descriptor")
	if !ok {
		descriptor = receipt // some runtimes flatten the descriptor inline
	}
	paraIDNode, ok := findNamedField(descriptor, "paraId")
	if !ok {
		paraIDNode, ok = findNamedField(descriptor, "para_id")
	}
	if !ok || paraIDNode.Int == nil {
		return 0, false, false
	}
	if uint32(paraIDNode.Int.Uint64()) != wantParaID {
		return 0, false, true
	}

	if !headData.IsBytes || len(headData.Bytes) < 33 {
		return 0, false, false
	}
	h, n, err := decodeCompactU32(headData.Bytes[32:])
	_ = n
	if err != nil {
		return 0, false, false
	}
	return h, true, true
}

func findNamedField(node scale.Node, name string) (scale.Node, bool) {
	for _, f := range node.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return scale.Node{}, false
}

// decodeCompactU32 reads a SCALE compact integer from the front of b,
// local to this package since a parachain HeadData blob is decoded
// ahead of having that parachain's own metadata loaded.
func decodeCompactU32(b []byte) (v uint64, consumed int, err error) {
	if len(b) < 1 {
		return 0, 0, fmt.Errorf("correlator: empty compact")
	}
	switch b[0] & 0x03 {
	case 0:
		return uint64(b[0] >> 2), 1, nil
	case 1:
		if len(b) < 2 {
			return 0, 0, fmt.Errorf("correlator: truncated 2-byte compact")
		}
		return uint64(b[0])>>2 | uint64(b[1])<<6, 2, nil
	case 2:
		if len(b) < 4 {
			return 0, 0, fmt.Errorf("correlator: truncated 4-byte compact")
		}
		v = uint64(b[0])>>2 | uint64(b[1])<<6 | uint64(b[2])<<14 | uint64(b[3])<<22
		return v, 4, nil
	default:
		extraBytes := int(b[0]>>2) + 4
		if len(b) < 1+extraBytes {
			return 0, 0, fmt.Errorf("correlator: truncated big-int compact")
		}
		for i := extraBytes - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[1+i])
		}
		return v, 1 + extraBytes, nil
	}
}
