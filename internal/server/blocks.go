package server

import (
	"encoding/hex"
	"net/http"

	"github.com/synnergy-network/substrate-gateway/internal/blockbuilder"
	"github.com/synnergy-network/substrate-gateway/internal/blockid"
	"github.com/synnergy-network/substrate-gateway/internal/correlator"
	"github.com/synnergy-network/substrate-gateway/internal/resolver"
)

func (h *handlers) blockHead(w http.ResponseWriter, r *http.Request) {
	h.renderBlock(w, r, blockid.Head)
}

func (h *handlers) blockByID(w http.ResponseWriter, r *http.Request) {
	id, err := blockIDFromRequest(r)
	if err != nil {
		writeErr(w, badRequest("id", err.Error()))
		return
	}
	h.renderBlock(w, r, id)
}

func (h *handlers) renderBlock(w http.ResponseWriter, r *http.Request, id blockid.BlockId) {
	c, err := h.chain()
	if err != nil {
		writeErr(w, err)
		return
	}
	blk, err := blockbuilder.Build(r.Context(), c.Client, c.Metadata, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, blk)
}

// blockExtrinsicsRaw returns just the raw hex-encoded extrinsics of a
// block, skipping the decode pass entirely — useful for clients that
// want to re-decode or archive the wire bytes themselves.
func (h *handlers) blockExtrinsicsRaw(w http.ResponseWriter, r *http.Request) {
	id, err := blockIDFromRequest(r)
	if err != nil {
		writeErr(w, badRequest("id", err.Error()))
		return
	}
	c, err := h.chain()
	if err != nil {
		writeErr(w, err)
		return
	}
	blk, err := blockbuilder.Build(r.Context(), c.Client, c.Metadata, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	raw := make([]string, len(blk.Extrinsics))
	for i, ex := range blk.Extrinsics {
		raw[i] = ex.RawHex
	}
	writeJSON(w, map[string]any{"extrinsics": raw})
}

// blockParaInclusions mirrors /v1/blocks/{id}/para-inclusions: on the
// /v1/rc mount it returns the Asset Hub blocks a relay block included
// (internal/correlator); on the local mount it reports an empty list,
// since a parachain's own blocks don't include other parachains'
// candidates.
func (h *handlers) blockParaInclusions(w http.ResponseWriter, r *http.Request) {
	if !h.relay {
		writeJSON(w, map[string]any{"includedBlocks": []any{}})
		return
	}
	id, err := blockIDFromRequest(r)
	if err != nil {
		writeErr(w, badRequest("id", err.Error()))
		return
	}
	relay, err := h.chain()
	if err != nil {
		writeErr(w, err)
		return
	}
	local := h.deps.Chains.Local

	resolved, err := resolver.Resolve(r.Context(), relay.Client, id)
	if err != nil {
		writeErr(w, err)
		return
	}

	blocks, err := correlator.FindAssetHubBlocks(r.Context(), relay, local, resolved.Hash, h.deps.Chains.AssetHubPara)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]map[string]any, len(blocks))
	for i, b := range blocks {
		out[i] = map[string]any{"height": b.Height, "hash": "0x" + hex.EncodeToString(b.Hash[:])}
	}
	writeJSON(w, map[string]any{"includedBlocks": out})
}
