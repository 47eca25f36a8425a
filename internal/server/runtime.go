package server

import (
	"encoding/hex"
	"net/http"

	"github.com/synnergy-network/substrate-gateway/internal/rpc"
)

func (h *handlers) runtimeSpec(w http.ResponseWriter, r *http.Request) {
	c, resolved, err := h.resolveChainAndBlock(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	v, err := rpc.StateGetRuntimeVersion(r.Context(), c.Client, resolved.Hash)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) runtimeMetadata(w http.ResponseWriter, r *http.Request) {
	c, resolved, err := h.resolveChainAndBlock(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	raw, err := rpc.StateGetMetadata(r.Context(), c.Client, resolved.Hash)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"metadata": "0x" + hex.EncodeToString(raw)})
}

// runtimeCode returns the raw Wasm blob stored under the well-known
// storage key ":code" — a literal byte string, not twox128-hashed the
// way pallet storage keys are.
func (h *handlers) runtimeCode(w http.ResponseWriter, r *http.Request) {
	c, resolved, err := h.resolveChainAndBlock(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	raw, ok, err := rpc.StateGetStorage(r.Context(), c.Client, []byte(":code"), resolved.Hash)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !ok {
		writeJSON(w, map[string]any{"code": nil})
		return
	}
	writeJSON(w, map[string]any{"code": "0x" + hex.EncodeToString(raw)})
}
