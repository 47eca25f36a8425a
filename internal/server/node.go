package server

import (
	"net/http"

	"github.com/synnergy-network/substrate-gateway/internal/rpc"
)

func (h *handlers) nodeVersion(w http.ResponseWriter, r *http.Request) {
	c, err := h.chain()
	if err != nil {
		writeErr(w, err)
		return
	}
	name, err := rpc.SystemName(r.Context(), c.Client)
	if err != nil {
		writeErr(w, err)
		return
	}
	version, err := rpc.SystemVersion(r.Context(), c.Client)
	if err != nil {
		writeErr(w, err)
		return
	}
	chain, err := rpc.SystemChain(r.Context(), c.Client)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"name": name, "version": version, "chain": chain})
}

func (h *handlers) nodeNetwork(w http.ResponseWriter, r *http.Request) {
	c, err := h.chain()
	if err != nil {
		writeErr(w, err)
		return
	}
	health, err := rpc.SystemHealth(r.Context(), c.Client)
	if err != nil {
		writeErr(w, err)
		return
	}
	network, err := rpc.SystemNetworkState(r.Context(), c.Client)
	if err != nil {
		writeErr(w, err)
		return
	}
	peers, err := rpc.SystemPeers(r.Context(), c.Client)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"health": health, "networkState": network, "peers": peers})
}
