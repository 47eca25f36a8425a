package server

import (
	"encoding/binary"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/synnergy-network/substrate-gateway/internal/apierr"
	"github.com/synnergy-network/substrate-gateway/internal/metadata"
	"github.com/synnergy-network/substrate-gateway/internal/scale"
	"github.com/synnergy-network/substrate-gateway/internal/ss58"
	"github.com/synnergy-network/substrate-gateway/internal/storage"
	"github.com/synnergy-network/substrate-gateway/internal/storagekeys"
)

// readAccountEntry resolves {addr} and ?at=, loads the active View, and
// reads a single-account-keyed storage map entry — the shape every
// account-info endpoint shares, differing only in which pallet/entry
// they point at.
func (h *handlers) readAccountEntry(w http.ResponseWriter, r *http.Request, pallet, entry string) (value any, found bool, ok bool) {
	addr := mux.Vars(r)["addr"]
	account, _, err := ss58.Decode(addr)
	if err != nil {
		writeErr(w, badRequest("addr", err.Error()))
		return nil, false, false
	}

	c, resolved, err := h.resolveChainAndBlock(r)
	if err != nil {
		writeErr(w, err)
		return nil, false, false
	}
	view, err := c.Metadata.ViewAt(r.Context(), resolved.Hash)
	if err != nil {
		writeErr(w, err)
		return nil, false, false
	}

	q := &storage.Query{Client: c.Client, View: view, Renderer: scale.NewRenderer(ss58PrefixOf(view))}
	value, found, err = q.ReadMapEntry(r.Context(), pallet, entry, [][]byte{account[:]}, resolved)
	if err != nil {
		writeErr(w, err)
		return nil, false, false
	}
	return value, found, true
}

func (h *handlers) accountBalanceInfo(w http.ResponseWriter, r *http.Request) {
	value, found, ok := h.readAccountEntry(w, r, "System", "Account")
	if !ok {
		return
	}
	if !found {
		writeJSON(w, map[string]any{"free": "0", "reserved": "0", "frozen": "0"})
		return
	}
	writeJSON(w, value)
}

func (h *handlers) accountStakingInfo(w http.ResponseWriter, r *http.Request) {
	value, found, ok := h.readAccountEntry(w, r, "Staking", "Ledger")
	if !ok {
		return
	}
	writeJSON(w, map[string]any{"staking": value, "found": found})
}

func (h *handlers) accountVestingInfo(w http.ResponseWriter, r *http.Request) {
	value, found, ok := h.readAccountEntry(w, r, "Vesting", "Vesting")
	if !ok {
		return
	}
	writeJSON(w, map[string]any{"vesting": value, "found": found})
}

func (h *handlers) accountProxyInfo(w http.ResponseWriter, r *http.Request) {
	value, found, ok := h.readAccountEntry(w, r, "Proxy", "Proxies")
	if !ok {
		return
	}
	writeJSON(w, map[string]any{"proxies": value, "found": found})
}

// accountAssetBalances enumerates Assets.Account, a double map keyed by
// (AssetId: u32, AccountId32), for the given address. Listing every key
// under the pallet and filtering by the account's 32-byte suffix is the
// only way to discover which assets an account holds without an index:
// this assumes Assets.Account's declared key components are a 4-byte
// AssetId and a 32-byte AccountId32, each under a *Concat hasher (true
// of every pallet-assets deployment this gateway targets); an entry
// whose hasher doesn't preserve raw bytes, or whose key widths differ,
// is silently skipped rather than misreported.
func (h *handlers) accountAssetBalances(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["addr"]
	account, _, err := ss58.Decode(addr)
	if err != nil {
		writeErr(w, badRequest("addr", err.Error()))
		return
	}

	c, resolved, err := h.resolveChainAndBlock(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	view, err := c.Metadata.ViewAt(r.Context(), resolved.Hash)
	if err != nil {
		writeErr(w, err)
		return
	}
	p, ok := view.Pallet("Assets")
	if !ok {
		writeErr(w, apierr.StorageNotFound("Assets", "Account"))
		return
	}
	se, ok := p.Storage["Account"]
	if !ok || len(se.Hashers) != 2 {
		writeErr(w, apierr.StorageNotFound("Assets", "Account"))
		return
	}

	q := &storage.Query{Client: c.Client, View: view, Renderer: scale.NewRenderer(ss58PrefixOf(view))}
	keys, _, err := q.ListMapKeys(r.Context(), "Assets", "Account", 0, resolved)
	if err != nil {
		writeErr(w, err)
		return
	}

	out := make([]map[string]any, 0)
	for _, key := range keys {
		suffix, ok := storagekeys.StripPrefix(key, "Assets", "Account", se.Hashers, []int{4, 32})
		if !ok || len(suffix) != 36 {
			continue
		}
		assetIDBytes, accountSuffix := suffix[:4], suffix[4:]
		if string(accountSuffix) != string(account[:]) {
			continue
		}
		value, found, err := q.ReadMapEntry(r.Context(), "Assets", "Account", [][]byte{assetIDBytes, account[:]}, resolved)
		if err != nil || !found {
			continue
		}
		out = append(out, map[string]any{"assetId": binary.LittleEndian.Uint32(assetIDBytes), "balance": value})
	}
	writeJSON(w, map[string]any{"assets": out})
}

// ss58PrefixOf mirrors blockbuilder's helper of the same name: reads
// System.SS58Prefix from the metadata constants, defaulting to 42.
func ss58PrefixOf(view *metadata.View) uint16 {
	p, ok := view.Pallet("System")
	if !ok {
		return 42
	}
	c, ok := p.Constants["SS58Prefix"]
	if !ok || len(c.Value) < 2 {
		return 42
	}
	return uint16(c.Value[0]) | uint16(c.Value[1])<<8
}
