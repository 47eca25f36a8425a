package server

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/synnergy-network/substrate-gateway/internal/apierr"
	"github.com/synnergy-network/substrate-gateway/internal/metadata"
	"github.com/synnergy-network/substrate-gateway/internal/scale"
)

// loadPalletView resolves ?at= and returns the pallet named by {name},
// the shape every pallet-metadata endpoint shares.
func (h *handlers) loadPalletView(w http.ResponseWriter, r *http.Request) (metadata.Pallet, *metadata.View, bool) {
	name := mux.Vars(r)["name"]

	c, resolved, err := h.resolveChainAndBlock(r)
	if err != nil {
		writeErr(w, err)
		return metadata.Pallet{}, nil, false
	}
	view, err := c.Metadata.ViewAt(r.Context(), resolved.Hash)
	if err != nil {
		writeErr(w, err)
		return metadata.Pallet{}, nil, false
	}
	p, ok := view.Pallet(name)
	if !ok {
		writeErr(w, apierr.StorageNotFound(name, ""))
		return metadata.Pallet{}, nil, false
	}
	return p, view, true
}

// palletConsts renders every declared constant's SCALE-encoded value
// through the normal decode+render pipeline, same as a storage read.
func (h *handlers) palletConsts(w http.ResponseWriter, r *http.Request) {
	p, view, ok := h.loadPalletView(w, r)
	if !ok {
		return
	}
	renderer := scale.NewRenderer(ss58PrefixOf(view))
	dec := scale.NewDecoder(view.Registry)

	out := make(map[string]any, len(p.Constants))
	for name, c := range p.Constants {
		node, err := dec.Decode(scale.NewCursor(c.Value), c.Type)
		if err != nil {
			out[name] = map[string]any{"error": err.Error()}
			continue
		}
		out[name] = renderer.Render(scale.ContextStorage, node, false)
	}
	writeJSON(w, out)
}

func (h *handlers) palletStorage(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadPalletView(w, r)
	if !ok {
		return
	}
	names := make([]string, 0, len(p.Storage))
	for name := range p.Storage {
		names = append(names, name)
	}
	sort.Strings(names)
	writeJSON(w, map[string]any{"items": names})
}

func (h *handlers) palletDispatchables(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadPalletView(w, r)
	if !ok {
		return
	}
	out := make([]map[string]any, 0, len(p.Calls))
	for _, call := range p.Calls {
		argNames := make([]string, len(call.Args))
		for i, a := range call.Args {
			argNames[i] = a.Name
		}
		out = append(out, map[string]any{"name": call.Name, "index": call.Index, "args": argNames, "docs": call.Docs})
	}
	writeJSON(w, map[string]any{"dispatchables": out})
}

func (h *handlers) palletErrors(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadPalletView(w, r)
	if !ok {
		return
	}
	out := make([]map[string]any, 0, len(p.Errors))
	for _, e := range p.Errors {
		out = append(out, map[string]any{"name": e.Name, "index": e.Index, "docs": e.Docs})
	}
	writeJSON(w, map[string]any{"errors": out})
}

func (h *handlers) palletEvents(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadPalletView(w, r)
	if !ok {
		return
	}
	out := make([]map[string]any, 0, len(p.Events))
	for _, e := range p.Events {
		argNames := make([]string, len(e.Args))
		for i, a := range e.Args {
			argNames[i] = a.Name
		}
		out = append(out, map[string]any{"name": e.Name, "index": e.Index, "args": argNames, "docs": e.Docs})
	}
	writeJSON(w, map[string]any{"events": out})
}
