package server

import (
	"net/http"

	"github.com/synnergy-network/substrate-gateway/internal/scale"
	"github.com/synnergy-network/substrate-gateway/internal/storage"
)

func (h *handlers) coretimeLeases(w http.ResponseWriter, r *http.Request) {
	h.readCoretimePlain(w, r, "Leases")
}

// coretimeReservations decodes Broker.Reservations the same way as
// Broker.Leases — both are Plain storage entries holding a Vec of
// scheduling records.
func (h *handlers) coretimeReservations(w http.ResponseWriter, r *http.Request) {
	h.readCoretimePlain(w, r, "Reservations")
}

func (h *handlers) readCoretimePlain(w http.ResponseWriter, r *http.Request, entry string) {
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

	q := &storage.Query{Client: c.Client, View: view, Renderer: scale.NewRenderer(ss58PrefixOf(view))}
	value, found, err := q.ReadPlain(r.Context(), "Broker", entry, resolved)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !found {
		writeJSON(w, []any{})
		return
	}
	writeJSON(w, value)
}
