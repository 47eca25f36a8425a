// Package server implements the Handler Dispatch layer: a gorilla/mux
// router exposing the /v1/* REST surface over the Storage Query Layer,
// Block Builder, and metadata View, plus the /v1/rc/* mirrors that
// route the same handlers at the configured relay chain.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/substrate-gateway/internal/apierr"
	"github.com/synnergy-network/substrate-gateway/internal/blockid"
	"github.com/synnergy-network/substrate-gateway/internal/chainset"
	"github.com/synnergy-network/substrate-gateway/internal/metrics"
	"github.com/synnergy-network/substrate-gateway/internal/resolver"
)

// Deps bundles everything handlers need: the local/relay chain set, the
// request logger, and the metrics registry the logging middleware
// reports into.
type Deps struct {
	Chains  *chainset.Set
	Log     *logrus.Entry
	Metrics *metrics.Metrics
}

// NewRouter builds the full /v1 route table, local chain first and
// /v1/rc mirrors second so both share the same handler functions
// parameterized only by which chainset.Chain they read through, plus a
// /metrics endpoint outside the /v1 prefix.
func NewRouter(deps *Deps) *mux.Router {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	r := mux.NewRouter()
	r.Use(loggingMiddleware(deps.Log, deps.Metrics))

	r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)

	mountRoutes(r.PathPrefix("/v1").Subrouter(), deps, false)
	mountRoutes(r.PathPrefix("/v1/rc").Subrouter(), deps, true)

	return r
}

func mountRoutes(r *mux.Router, deps *Deps, relay bool) {
	h := &handlers{deps: deps, relay: relay}

	r.HandleFunc("/blocks/head", h.blockHead).Methods(http.MethodGet)
	r.HandleFunc("/blocks/{id}/extrinsics-raw", h.blockExtrinsicsRaw).Methods(http.MethodGet)
	r.HandleFunc("/blocks/{id}/para-inclusions", h.blockParaInclusions).Methods(http.MethodGet)
	r.HandleFunc("/blocks/{id}", h.blockByID).Methods(http.MethodGet)
	r.HandleFunc("/blocks", h.blockByID).Methods(http.MethodGet)

	r.HandleFunc("/accounts/{addr}/balance-info", h.accountBalanceInfo).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{addr}/staking-info", h.accountStakingInfo).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{addr}/vesting-info", h.accountVestingInfo).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{addr}/proxy-info", h.accountProxyInfo).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{addr}/asset-balances", h.accountAssetBalances).Methods(http.MethodGet)

	r.HandleFunc("/pallets/{name}/consts", h.palletConsts).Methods(http.MethodGet)
	r.HandleFunc("/pallets/{name}/storage", h.palletStorage).Methods(http.MethodGet)
	r.HandleFunc("/pallets/{name}/dispatchables", h.palletDispatchables).Methods(http.MethodGet)
	r.HandleFunc("/pallets/{name}/errors", h.palletErrors).Methods(http.MethodGet)
	r.HandleFunc("/pallets/{name}/events", h.palletEvents).Methods(http.MethodGet)

	r.HandleFunc("/runtime/spec", h.runtimeSpec).Methods(http.MethodGet)
	r.HandleFunc("/runtime/metadata", h.runtimeMetadata).Methods(http.MethodGet)
	r.HandleFunc("/runtime/code", h.runtimeCode).Methods(http.MethodGet)

	r.HandleFunc("/node/version", h.nodeVersion).Methods(http.MethodGet)
	r.HandleFunc("/node/network", h.nodeNetwork).Methods(http.MethodGet)

	r.HandleFunc("/coretime/leases", h.coretimeLeases).Methods(http.MethodGet)
	r.HandleFunc("/coretime/reservations", h.coretimeReservations).Methods(http.MethodGet)
}

func loggingMiddleware(log *logrus.Entry, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			m.Observe(route, rec.status, elapsed)

			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"elapsed_ms": elapsed.Milliseconds(),
			}).Info("request")
		})
	}
}

// statusRecorder captures the status code a handler wrote, since
// http.ResponseWriter doesn't expose it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handlers closes over whether this mount point reads the local chain
// or the relay chain; every method below is otherwise chain-agnostic.
type handlers struct {
	deps  *Deps
	relay bool
}

func (h *handlers) chain() (chainset.Chain, error) {
	return h.deps.Chains.Select(h.relay)
}

// blockIDFromRequest resolves the path's {id} (or "head" when absent,
// e.g. the bare /blocks route) and the optional ?at= query override.
func blockIDFromRequest(r *http.Request) (blockid.BlockId, error) {
	vars := mux.Vars(r)
	raw := vars["id"]
	if raw == "" {
		raw = r.URL.Query().Get("at")
	}
	if raw == "" {
		raw = "head"
	}
	return blockid.Parse(raw)
}

func atFromQuery(r *http.Request) (blockid.BlockId, error) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		raw = "head"
	}
	return blockid.Parse(raw)
}

// resolveChainAndBlock resolves h's active chain plus the request's
// ?at= (or the chain tip), shared by every endpoint that only needs a
// block hash rather than a full block build.
func (h *handlers) resolveChainAndBlock(r *http.Request) (chainset.Chain, resolver.ResolvedBlock, error) {
	c, err := h.chain()
	if err != nil {
		return chainset.Chain{}, resolver.ResolvedBlock{}, err
	}
	at, err := atFromQuery(r)
	if err != nil {
		return chainset.Chain{}, resolver.ResolvedBlock{}, badRequest("at", err.Error())
	}
	resolved, err := resolver.Resolve(r.Context(), c.Client, at)
	return c, resolved, err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	apierr.WriteJSON(w, err)
}

func badRequest(field, reason string) error {
	return apierr.InvalidInput(field, reason)
}
