package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/substrate-gateway/internal/chainset"
	"github.com/synnergy-network/substrate-gateway/internal/metadata"
	"github.com/synnergy-network/substrate-gateway/internal/rpc"
)

// The helpers below hand-assemble a minimal V14 metadata blob, the same
// way internal/metadata's own decode tests do, so these handler tests
// exercise the real Cache -> Decode path rather than bypassing it with
// a hand-built View.

func compact(n int) []byte {
	if n >= 64 {
		panic("test helper only supports single-byte compact mode")
	}
	return []byte{byte(n << 2)}
}

func str(s string) []byte {
	return append(compact(len(s)), []byte(s)...)
}

func boolByte(b bool) []byte {
	if b {
		return []byte{0x01}
	}
	return []byte{0x00}
}

func concatAll(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func typePrimitive(tag byte) []byte {
	return concatAll([]byte{5}, []byte{tag})
}

func typeSequence(elem int) []byte {
	return concatAll([]byte{2}, compact(elem))
}

func typeComposite(fields ...[]byte) []byte {
	return concatAll([]byte{0}, compact(len(fields)), concatAll(fields...))
}

func fieldUnnamed(ty int) []byte {
	return concatAll(boolByte(false), compact(ty), boolByte(false))
}

func variant(name string, index int, fields ...[]byte) []byte {
	return concatAll(str(name), compact(len(fields)), concatAll(fields...), []byte{byte(index)}, compact(0))
}

func typeVariant(variants ...[]byte) []byte {
	return concatAll([]byte{1}, compact(len(variants)), concatAll(variants...))
}

// registryType wraps a typeDef (as produced by typePrimitive/typeVariant/
// typeSequence) into a full portable-registry Type entry: path, skipped
// type_params, the type_def itself, and empty docs.
func registryType(typeDef []byte) []byte {
	return concatAll(compact(0), compact(0), typeDef, compact(0))
}

func storageMapEntry(name string, hasherTags []byte, keyTy, valTy int) []byte {
	hashers := make([]byte, 0, len(hasherTags))
	for _, h := range hasherTags {
		hashers = append(hashers, h)
	}
	return concatAll(
		str(name),
		[]byte{0x01}, // modifier: Default
		[]byte{0x01}, // kind tag = Map
		compact(len(hasherTags)),
		hashers,
		compact(keyTy),
		compact(valTy),
		compact(0), // default value length
		compact(0), // docs
	)
}

func storagePlainEntry(name string, valTy int) []byte {
	return concatAll(
		str(name),
		[]byte{0x01}, // modifier: Default
		[]byte{0x00}, // kind tag = Plain
		compact(valTy),
		compact(0), // default value length
		compact(0), // docs
	)
}

func storageSection(entries ...[]byte) []byte {
	return concatAll(boolByte(true), str(""), compact(len(entries)), concatAll(entries...))
}

func noStorage() []byte { return boolByte(false) }

func variantRef(typeID int) []byte {
	return concatAll(boolByte(true), compact(typeID))
}

func noVariantRef() []byte { return boolByte(false) }

func constantEntry(name string, ty int, value []byte) []byte {
	return concatAll(str(name), compact(ty), compact(len(value)), value, compact(0))
}

func constantsSection(entries ...[]byte) []byte {
	return concatAll(compact(len(entries)), concatAll(entries...))
}

func palletSection(name string, index int, storage, calls, events []byte, constants []byte, errs []byte) []byte {
	return concatAll(str(name), storage, calls, events, constants, errs, []byte{byte(index)})
}

// buildMetadataBlob assembles a V14 blob exposing: System.Account
// (single-key map), Staking.Ledger, Vesting.Vesting, Proxy.Proxies (all
// single-key maps), Assets.Account (a two-key map), Broker.Leases and
// Broker.Reservations (plain sequences), and a Test pallet carrying one
// call, one event, one error, and one constant, so every handler in
// this package has something real to decode against.
func buildMetadataBlob() []byte {
	types := []struct {
		id      int
		typeDef []byte
	}{
		{0, typePrimitive(5)}, // u32
		{1, typePrimitive(4)}, // u16
		{2, typeVariant(variant("transfer", 0, fieldUnnamed(0)))},
		{3, typeVariant(variant("Transferred", 0, fieldUnnamed(0)))},
		{4, typeVariant(variant("BadThing", 0))},
		{5, typeSequence(0)}, // Vec<u32>
		{6, typeComposite()}, // EventRecord placeholder, never decoded since test events are always empty
		{7, typeSequence(6)}, // Vec<EventRecord>
	}
	registry := concatAll(compact(len(types)), func() []byte {
		var out []byte
		for _, ty := range types {
			out = append(out, compact(ty.id)...)
			out = append(out, registryType(ty.typeDef)...)
		}
		return out
	}())

	ss58Value := []byte{42, 0} // u16 LE
	maxFooValue := []byte{100, 0, 0, 0}

	pallets := []byte{}
	pallets = append(pallets, palletSection("System", 0,
		storageSection(storageMapEntry("Account", []byte{2}, 0, 0), storagePlainEntry("Events", 7)),
		noVariantRef(), noVariantRef(),
		constantsSection(constantEntry("SS58Prefix", 1, ss58Value)),
		noVariantRef(),
	)...)
	pallets = append(pallets, palletSection("Staking", 1,
		storageSection(storageMapEntry("Ledger", []byte{2}, 0, 0)),
		noVariantRef(), noVariantRef(), constantsSection(), noVariantRef(),
	)...)
	pallets = append(pallets, palletSection("Vesting", 2,
		storageSection(storageMapEntry("Vesting", []byte{2}, 0, 0)),
		noVariantRef(), noVariantRef(), constantsSection(), noVariantRef(),
	)...)
	pallets = append(pallets, palletSection("Proxy", 3,
		storageSection(storageMapEntry("Proxies", []byte{2}, 0, 0)),
		noVariantRef(), noVariantRef(), constantsSection(), noVariantRef(),
	)...)
	pallets = append(pallets, palletSection("Assets", 4,
		storageSection(storageMapEntry("Account", []byte{2, 2}, 0, 0)),
		noVariantRef(), noVariantRef(), constantsSection(), noVariantRef(),
	)...)
	pallets = append(pallets, palletSection("Broker", 5,
		storageSection(storagePlainEntry("Leases", 5), storagePlainEntry("Reservations", 5)),
		noVariantRef(), noVariantRef(), constantsSection(), noVariantRef(),
	)...)
	pallets = append(pallets, palletSection("Test", 6,
		noStorage(),
		variantRef(2), variantRef(3),
		constantsSection(constantEntry("MaxFoo", 0, maxFooValue)),
		variantRef(4),
	)...)

	palletList := concatAll(compact(7), pallets)

	body := concatAll(registry, palletList)
	return concatAll([]byte{'m', 'e', 't', 'a', 14}, body)
}

// fakeGatewayNode answers the fixed set of RPC methods the server
// package's handlers need: state_getRuntimeVersion/state_getMetadata
// (to build the metadata.Cache), chain_getHeader/chain_getBlockHash
// (block resolution), state_getStorage (storage reads), and whatever
// extra state the test installs via the extra callback.
type fakeGatewayNode struct {
	t             *testing.T
	blockHash     string
	blockHeight   string
	metadataHex   string
	storageValues map[string]any // hex-encoded storage key -> result
	extra         func(method string, params []any) (any, bool)
}

func (f *fakeGatewayNode) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64  `json:"id"`
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Fatal(err)
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if f.extra != nil {
			if v, ok := f.extra(req.Method, req.Params); ok {
				resp["result"] = v
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
				return
			}
		}
		switch req.Method {
		case "state_getRuntimeVersion":
			resp["result"] = map[string]any{"specName": "test-spec", "specVersion": 1, "implName": "test-impl", "implVersion": 1, "transactionVersion": 1}
		case "state_getMetadata":
			resp["result"] = f.metadataHex
		case "chain_getFinalizedHead":
			resp["result"] = f.blockHash
		case "chain_getHeader":
			resp["result"] = map[string]any{
				"parentHash":     f.blockHash,
				"number":         f.blockHeight,
				"stateRoot":      f.blockHash,
				"extrinsicsRoot": f.blockHash,
				"digest":         map[string]any{"logs": []string{}},
			}
		case "chain_getBlockHash":
			resp["result"] = f.blockHash
		case "state_getStorage":
			key, _ := req.Params[0].(string)
			if v, ok := f.storageValues[key]; ok {
				resp["result"] = v
			} else {
				resp["result"] = nil
			}
		case "state_getKeysPaged":
			resp["result"] = []string{}
		default:
			f.t.Fatalf("unexpected method %s", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func hexEncode(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexdigits[c>>4]
		out[i*2+1] = hexdigits[c&0xf]
	}
	return string(out)
}

var testBlockHash = "0x" + hexEncode(append([]byte{0x11}, make([]byte, 31)...))

// newTestDeps spins up a fake node pre-loaded with the shared test
// metadata blob and wraps it as the local chain in a *Deps, ready to
// mount with NewRouter.
func newTestDeps(t *testing.T, storageValues map[string]any, extra func(method string, params []any) (any, bool)) (*Deps, *httptest.Server) {
	t.Helper()
	node := &fakeGatewayNode{
		t:             t,
		blockHash:     testBlockHash,
		blockHeight:   "0x0000002a",
		metadataHex:   "0x" + hexEncode(buildMetadataBlob()),
		storageValues: storageValues,
		extra:         extra,
	}
	srv := node.server()

	client := rpc.New(srv.URL)
	cache, err := metadata.NewCache(metadata.ClientFetcher{Client: client}, 4)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	chains := chainset.New(chainset.Chain{Client: client, Metadata: cache}, nil, 1000)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Deps{Chains: chains, Log: logrus.NewEntry(log)}, srv
}
