package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/synnergy-network/substrate-gateway/internal/blockid"
	"github.com/synnergy-network/substrate-gateway/internal/rpc"
)

// fakeNode answers a fixed set of chain_* methods for one block, keyed
// by method name, so resolver behavior can be exercised without a real
// Substrate node.
func fakeNode(t *testing.T, hashHex string, heightHex string, known bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64  `json:"id"`
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "chain_getFinalizedHead":
			resp["result"] = hashHex
		case "chain_getHeader":
			if !known {
				resp["result"] = nil
			} else {
				resp["result"] = map[string]any{
					"parentHash":     hashHex,
					"number":         heightHex,
					"stateRoot":      hashHex,
					"extrinsicsRoot": hashHex,
					"digest":         map[string]any{"logs": []string{}},
				}
			}
		case "chain_getBlockHash":
			if !known {
				resp["result"] = nil
			} else {
				resp["result"] = hashHex
			}
		default:
			t.Fatalf("unexpected method %s", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

const testHash = "0x" + "1122334455667788112233445566778811223344556677881122334455667788"

func TestResolveHead(t *testing.T) {
	srv := fakeNode(t, testHash, "0x0000002a", true)
	defer srv.Close()
	client := rpc.New(srv.URL)

	rb, err := Resolve(context.Background(), client, blockid.Head)
	if err != nil {
		t.Fatal(err)
	}
	if rb.Height != 42 {
		t.Fatalf("expected height 42, got %d", rb.Height)
	}
}

func TestResolveHeightNotFound(t *testing.T) {
	srv := fakeNode(t, testHash, "0x00000001", false)
	defer srv.Close()
	client := rpc.New(srv.URL)

	_, err := Resolve(context.Background(), client, blockid.Height(999))
	if err == nil {
		t.Fatal("expected BlockNotFound error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestResolveHash(t *testing.T) {
	srv := fakeNode(t, testHash, "0x00000005", true)
	defer srv.Close()
	client := rpc.New(srv.URL)

	var h [32]byte
	id := blockid.Hash(h)
	rb, err := Resolve(context.Background(), client, id)
	if err != nil {
		t.Fatal(err)
	}
	if rb.Height != 5 {
		t.Fatalf("expected height 5, got %d", rb.Height)
	}
}
