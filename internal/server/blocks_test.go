package server

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/synnergy-network/substrate-gateway/internal/storagekeys"
)

func TestBlockHead(t *testing.T) {
	eventsKey := storagekeys.BuildKey("System", "Events")
	storageValues := map[string]any{
		"0x" + hexEncode(eventsKey): "0x" + hexEncode([]byte{0x00}), // empty Vec<EventRecord>
	}

	extrinsicBody := []byte{0x04, 0x06, 0x00, 0x07, 0x00, 0x00, 0x00} // version=4 unsigned, pallet=6 (Test), call=0 (transfer), arg u32=7
	extrinsicRaw := append([]byte{byte(len(extrinsicBody) << 2)}, extrinsicBody...)

	extra := func(method string, params []any) (any, bool) {
		switch method {
		case "chain_getBlock":
			return map[string]any{
				"block": map[string]any{
					"header": map[string]any{
						"parentHash":     testBlockHash,
						"number":         "0x2a",
						"stateRoot":      testBlockHash,
						"extrinsicsRoot": testBlockHash,
						"digest":         map[string]any{"logs": []string{}},
					},
					"extrinsics": []string{"0x" + hexEncode(extrinsicRaw)},
				},
			}, true
		case "payment_queryInfo":
			return map[string]any{"weight": "100", "class": "normal", "partialFee": "1"}, true
		}
		return nil, false
	}
	deps, srv := newTestDeps(t, storageValues, extra)
	defer srv.Close()

	router := NewRouter(deps)
	req := httptest.NewRequest("GET", "/v1/blocks/head", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Height     uint64 `json:"height"`
		Extrinsics []struct {
			Pallet string         `json:"pallet"`
			Call   string         `json:"call"`
			Info   map[string]any `json:"info"`
		} `json:"extrinsics"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Height != 42 {
		t.Fatalf("height = %d, want 42", got.Height)
	}
	if len(got.Extrinsics) != 1 || got.Extrinsics[0].Pallet != "Test" || got.Extrinsics[0].Call != "transfer" {
		t.Fatalf("extrinsics = %+v", got.Extrinsics)
	}
	weight, ok := got.Extrinsics[0].Info["weight"].(map[string]any)
	if !ok {
		t.Fatalf("expected weight to be normalized into an object, got %v", got.Extrinsics[0].Info["weight"])
	}
	if weight["proofSize"] != "0" {
		t.Fatalf("proofSize = %v, want \"0\" for a legacy bare-scalar weight", weight["proofSize"])
	}
}

func TestBlockParaInclusionsLocalMountIsEmpty(t *testing.T) {
	deps, srv := newTestDeps(t, map[string]any{}, nil)
	defer srv.Close()

	router := NewRouter(deps)
	req := httptest.NewRequest("GET", "/v1/blocks/head/para-inclusions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got struct {
		IncludedBlocks []any `json:"includedBlocks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.IncludedBlocks) != 0 {
		t.Fatalf("expected no included blocks on the local mount, got %v", got.IncludedBlocks)
	}
}
