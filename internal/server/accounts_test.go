package server

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/synnergy-network/substrate-gateway/internal/ss58"
	"github.com/synnergy-network/substrate-gateway/internal/storagekeys"
)

func testAccount(b byte) ([32]byte, string) {
	var acc [32]byte
	for i := range acc {
		acc[i] = b
	}
	return acc, ss58.Encode(acc, 42)
}

func u32LE(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestAccountBalanceInfoFound(t *testing.T) {
	acc, addr := testAccount(0x11)
	key := storagekeys.BuildKey("System", "Account", storagekeys.MapKeyPart{Hasher: storagekeys.Blake2_128Concat, Raw: acc[:]})
	storageValues := map[string]any{
		"0x" + hexEncode(key): "0x" + hexEncode(u32LE(777)),
	}
	deps, srv := newTestDeps(t, storageValues, nil)
	defer srv.Close()

	router := NewRouter(deps)
	req := httptest.NewRequest("GET", "/v1/accounts/"+addr+"/balance-info", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got float64
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("expected a bare number, got %s: %v", rec.Body.String(), err)
	}
	if got != 777 {
		t.Fatalf("value = %v, want 777", got)
	}
}

func TestAccountBalanceInfoNotFound(t *testing.T) {
	_, addr := testAccount(0x22)
	deps, srv := newTestDeps(t, map[string]any{}, nil)
	defer srv.Close()

	router := NewRouter(deps)
	req := httptest.NewRequest("GET", "/v1/accounts/"+addr+"/balance-info", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["free"] != "0" || got["reserved"] != "0" || got["frozen"] != "0" {
		t.Fatalf("expected zeroed default balance info, got %v", got)
	}
}

func TestAccountBalanceInfoBadAddress(t *testing.T) {
	deps, srv := newTestDeps(t, map[string]any{}, nil)
	defer srv.Close()

	router := NewRouter(deps)
	req := httptest.NewRequest("GET", "/v1/accounts/not-an-address/balance-info", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAccountAssetBalances(t *testing.T) {
	acc, addr := testAccount(0x33)
	assetID := uint32(7)
	keyParts := []storagekeys.MapKeyPart{
		{Hasher: storagekeys.Blake2_128Concat, Raw: u32LE(assetID)},
		{Hasher: storagekeys.Blake2_128Concat, Raw: acc[:]},
	}
	key := storagekeys.BuildKey("Assets", "Account", keyParts...)
	keyHex := "0x" + hexEncode(key)

	storageValues := map[string]any{
		keyHex: "0x" + hexEncode(u32LE(500)),
	}
	extra := func(method string, params []any) (any, bool) {
		if method == "state_getKeysPaged" {
			return []string{keyHex}, true
		}
		return nil, false
	}
	deps, srv := newTestDeps(t, storageValues, extra)
	defer srv.Close()

	router := NewRouter(deps)
	req := httptest.NewRequest("GET", "/v1/accounts/"+addr+"/asset-balances", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Assets []map[string]any `json:"assets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Assets) != 1 {
		t.Fatalf("expected 1 asset balance, got %d: %v", len(got.Assets), got.Assets)
	}
	if int(got.Assets[0]["assetId"].(float64)) != 7 {
		t.Fatalf("assetId = %v, want 7", got.Assets[0]["assetId"])
	}
	if int(got.Assets[0]["balance"].(float64)) != 500 {
		t.Fatalf("balance = %v, want 500", got.Assets[0]["balance"])
	}
}

func TestAccountAssetBalancesSkipsOtherAccounts(t *testing.T) {
	_, addr := testAccount(0x44)
	otherAcc, _ := testAccount(0x55)
	key := storagekeys.BuildKey("Assets", "Account",
		storagekeys.MapKeyPart{Hasher: storagekeys.Blake2_128Concat, Raw: u32LE(1)},
		storagekeys.MapKeyPart{Hasher: storagekeys.Blake2_128Concat, Raw: otherAcc[:]},
	)
	keyHex := "0x" + hexEncode(key)
	extra := func(method string, params []any) (any, bool) {
		if method == "state_getKeysPaged" {
			return []string{keyHex}, true
		}
		return nil, false
	}
	deps, srv := newTestDeps(t, map[string]any{}, extra)
	defer srv.Close()

	router := NewRouter(deps)
	req := httptest.NewRequest("GET", "/v1/accounts/"+addr+"/asset-balances", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Assets []map[string]any `json:"assets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Assets) != 0 {
		t.Fatalf("expected no asset balances for an unrelated account's key, got %d", len(got.Assets))
	}
}
