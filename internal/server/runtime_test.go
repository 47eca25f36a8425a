package server

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestRuntimeSpec(t *testing.T) {
	deps, srv := newTestDeps(t, map[string]any{}, nil)
	defer srv.Close()

	router := NewRouter(deps)
	req := httptest.NewRequest("GET", "/v1/runtime/spec", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["specName"] != "test-spec" {
		t.Fatalf("specName = %v, want test-spec", got["specName"])
	}
}

func TestRuntimeMetadata(t *testing.T) {
	deps, srv := newTestDeps(t, map[string]any{}, nil)
	defer srv.Close()

	router := NewRouter(deps)
	req := httptest.NewRequest("GET", "/v1/runtime/metadata", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["metadata"] == "" {
		t.Fatal("expected a non-empty metadata hex blob")
	}
}

func TestRuntimeCode(t *testing.T) {
	codeKeyHex := "0x" + hexEncode([]byte(":code"))
	storageValues := map[string]any{
		codeKeyHex: "0x" + hexEncode([]byte{0xde, 0xad, 0xbe, 0xef}),
	}
	deps, srv := newTestDeps(t, storageValues, nil)
	defer srv.Close()

	router := NewRouter(deps)
	req := httptest.NewRequest("GET", "/v1/runtime/code", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["code"] != "0xdeadbeef" {
		t.Fatalf("code = %v, want 0xdeadbeef", got["code"])
	}
}

func TestRuntimeCodeMissing(t *testing.T) {
	deps, srv := newTestDeps(t, map[string]any{}, nil)
	defer srv.Close()

	router := NewRouter(deps)
	req := httptest.NewRequest("GET", "/v1/runtime/code", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["code"] != nil {
		t.Fatalf("code = %v, want nil", got["code"])
	}
}
