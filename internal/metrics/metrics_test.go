package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestObserveExposedOnHandler(t *testing.T) {
	m := New()
	m.Observe("/v1/blocks/{id}", 200, 15*time.Millisecond)
	m.Observe("/v1/blocks/{id}", 500, 5*time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `gateway_http_requests_total{route="/v1/blocks/{id}",status="200"} 1`) {
		t.Fatalf("expected a 200 sample in exposition output, got:\n%s", body)
	}
	if !strings.Contains(body, `gateway_http_requests_total{route="/v1/blocks/{id}",status="500"} 1`) {
		t.Fatalf("expected a 500 sample in exposition output, got:\n%s", body)
	}
	if !strings.Contains(body, "gateway_http_request_duration_seconds") {
		t.Fatalf("expected latency histogram in exposition output, got:\n%s", body)
	}
}

func TestNewRegistriesAreIndependent(t *testing.T) {
	a := New()
	b := New()
	a.Observe("/v1/node/version", 200, time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)

	if strings.Contains(rec.Body.String(), "node/version") {
		t.Fatal("expected separate Metrics instances to have independent registries")
	}
}
