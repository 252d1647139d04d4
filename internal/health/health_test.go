package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func pass(context.Context) error { return nil }

func failWith(msg string) Checker {
	return func(context.Context) error { return errors.New(msg) }
}

func decodeReadiness(t *testing.T, rec *httptest.ResponseRecorder) readiness {
	t.Helper()
	var body readiness
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return body
}

func TestHealthz_AlwaysReturns200(t *testing.T) {
	// Liveness ignores the probes entirely; a failing store must not make
	// the orchestrator restart the process.
	h := New(failWith("catalog gone"), failWith("db gone"))

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
}

func TestReadyz_BothProbesPass(t *testing.T) {
	h := New(pass, pass)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeReadiness(t, rec)
	if body.Status != "ok" || body.Catalog != "ok" || body.Database != "ok" {
		t.Errorf("body = %+v, want all ok", body)
	}
}

func TestReadyz_DatabaseDownNamesTheProbe(t *testing.T) {
	h := New(pass, failWith("connection refused"))

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	body := decodeReadiness(t, rec)
	if body.Status != "fail" {
		t.Errorf("status = %q, want %q", body.Status, "fail")
	}
	if body.Database != "fail: connection refused" {
		t.Errorf("database = %q, want the failure reason", body.Database)
	}
	if body.Catalog != "ok" {
		t.Errorf("catalog = %q, want %q", body.Catalog, "ok")
	}
}

func TestReadyz_BothProbesFail(t *testing.T) {
	h := New(failWith("catalog is empty"), failWith("timeout"))

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	body := decodeReadiness(t, rec)
	if body.Catalog != "fail: catalog is empty" {
		t.Errorf("catalog = %q", body.Catalog)
	}
	if body.Database != "fail: timeout" {
		t.Errorf("database = %q", body.Database)
	}
}

func TestReadyz_NilProbesPass(t *testing.T) {
	// Database-less deployments register no store probe and stay ready.
	h := New(nil, nil)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := decodeReadiness(t, rec); body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
}

func TestReadyz_RespectsContextCancellation(t *testing.T) {
	h := New(pass, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if body := decodeReadiness(t, rec); !strings.HasPrefix(body.Database, "fail:") {
		t.Errorf("database = %q, want a failure", body.Database)
	}
}

func TestRegister_RoutesWork(t *testing.T) {
	mux := http.NewServeMux()
	New(pass, pass).Register(mux)

	for _, path := range []string{"/healthz", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
		})
	}
}
