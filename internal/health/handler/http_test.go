package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct{ err error }

func (p *fakePinger) PingContext(ctx context.Context) error { return p.err }

type fakeChecker struct{ err error }

func (c *fakeChecker) HealthCheck(ctx context.Context) error { return c.err }

func get(t *testing.T, s *Server) (int, healthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return rec.Code, resp
}

func TestHealthz_AllHealthy(t *testing.T) {
	code, resp := get(t, NewServer(&fakePinger{}, &fakeChecker{}))
	if code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if resp.Status != "ok" || resp.Checks["database"] != "ok" || resp.Checks["policy"] != "ok" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHealthz_NilDependenciesSkipped(t *testing.T) {
	code, resp := get(t, NewServer(nil, nil))
	if code != http.StatusOK {
		t.Errorf("status = %d, want 200; memory-backed runs are healthy", code)
	}
	if resp.Checks["database"] != "skipped" || resp.Checks["policy"] != "skipped" {
		t.Errorf("checks = %+v", resp.Checks)
	}
}

func TestHealthz_DatabaseDown(t *testing.T) {
	code, resp := get(t, NewServer(&fakePinger{err: errors.New("connection refused")}, &fakeChecker{}))
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
	if resp.Status != "degraded" {
		t.Errorf("status field = %q", resp.Status)
	}
	if resp.Checks["database"] != "connection refused" {
		t.Errorf("database check = %q", resp.Checks["database"])
	}
}

func TestHealthz_PolicyBroken(t *testing.T) {
	code, resp := get(t, NewServer(&fakePinger{}, &fakeChecker{err: errors.New("rego compile failed")}))
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
	if resp.Checks["policy"] != "rego compile failed" {
		t.Errorf("policy check = %q", resp.Checks["policy"])
	}
}
