// Package handler serves readiness for Kubernetes, load balancers, and CI.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout bounds each individual readiness probe.
const checkTimeout = 2 * time.Second

// Pinger reports storage reachability (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker reports that the break policy engine can compile and evaluate
// its policy (e.g. the OPA evaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server answers GET /healthz. Either dependency may be nil, in which case
// that check reports "skipped"; a nil DB is normal for memory-backed dev runs.
type Server struct {
	db     Pinger
	policy PolicyChecker
}

// NewServer returns a health Server with the given probes.
func NewServer(db Pinger, policy PolicyChecker) *Server {
	return &Server{db: db, policy: policy}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: map[string]string{}}

	resp.Checks["database"] = s.runCheck(r.Context(), s.pingDB)
	resp.Checks["policy"] = s.runCheck(r.Context(), s.checkPolicy)

	code := http.StatusOK
	for _, v := range resp.Checks {
		if v != "ok" && v != "skipped" {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// runCheck runs one probe with its own timeout. A nil result from the probe
// selector means the dependency is not wired and the check is skipped.
func (s *Server) runCheck(ctx context.Context, probe func(ctx context.Context) (error, bool)) string {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	err, wired := probe(ctx)
	switch {
	case !wired:
		return "skipped"
	case err != nil:
		return err.Error()
	default:
		return "ok"
	}
}

func (s *Server) pingDB(ctx context.Context) (error, bool) {
	if s.db == nil {
		return nil, false
	}
	return s.db.PingContext(ctx), true
}

func (s *Server) checkPolicy(ctx context.Context) (error, bool) {
	if s.policy == nil {
		return nil, false
	}
	return s.policy.HealthCheck(ctx), true
}
