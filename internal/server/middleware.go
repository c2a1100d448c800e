package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"focusflow/backend/internal/telemetry"
	"focusflow/backend/internal/telemetry/producer"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// RequestTelemetry returns middleware that emits a telemetry event after each
// request. Best-effort: failures are logged and do not fail the request. If p
// is nil, the middleware no-ops. skipPaths is the set of paths to not emit
// (e.g. /healthz).
func RequestTelemetry(p producer.Producer, skipPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			if p == nil || skipPaths[r.URL.Path] {
				return
			}
			meta := httpRequestMetadata{
				Method:     r.Method,
				Path:       r.URL.Path,
				StatusCode: sw.status,
				DurationMs: time.Since(start).Milliseconds(),
				ClientIP:   clientIP(r),
			}
			metaJSON, _ := json.Marshal(meta)
			telemetry.EmitAsync(p, r.Context(), &telemetry.Event{
				EventType: "http_request",
				Source:    "http_middleware",
				Metadata:  metaJSON,
				CreatedAt: time.Now().UTC(),
			})
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// clientIP resolves the originating address, preferring the first
// X-Forwarded-For hop set by the ingress.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
