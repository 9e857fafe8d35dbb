// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// Check probes one dependency. A nil error means ready.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Readiness runs every check with timeout and answers 503 when one fails.
func Readiness(timeout time.Duration, checks ...Check) http.HandlerFunc {
	if timeout <= 0 {
		timeout = time.Second
	}
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks,omitempty"`
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		out := resp{Status: "ready"}
		for _, c := range checks {
			if out.Checks == nil {
				out.Checks = make(map[string]string, len(checks))
			}
			if err := c.Probe(ctx); err != nil {
				out.Status = "not_ready"
				out.Checks[c.Name] = err.Error()
				continue
			}
			out.Checks[c.Name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		if out.Status != "ready" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
