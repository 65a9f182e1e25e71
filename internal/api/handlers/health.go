package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/oshaani/workspace-employee/internal/version"
)

// AgentPinger checks agent connectivity. Implemented by the agent client.
type AgentPinger interface {
	Ping(ctx context.Context) (string, error)
}

// HealthHandler reports liveness and build info.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"version": version.Version,
			"commit":  version.Commit,
		})
	}
}

// AgentHealthHandler verifies the configured agent endpoint answers with the
// default key.
func AgentHealthHandler(pinger AgentPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		if _, err := pinger.Ping(ctx); err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"status": "unreachable",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}
