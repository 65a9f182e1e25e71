package handlers

import (
	"net/http"
	"strings"

	"github.com/oshaani/workspace-employee/internal/api/middleware"
	"github.com/oshaani/workspace-employee/internal/settings"
)

// WorkflowTogglesHandler returns the user's effective toggle set.
func WorkflowTogglesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"workflow_toggles": d.Settings.WorkflowToggles(r.Context(), userID),
		})
	}
}

// UpdateWorkflowTogglesHandler applies a partial toggle update. Unknown keys
// are ignored; omitted keys keep their value.
func UpdateWorkflowTogglesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		var patch settings.TogglePatch
		if !decodeBody(w, r, &patch) {
			return
		}
		if err := d.Settings.ApplyTogglePatch(r.Context(), userID, patch); err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"workflow_toggles": d.Settings.WorkflowToggles(r.Context(), userID),
		})
	}
}

// AutomationSettingHandler reports whether scheduled automation runs for
// this user.
func AutomationSettingHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"automation_enabled": d.Settings.AutomationEnabled(r.Context(), userID),
		})
	}
}

// UpdateAutomationSettingHandler flips the user's automation flag.
func UpdateAutomationSettingHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		var body struct {
			Enabled *bool `json:"enabled"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if body.Enabled == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "enabled is required")
			return
		}
		if err := d.Settings.SetAutomationEnabled(r.Context(), userID, *body.Enabled); err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"automation_enabled": *body.Enabled})
	}
}

// AgentKeyHandler reports whether the user has an agent key override set.
// The key itself is never echoed back.
func AgentKeyHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		key := d.Settings.AgentAPIKey(r.Context(), userID)
		writeJSON(w, http.StatusOK, map[string]any{"has_agent_key": key != ""})
	}
}

// UpdateAgentKeyHandler stores or clears the user's agent key override.
func UpdateAgentKeyHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		var body struct {
			AgentAPIKey string `json:"oshaani_api_key"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if err := d.Settings.SetAgentAPIKey(r.Context(), userID, body.AgentAPIKey); err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"has_agent_key": strings.TrimSpace(body.AgentAPIKey) != "",
		})
	}
}
