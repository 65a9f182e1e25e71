package handlers

import (
	"net/http"

	"github.com/oshaani/workspace-employee/internal/api/middleware"
)

// MeHandler returns the caller's identity and effective settings.
func MeHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		_, authenticated, err := d.Creds.Load(r.Context(), userID)
		if err != nil {
			d.fail(w, r, err)
			return
		}

		resp := map[string]any{
			"user_id":            userID,
			"authenticated":      authenticated,
			"workflow_toggles":   d.Settings.WorkflowToggles(r.Context(), userID),
			"automation_enabled": d.Settings.AutomationEnabled(r.Context(), userID),
		}
		if authenticated {
			if ws, err := d.workspaceFor(r, userID); err == nil {
				if profile, err := ws.Identity.Profile(r.Context()); err == nil {
					resp["email"] = profile.Email
					resp["name"] = profile.Name
				}
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// DriveDataHandler exposes the user's remote settings document with the
// credential material redacted. Tokens never leave the server.
func DriveDataHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		cred, err := d.credentialFor(r, userID)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		data, err := d.Settings.RemoteDocument(r.Context(), userID, cred)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		if data == nil {
			writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "exists": false})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"user_id":            userID,
			"exists":             true,
			"has_credentials":    data.Credentials != nil,
			"has_agent_key":      data.AgentAPIKey != "",
			"workflow_toggles":   data.WorkflowToggles,
			"automation_enabled": data.AutomationEnabled,
		})
	}
}
