// Package handlers implements the authenticated JSON API. Each handler is a
// constructor taking its dependencies and returning an http.HandlerFunc.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/oshaani/workspace-employee/internal/auth/apikey"
	"github.com/oshaani/workspace-employee/internal/automation"
	"github.com/oshaani/workspace-employee/internal/config"
	"github.com/oshaani/workspace-employee/internal/credentials"
	"github.com/oshaani/workspace-employee/internal/logging"
	"github.com/oshaani/workspace-employee/internal/settings"
	"github.com/oshaani/workspace-employee/internal/workflow"
	"github.com/oshaani/workspace-employee/internal/workspace"
	googleapi "github.com/oshaani/workspace-employee/internal/workspace/google"
)

// ErrNotAuthenticated marks requests whose user has no usable Google
// credential on file.
var ErrNotAuthenticated = errors.New("no stored Google credentials, log in at /auth/google/login")

// Deps bundles what the API handlers need.
type Deps struct {
	Cfg       *config.Config
	Creds     *credentials.Store
	Settings  *settings.Store
	APIKeys   *apikey.Store
	Factory   workspace.Factory
	Scheduler *automation.Scheduler
	// NewAgent builds an agent client for a key; an empty key means the
	// configured default.
	NewAgent func(apiKey string) workflow.Agent
}

// credentialFor loads the user's refreshed credential or fails with
// ErrNotAuthenticated.
func (d *Deps) credentialFor(r *http.Request, userID string) (credentials.Credential, error) {
	cred, ok, err := d.Creds.Load(r.Context(), userID)
	if err != nil {
		return credentials.Credential{}, err
	}
	if !ok {
		return credentials.Credential{}, ErrNotAuthenticated
	}
	return cred, nil
}

// workspaceFor builds the user's Workspace service bundle.
func (d *Deps) workspaceFor(r *http.Request, userID string) (*workspace.Workspace, error) {
	cred, err := d.credentialFor(r, userID)
	if err != nil {
		return nil, err
	}
	return d.Factory.ForCredential(r.Context(), cred)
}

// orchestratorFor builds the user's workflow orchestrator, honoring the
// user's agent key override.
func (d *Deps) orchestratorFor(r *http.Request, userID string) (*workflow.Orchestrator, error) {
	ws, err := d.workspaceFor(r, userID)
	if err != nil {
		return nil, err
	}
	agentKey := d.Settings.AgentAPIKey(r.Context(), userID)
	return workflow.NewOrchestrator(userID, ws, d.NewAgent(agentKey)), nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("⚠️ Response encode failed: %v", err)
	}
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	var body errorBody
	body.Error.Message = message
	body.Error.Type = errType
	writeJSON(w, status, body)
}

// fail maps an error to a response. Authentication problems become 401,
// upstream Google failures keep their status, everything else is a 500. In
// release mode internal detail is replaced with a generic message.
func (d *Deps) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, settings.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "authentication_error", ErrNotAuthenticated.Error())
	case errors.Is(err, settings.ErrRemoteUnavailable):
		writeError(w, http.StatusBadGateway, "remote_store_error", "Settings storage is unreachable, try again later")
	default:
		if status := googleapi.IsUpstreamStatus(err); status != 0 {
			writeError(w, http.StatusBadGateway, "upstream_error", upstreamMessage(status, err, d.Cfg.ReleaseMode))
			return
		}
		log.Printf("⚠️ [%s] Request failed: %v", logging.GetRequestID(r.Context()), err)
		if d.Cfg.ReleaseMode {
			writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func upstreamMessage(status int, err error, release bool) string {
	if release {
		switch status {
		case http.StatusForbidden:
			return "Google API access denied: check that the required APIs are enabled and scopes granted"
		case http.StatusUnauthorized:
			return "Google rejected the stored credentials, re-authenticate at /auth/google/login"
		default:
			return "Google API request failed"
		}
	}
	return err.Error()
}

// decodeBody decodes a JSON request body into dst. Unknown fields are
// ignored.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}
