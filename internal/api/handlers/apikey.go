package handlers

import (
	"net/http"

	"github.com/oshaani/workspace-employee/internal/api/middleware"
)

// CreateAPIKeyHandler mints a new API key for the caller. The raw key is
// shown exactly once; only its hash is stored.
func CreateAPIKeyHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		raw, err := d.APIKeys.Generate(userID)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{
			"api_key": raw,
			"note":    "Store this key now, it cannot be retrieved again.",
		})
	}
}

// RevokeAPIKeysHandler revokes every API key the caller has issued.
func RevokeAPIKeysHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())

		revoked, err := d.APIKeys.Revoke(userID)
		if err != nil {
			d.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"revoked": revoked})
	}
}
