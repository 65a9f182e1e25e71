package google

import (
	"fmt"
	"log"
	"net/http"

	"github.com/oshaani/workspace-employee/internal/auth/session"
	"github.com/oshaani/workspace-employee/internal/config"
	"github.com/oshaani/workspace-employee/internal/credentials"
	googleapi "github.com/oshaani/workspace-employee/internal/workspace/google"
)

// CallbackHandler finishes the consent flow: verifies state, exchanges the
// code, resolves the account email, persists the credential and issues the
// browser session. The user id is always the Google account email.
func CallbackHandler(cfg *config.Config, lifecycle *credentials.Lifecycle, store *credentials.Store, sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !verifyStateToken(r) {
			http.Error(w, "Invalid state token", http.StatusBadRequest)
			return
		}
		if errParam := r.URL.Query().Get("error"); errParam != "" {
			http.Error(w, "Google login was denied: "+errParam, http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			return
		}

		cred, err := lifecycle.Exchange(r.Context(), OAuthConfig(cfg), code)
		if err != nil {
			log.Printf("⚠️ OAuth code exchange failed: %v", err)
			http.Error(w, "Token exchange failed", http.StatusBadGateway)
			return
		}

		profile, err := googleapi.FetchProfile(r.Context(), cred.AccessToken)
		if err != nil || profile.Email == "" {
			log.Printf("⚠️ Could not resolve account email after login: %v", err)
			http.Error(w, "Failed to resolve Google account", http.StatusBadGateway)
			return
		}

		sync, err := store.Save(r.Context(), profile.Email, cred)
		if err != nil {
			log.Printf("⚠️ Could not persist credential for %s: %v", profile.Email, err)
			http.Error(w, "Failed to store credentials", http.StatusInternalServerError)
			return
		}
		if sync.Attempted && sync.Err != nil {
			log.Printf("⚠️ Credential saved locally for %s but remote sync failed: %v", profile.Email, sync.Err)
		}
		log.Printf("🎫 Login complete for %s", profile.Email)

		sessions.Issue(w, profile.Email)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta http-equiv="refresh" content="2;url=/me">
	<title>Login Successful</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; }
		.success { color: #16a34a; }
	</style>
</head>
<body>
	<h1 class="success">✅ Login Successful</h1>
	<p><strong>Account:</strong> %s</p>
	<p>Redirecting to your profile...</p>
</body>
</html>`, profile.Email)
	}
}

// LogoutHandler clears the session cookie and redirects home.
func LogoutHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.Clear(w)
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
	}
}

// LogoutAPIHandler is the programmatic variant: clears the cookie and
// answers JSON instead of redirecting.
func LogoutAPIHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.Clear(w)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"logged_out": true}`))
	}
}
