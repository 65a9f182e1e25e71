// Package google implements the browser-facing Google OAuth consent flow:
// login redirect, callback exchange, and session issuance.
package google

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"

	"github.com/oshaani/workspace-employee/internal/config"
)

const stateCookieName = "we_oauth_state"

// OAuthConfig builds the OAuth2 config from application settings. The
// redirect URL is derived from the configured public base URL so it matches
// what is registered in the Google Cloud console.
func OAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.AppBaseURL + "/auth/google/callback",
		Scopes:       config.GoogleScopes,
		Endpoint:     googleOAuth.Endpoint,
	}
}

// newStateToken returns a random CSRF state value and sets it as a
// short-lived cookie so the callback can verify the flow started here.
func newStateToken(w http.ResponseWriter, secure bool) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := hex.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}

func verifyStateToken(r *http.Request) bool {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return false
	}
	state := r.URL.Query().Get("state")
	return state != "" && state == cookie.Value
}
