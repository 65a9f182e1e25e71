package google

import (
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/oshaani/workspace-employee/internal/config"
)

// LoginHandler starts the consent flow. Offline access and forced approval
// are both required: without them Google omits the refresh token on repeat
// logins and the stored credential dies as soon as the access token expires.
func LoginHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.ValidateOAuth(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		secure := strings.HasPrefix(cfg.AppBaseURL, "https://")
		state := newStateToken(w, secure)

		url := OAuthConfig(cfg).AuthCodeURL(state,
			oauth2.AccessTypeOffline,
			oauth2.ApprovalForce,
		)
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
	}
}
