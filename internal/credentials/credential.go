// Package credentials owns the OAuth credential lifecycle: the immutable
// credential value, the refresh/exchange logic, and the dual-store
// persistence (local bootstrap file per user, best-effort mirror in the
// user's own Drive).
package credentials

import (
	"strings"
	"time"
)

// DefaultTokenURI is Google's OAuth token endpoint, used when a stored
// record predates the token_uri field.
const DefaultTokenURI = "https://oauth2.googleapis.com/token"

// Credential is one user's OAuth grant. It is a value type: refresh and
// exchange return new values, they never mutate in place.
type Credential struct {
	AccessToken  string    `json:"token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// HasRefreshToken reports whether the credential can be refreshed. Without
// a refresh token an expired credential is dead and the user must log in
// again.
func (c Credential) HasRefreshToken() bool {
	return c.RefreshToken != ""
}

func (c Credential) tokenURI() string {
	if c.TokenURI != "" {
		return c.TokenURI
	}
	return DefaultTokenURI
}

// UserData is the per-user settings document mirrored to the user's own
// Drive. It is the long-term source of truth; the local bootstrap file is a
// fast and always-available cache of the credential portion.
type UserData struct {
	UserID            string          `json:"user_id,omitempty"`
	Credentials       *Credential     `json:"credentials,omitempty"`
	AgentAPIKey       string          `json:"oshaani_api_key,omitempty"`
	WorkflowToggles   map[string]bool `json:"workflow_toggles,omitempty"`
	AutomationEnabled *bool           `json:"automation_enabled,omitempty"`
}

// EscapeUserID turns an email address into a filesystem-safe token.
// Reversible via UnescapeUserID.
func EscapeUserID(userID string) string {
	s := strings.ReplaceAll(userID, "@", "_at_")
	return strings.ReplaceAll(s, ".", "_dot_")
}

// UnescapeUserID reverses EscapeUserID.
func UnescapeUserID(name string) string {
	s := strings.ReplaceAll(name, "_at_", "@")
	return strings.ReplaceAll(s, "_dot_", ".")
}
