package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/oshaani/workspace-employee/internal/workspace"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// IdentityService resolves the authenticated user's email and internal
// account id via the userinfo endpoint.
type IdentityService struct {
	ts oauth2.TokenSource
}

func (i *IdentityService) Profile(ctx context.Context) (*workspace.Profile, error) {
	tok, err := i.ts.Token()
	if err != nil {
		return nil, fmt.Errorf("identity token: %w", err)
	}
	return FetchProfile(ctx, tok.AccessToken)
}

// FetchProfile fetches the user's profile with a bare access token. The
// returned UserResourceName is the "users/<id>" form the Chat API uses for
// message senders.
func FetchProfile(ctx context.Context, accessToken string) (*workspace.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}

	profile := &workspace.Profile{Email: info.Email, Name: info.Name}
	if info.ID != "" {
		profile.UserResourceName = "users/" + info.ID
	}
	return profile, nil
}
