package credentials

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Lifecycle decides when a credential needs refreshing and performs the
// refresh or the initial authorization-code exchange against the token
// endpoint.
type Lifecycle struct {
	httpClient *http.Client
	now        func() time.Time
}

// NewLifecycle returns a Lifecycle with a bounded-timeout HTTP client for
// token endpoint calls.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// NeedsRefresh reports whether the access token must be refreshed before
// use. Unknown freshness (missing token or missing expiry) is treated as
// stale rather than trusted. Both sides of the comparison are normalized to
// UTC so the decision is independent of how the expiry was stored.
func (l *Lifecycle) NeedsRefresh(c Credential) bool {
	return needsRefreshAt(c, l.now())
}

func needsRefreshAt(c Credential, now time.Time) bool {
	if c.AccessToken == "" {
		return true
	}
	if c.Expiry.IsZero() {
		return true
	}
	return !c.Expiry.UTC().After(now.UTC())
}

// Refresh exchanges the refresh token for a new access token. A credential
// without a refresh token is returned unchanged; the caller detects the
// continued staleness and surfaces an authentication-required error. On
// success the returned credential carries the new access token and expiry,
// with the refresh token carried over unless the endpoint rotated it.
func (l *Lifecycle) Refresh(ctx context.Context, c Credential) (Credential, error) {
	if !c.HasRefreshToken() {
		return c, nil
	}

	conf := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: c.tokenURI()},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, l.httpClient)
	src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken})

	tok, err := src.Token()
	if err != nil {
		return c, fmt.Errorf("token refresh: %w", err)
	}

	next := c
	next.AccessToken = tok.AccessToken
	next.Expiry = tok.Expiry.UTC()
	if tok.RefreshToken != "" && tok.RefreshToken != c.RefreshToken {
		next.RefreshToken = tok.RefreshToken
	}
	return next, nil
}

// RefreshIfNeeded refreshes only when the credential is stale. The second
// return value reports whether a refresh was performed.
func (l *Lifecycle) RefreshIfNeeded(ctx context.Context, c Credential) (Credential, bool, error) {
	if !l.NeedsRefresh(c) {
		return c, false, nil
	}
	next, err := l.Refresh(ctx, c)
	if err != nil {
		return c, false, err
	}
	return next, next.AccessToken != c.AccessToken, nil
}

// Exchange performs the one-time authorization-code grant. The scopes on
// the returned credential are exactly what the server granted: the server
// may reorder or extend the requested scopes, and rejecting that client-side
// only produces spurious login failures.
func (l *Lifecycle) Exchange(ctx context.Context, conf *oauth2.Config, code string) (Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, l.httpClient)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return Credential{}, fmt.Errorf("code exchange: %w", err)
	}

	scopes := conf.Scopes
	if granted, ok := tok.Extra("scope").(string); ok && granted != "" {
		scopes = strings.Fields(granted)
	}

	return Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     conf.Endpoint.TokenURL,
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		Scopes:       scopes,
		Expiry:       tok.Expiry.UTC(),
	}, nil
}

// IsCredentialDead reports whether a refresh error is permanent: the grant
// was revoked or the consented scopes changed, so retrying can never
// succeed and the user must re-authenticate.
func IsCredentialDead(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	markers := []string{
		"invalid_grant",
		"unauthorized_client",
		"revoked",
		"scope",
	}
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
