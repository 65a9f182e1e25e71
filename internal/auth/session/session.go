// Package session implements the browser login session: an HMAC-signed
// cookie carrying the user id and an expiry. The server keeps no session
// state; the signature is the only thing that makes the cookie trustworthy.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// CookieName is the session cookie.
	CookieName = "we_session"
	// DefaultTTL bounds how long a login lasts before the browser must
	// re-authenticate.
	DefaultTTL = 7 * 24 * time.Hour
)

var ErrInvalidSession = errors.New("session: invalid or expired")

// Manager signs and verifies session cookies with a server-side secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager creates a manager. secure controls the cookie's Secure flag and
// should be on whenever the app is served over HTTPS.
func NewManager(secret string, secure bool) *Manager {
	return &Manager{secret: []byte(secret), ttl: DefaultTTL, secure: secure, now: time.Now}
}

func (m *Manager) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// token is "<base64(userID)>.<expiryUnix>.<signature>". The user id is
// encoded so the separator can never appear in it.
func (m *Manager) token(userID string, expiry time.Time) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(userID)) + "." + strconv.FormatInt(expiry.Unix(), 10)
	return payload + "." + m.sign(payload)
}

// Verify parses and checks a token, returning the user id.
func (m *Manager) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrInvalidSession
	}
	payload := parts[0] + "." + parts[1]
	expected := m.sign(payload)
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return "", ErrInvalidSession
	}

	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || m.now().Unix() >= expiry {
		return "", ErrInvalidSession
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || len(raw) == 0 {
		return "", ErrInvalidSession
	}
	return string(raw), nil
}

// Issue sets the session cookie for userID.
func (m *Manager) Issue(w http.ResponseWriter, userID string) {
	expiry := m.now().Add(m.ttl)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.token(userID, expiry),
		Path:     "/",
		Expires:  expiry,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserFromRequest resolves the logged-in user from the request cookie.
func (m *Manager) UserFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", fmt.Errorf("%w: no cookie", ErrInvalidSession)
	}
	return m.Verify(cookie.Value)
}
