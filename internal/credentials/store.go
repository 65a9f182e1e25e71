package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	bootstrapPrefix = "bootstrap_"
	legacyPrefix    = "creds_"
)

// RemoteStore is the per-user remote settings document, keyed by the user's
// own credential (in production: a JSON file in the user's Drive). Reaching
// the remote store requires a valid credential, which is why the local
// bootstrap file, not the remote blob, is the recovery path.
type RemoteStore interface {
	LoadUserData(ctx context.Context, cred Credential, userID string) (*UserData, error)
	SaveUserData(ctx context.Context, cred Credential, userID string, data *UserData) error
}

// SyncStatus reports the outcome of a best-effort remote mirror write. The
// caller decides whether to log or surface degraded-mode behavior.
type SyncStatus struct {
	Attempted bool
	Err       error
}

// Store persists credentials per user: a minimal bootstrap record locally
// (the only durable fallback) and the full credential merged into the
// user's remote settings document when reachable.
type Store struct {
	dataDir   string
	lifecycle *Lifecycle
	remote    RemoteStore
}

// NewStore creates a credential store rooted at dataDir. remote may be nil
// when no remote mirror is configured.
func NewStore(dataDir string, lifecycle *Lifecycle, remote RemoteStore) *Store {
	return &Store{dataDir: dataDir, lifecycle: lifecycle, remote: remote}
}

// EnsureDataDirReady creates the data directory and verifies it is
// writable. Call at startup so a misconfigured volume fails fast instead of
// failing on the first login.
func EnsureDataDirReady(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create data directory %s: %w", dir, err)
	}
	probe := filepath.Join(dir, ".write_check")
	if err := os.WriteFile(probe, nil, 0o600); err != nil {
		return fmt.Errorf("data directory is not writable: %s: %w", dir, err)
	}
	os.Remove(probe)
	return nil
}

// bootstrapRecord is the minimal locally-persisted subset of a credential
// needed to survive a restart. The cached access token and expiry are only
// written together; a token without its expiry (or vice versa) is
// inconsistent partial state.
type bootstrapRecord struct {
	RefreshToken string    `json:"refresh_token"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	TokenURI     string    `json:"token_uri"`
	Scopes       []string  `json:"scopes"`
	AccessToken  string    `json:"token,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

func recordFromCredential(c Credential) bootstrapRecord {
	rec := bootstrapRecord{
		RefreshToken: c.RefreshToken,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURI:     c.tokenURI(),
		Scopes:       c.Scopes,
	}
	if c.AccessToken != "" && !c.Expiry.IsZero() {
		rec.AccessToken = c.AccessToken
		rec.Expiry = c.Expiry.UTC()
	}
	return rec
}

func (r bootstrapRecord) credential() Credential {
	c := Credential{
		RefreshToken: r.RefreshToken,
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		TokenURI:     r.TokenURI,
		Scopes:       r.Scopes,
	}
	if r.AccessToken != "" && !r.Expiry.IsZero() {
		c.AccessToken = r.AccessToken
		c.Expiry = r.Expiry.UTC()
	}
	return c
}

func (s *Store) bootstrapPath(userID string) string {
	return filepath.Join(s.dataDir, bootstrapPrefix+EscapeUserID(userID)+".json")
}

func (s *Store) legacyPath(userID string) string {
	return filepath.Join(s.dataDir, legacyPrefix+userID+".json")
}

// Save writes the bootstrap record locally (must succeed, it is the only
// durable fallback) and merges the full credential into the user's remote
// document. The remote write is an optimization: its outcome is reported in
// the SyncStatus and never fails the save.
func (s *Store) Save(ctx context.Context, userID string, cred Credential) (SyncStatus, error) {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return SyncStatus{}, fmt.Errorf("cannot create data directory %s: %w", s.dataDir, err)
	}
	data, err := json.MarshalIndent(recordFromCredential(cred), "", "  ")
	if err != nil {
		return SyncStatus{}, fmt.Errorf("encode bootstrap for %s: %w", userID, err)
	}
	if err := writeFileAtomic(s.bootstrapPath(userID), data); err != nil {
		return SyncStatus{}, fmt.Errorf("write bootstrap for %s: %w", userID, err)
	}

	if s.remote == nil {
		return SyncStatus{}, nil
	}
	return SyncStatus{Attempted: true, Err: s.mirrorToRemote(ctx, userID, cred)}, nil
}

func (s *Store) mirrorToRemote(ctx context.Context, userID string, cred Credential) error {
	existing, err := s.remote.LoadUserData(ctx, cred, userID)
	if err != nil || existing == nil {
		existing = &UserData{}
	}
	existing.UserID = userID
	c := cred
	existing.Credentials = &c
	return s.remote.SaveUserData(ctx, cred, userID, existing)
}

// Load reconstructs the credential for a user. Absent bootstrap means the
// user never authenticated. A stale access token is refreshed here; a
// permanently dead grant (revoked, scope changed) deletes the local state
// and reports absent, forcing a clean re-login instead of looping on a
// refresh that cannot succeed.
func (s *Store) Load(ctx context.Context, userID string) (Credential, bool, error) {
	if cred, ok := s.migrateLegacy(ctx, userID); ok {
		return cred, true, nil
	}

	path := s.bootstrapPath(userID)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Credential{}, false, nil
	}
	if err != nil {
		log.Printf("⚠️ Cannot read bootstrap for %s: %v", userID, err)
		return Credential{}, false, nil
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		log.Printf("⚠️ Bootstrap file empty for %s: %s", userID, path)
		return Credential{}, false, nil
	}

	var rec bootstrapRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("⚠️ Bootstrap file invalid JSON for %s (%s): %v", userID, path, err)
		return Credential{}, false, nil
	}
	cred := rec.credential()

	refreshed, didRefresh, err := s.lifecycle.RefreshIfNeeded(ctx, cred)
	if err != nil {
		if IsCredentialDead(err) {
			log.Printf("🔒 Clearing stale credentials for %s (re-login required): %v", userID, err)
			s.Delete(userID)
			return Credential{}, false, nil
		}
		return Credential{}, false, err
	}
	cred = refreshed

	if didRefresh && cred.AccessToken != "" && cred.HasRefreshToken() {
		if data, err := json.MarshalIndent(recordFromCredential(cred), "", "  "); err == nil {
			if err := writeFileAtomic(path, data); err != nil {
				log.Printf("⚠️ Failed to persist refreshed token for %s: %v", userID, err)
			}
		}
	}

	// Bootstrap without a refresh token cannot survive the next expiry; the
	// remote document may hold a fuller credential from another install.
	if !cred.HasRefreshToken() && s.remote != nil {
		if remote, err := s.remote.LoadUserData(ctx, cred, userID); err == nil && remote != nil && remote.Credentials != nil {
			return *remote.Credentials, true, nil
		}
	}
	return cred, true, nil
}

func (s *Store) migrateLegacy(ctx context.Context, userID string) (Credential, bool) {
	path := s.legacyPath(userID)
	data, err := os.ReadFile(path)
	if err != nil {
		return Credential{}, false
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		log.Printf("⚠️ Legacy credential file invalid for %s: %v", userID, err)
		return Credential{}, false
	}
	sync, err := s.Save(ctx, userID, cred)
	if err != nil {
		log.Printf("⚠️ Legacy migration failed for %s: %v", userID, err)
		return Credential{}, false
	}
	if sync.Attempted && sync.Err != nil {
		log.Printf("⚠️ Remote sync during legacy migration failed for %s: %v", userID, sync.Err)
	}
	if err := os.Remove(path); err != nil {
		log.Printf("⚠️ Could not remove legacy credential file %s: %v", path, err)
	}
	log.Printf("📦 Migrated legacy credential file for %s", userID)
	return cred, true
}

// Delete removes the local bootstrap only. The remote document is left
// intact so a re-login restores settings without data loss. Returns whether
// anything was removed.
func (s *Store) Delete(userID string) bool {
	err := os.Remove(s.bootstrapPath(userID))
	return err == nil
}

// ListKnownUsers enumerates users from the local bootstrap files on disk.
// This is the authoritative membership list the scheduler iterates: a user
// present only in a remote document never completed login here and is not
// scheduled.
func (s *Store) ListKnownUsers() []string {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil
	}
	var users []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, bootstrapPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		escaped := strings.TrimSuffix(strings.TrimPrefix(name, bootstrapPrefix), ".json")
		users = append(users, UnescapeUserID(escaped))
	}
	sort.Strings(users)
	return users
}

// writeFileAtomic writes via a temp file and rename so concurrent readers
// never observe a torn write.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
