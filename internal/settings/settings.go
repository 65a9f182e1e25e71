// Package settings stores per-user keyed settings on top of the same
// dual-store policy as credentials. Each setting declares where its source
// of truth lives:
//
//   - local-first (automation on/off): the setting gates whether the
//     scheduler runs the user at all, so the user's last explicit choice
//     must survive a remote outage. Written locally first, mirrored to the
//     remote document best-effort.
//   - remote-first (agent API key, workflow toggles): preferences about how
//     workflows behave. The remote document is authoritative and a write
//     that cannot reach it fails the request rather than silently accepting
//     a setting that would be lost.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshaani/workspace-employee/internal/credentials"
)

const (
	legacySettingsPrefix = "user_settings_"
	automationPrefix     = "automation_"
)

// Policy is the persistence policy of one setting.
type Policy int

const (
	// PolicyLocalFirst reads the local per-user file with priority and
	// mirrors to remote best-effort.
	PolicyLocalFirst Policy = iota
	// PolicyRemoteFirst treats the remote document as authoritative; writes
	// fail when it is unreachable.
	PolicyRemoteFirst
)

// PolicyFor documents the persistence policy per setting.
func PolicyFor(setting string) Policy {
	if setting == "automation_enabled" {
		return PolicyLocalFirst
	}
	return PolicyRemoteFirst
}

var (
	// ErrNotAuthenticated is returned when a remote-first write is requested
	// for a user with no stored credential.
	ErrNotAuthenticated = errors.New("settings: user not authenticated")
	// ErrRemoteUnavailable is returned when a remote-first write cannot
	// reach the user's remote document.
	ErrRemoteUnavailable = errors.New("settings: remote store unavailable")
)

// WorkflowNames is the fixed set of workflow toggles. Keys outside this set
// are never stored; missing keys read as enabled.
var WorkflowNames = []string{
	"smart_inbox",
	"document_intelligence",
	"chat_auto_reply",
	"first_email_draft",
	"chat_spaces",
}

// DefaultToggles returns the all-enabled toggle set.
func DefaultToggles() map[string]bool {
	toggles := make(map[string]bool, len(WorkflowNames))
	for _, name := range WorkflowNames {
		toggles[name] = true
	}
	return toggles
}

// TogglePatch is a partial toggle update. Nil fields are left unchanged;
// unknown JSON keys are dropped by decoding.
type TogglePatch struct {
	SmartInbox           *bool `json:"smart_inbox"`
	DocumentIntelligence *bool `json:"document_intelligence"`
	ChatAutoReply        *bool `json:"chat_auto_reply"`
	FirstEmailDraft      *bool `json:"first_email_draft"`
	ChatSpaces           *bool `json:"chat_spaces"`
}

func (p TogglePatch) fields() map[string]*bool {
	return map[string]*bool{
		"smart_inbox":           p.SmartInbox,
		"document_intelligence": p.DocumentIntelligence,
		"chat_auto_reply":       p.ChatAutoReply,
		"first_email_draft":     p.FirstEmailDraft,
		"chat_spaces":           p.ChatSpaces,
	}
}

// Store layers keyed per-user settings over the credential store (to reach
// the remote document on the user's behalf) and the local data directory.
type Store struct {
	dataDir string
	creds   *credentials.Store
	remote  credentials.RemoteStore
}

// NewStore creates a settings store. remote may be nil; remote-first writes
// then fail with ErrRemoteUnavailable.
func NewStore(dataDir string, creds *credentials.Store, remote credentials.RemoteStore) *Store {
	return &Store{dataDir: dataDir, creds: creds, remote: remote}
}

func (s *Store) legacyPath(userID string) string {
	return filepath.Join(s.dataDir, legacySettingsPrefix+credentials.EscapeUserID(userID)+".json")
}

func (s *Store) automationPath(userID string) string {
	return filepath.Join(s.dataDir, automationPrefix+credentials.EscapeUserID(userID)+".json")
}

func (s *Store) loadRemote(ctx context.Context, userID string) (credentials.Credential, *credentials.UserData, error) {
	if s.remote == nil {
		return credentials.Credential{}, nil, ErrRemoteUnavailable
	}
	cred, ok, err := s.creds.Load(ctx, userID)
	if err != nil {
		return credentials.Credential{}, nil, err
	}
	if !ok {
		return credentials.Credential{}, nil, ErrNotAuthenticated
	}
	data, err := s.remote.LoadUserData(ctx, cred, userID)
	if err != nil {
		return cred, nil, err
	}
	if data == nil {
		data = &credentials.UserData{}
	}
	return cred, data, nil
}

// RemoteDocument reads the user's remote settings document with an already
// loaded credential. Returns nil when no document exists yet.
func (s *Store) RemoteDocument(ctx context.Context, userID string, cred credentials.Credential) (*credentials.UserData, error) {
	if s.remote == nil {
		return nil, ErrRemoteUnavailable
	}
	return s.remote.LoadUserData(ctx, cred, userID)
}

// AgentAPIKey returns the user's agent key override from the remote
// document, or empty when none is set (callers fall back to the configured
// default key). Any legacy local settings file is opportunistically
// migrated to the remote document first, then deleted (an at-most-once,
// best-effort attempt).
func (s *Store) AgentAPIKey(ctx context.Context, userID string) string {
	s.migrateLegacy(ctx, userID)

	_, data, err := s.loadRemote(ctx, userID)
	if err != nil || data == nil {
		return ""
	}
	return strings.TrimSpace(data.AgentAPIKey)
}

// SetAgentAPIKey stores the user's agent key override in the remote
// document. An empty key clears the override. Remote-first: an unreachable
// remote fails the request.
func (s *Store) SetAgentAPIKey(ctx context.Context, userID, key string) error {
	defer os.Remove(s.legacyPath(userID))

	cred, data, err := s.loadRemote(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrRemoteUnavailable) {
			return err
		}
		// Could not read the existing document; start from an empty one
		// rather than refusing the write.
		data = &credentials.UserData{}
	}
	data.UserID = userID
	data.AgentAPIKey = strings.TrimSpace(key)
	if err := s.remote.SaveUserData(ctx, cred, userID, data); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

// WorkflowToggles returns the user's toggle set with defaults applied:
// every missing key reads as enabled, keys outside the fixed set are
// ignored.
func (s *Store) WorkflowToggles(ctx context.Context, userID string) map[string]bool {
	toggles := DefaultToggles()
	_, data, err := s.loadRemote(ctx, userID)
	if err != nil || data == nil || data.WorkflowToggles == nil {
		return toggles
	}
	for name, enabled := range data.WorkflowToggles {
		if _, known := toggles[name]; known {
			toggles[name] = enabled
		}
	}
	return toggles
}

// ApplyTogglePatch merges a partial toggle update into the remote document.
// Remote-first: an unreachable remote fails the request.
func (s *Store) ApplyTogglePatch(ctx context.Context, userID string, patch TogglePatch) error {
	cred, data, err := s.loadRemote(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrRemoteUnavailable) {
			return err
		}
		data = &credentials.UserData{}
	}
	if data.WorkflowToggles == nil {
		data.WorkflowToggles = make(map[string]bool)
	}
	for name, value := range patch.fields() {
		if value != nil {
			data.WorkflowToggles[name] = *value
		}
	}
	data.UserID = userID
	if err := s.remote.SaveUserData(ctx, cred, userID, data); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

type automationRecord struct {
	Enabled any `json:"enabled"`
}

// AutomationEnabled reports whether scheduled automation runs for this
// user. Local-first: the local file holds the user's last explicit choice
// and wins over the remote document. Default is enabled.
func (s *Store) AutomationEnabled(ctx context.Context, userID string) bool {
	if data, err := os.ReadFile(s.automationPath(userID)); err == nil {
		var rec automationRecord
		if err := json.Unmarshal(data, &rec); err == nil && rec.Enabled != nil {
			return parseEnabled(rec.Enabled)
		}
	}

	_, data, err := s.loadRemote(ctx, userID)
	if err != nil || data == nil || data.AutomationEnabled == nil {
		return true
	}
	return *data.AutomationEnabled
}

// SetAutomationEnabled persists the automation flag locally first (this
// write must succeed), then mirrors it to the remote document best-effort.
func (s *Store) SetAutomationEnabled(ctx context.Context, userID string, enabled bool) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("cannot save automation preference: %w", err)
	}
	data, err := json.Marshal(automationRecord{Enabled: enabled})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.automationPath(userID), data, 0o600); err != nil {
		return fmt.Errorf("cannot save automation preference: %w", err)
	}

	cred, remote, err := s.loadRemote(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotAuthenticated) {
			log.Printf("⚠️ Remote sync for automation_enabled failed for %s: %v", userID, err)
		}
		return nil
	}
	remote.UserID = userID
	remote.AutomationEnabled = &enabled
	if err := s.remote.SaveUserData(ctx, cred, userID, remote); err != nil {
		log.Printf("⚠️ Could not sync automation_enabled to remote for %s: %v", userID, err)
	}
	return nil
}

// migrateLegacy moves an agent key from the old local-only settings file
// into the remote document, then deletes the legacy file regardless of
// whether the migration succeeded.
func (s *Store) migrateLegacy(ctx context.Context, userID string) {
	path := s.legacyPath(userID)
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	defer os.Remove(path)

	var legacy struct {
		AgentAPIKey string `json:"oshaani_api_key"`
	}
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return
	}
	key := strings.TrimSpace(legacy.AgentAPIKey)
	if key == "" {
		return
	}
	cred, data, err := s.loadRemote(ctx, userID)
	if err != nil {
		return
	}
	data.UserID = userID
	data.AgentAPIKey = key
	if err := s.remote.SaveUserData(ctx, cred, userID, data); err != nil {
		log.Printf("⚠️ Legacy settings migration failed for %s: %v", userID, err)
		return
	}
	log.Printf("📦 Migrated legacy settings file for %s", userID)
}

func parseEnabled(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "on", "yes":
			return true
		default:
			return false
		}
	case float64:
		return val != 0
	default:
		return v != nil
	}
}
