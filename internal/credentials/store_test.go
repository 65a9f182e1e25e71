package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

type fakeRemote struct {
	docs    map[string]*UserData
	loadErr error
	saveErr error
	saves   int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: map[string]*UserData{}}
}

func (f *fakeRemote) LoadUserData(_ context.Context, _ Credential, userID string) (*UserData, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.docs[userID], nil
}

func (f *fakeRemote) SaveUserData(_ context.Context, _ Credential, userID string, data *UserData) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.docs[userID] = data
	return nil
}

func freshCred(now time.Time) Credential {
	return Credential{
		AccessToken:  "at",
		RefreshToken: "rt",
		TokenURI:     DefaultTokenURI,
		ClientID:     "cid",
		ClientSecret: "csec",
		Scopes:       []string{"openid"},
		Expiry:       now.Add(time.Hour).UTC(),
	}
}

func newTestStore(t *testing.T, remote RemoteStore) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	l := NewLifecycle()
	return NewStore(dir, l, remote), dir
}

func TestSaveLoadRoundTrip(t *testing.T) {
	remote := newFakeRemote()
	store, _ := newTestStore(t, remote)
	cred := freshCred(time.Now())

	sync, err := store.Save(context.Background(), "user@example.com", cred)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !sync.Attempted || sync.Err != nil {
		t.Fatalf("expected successful remote sync, got %+v", sync)
	}

	got, ok, err := store.Load(context.Background(), "user@example.com")
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.RefreshToken != cred.RefreshToken || got.AccessToken != cred.AccessToken {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.Expiry.Equal(cred.Expiry) {
		t.Errorf("expiry mismatch: %v != %v", got.Expiry, cred.Expiry)
	}

	doc := remote.docs["user@example.com"]
	if doc == nil || doc.Credentials == nil || doc.Credentials.RefreshToken != "rt" {
		t.Errorf("remote document not mirrored: %+v", doc)
	}
}

func TestSaveSucceedsWhenRemoteFails(t *testing.T) {
	remote := newFakeRemote()
	remote.saveErr = errors.New("drive unreachable")
	store, _ := newTestStore(t, remote)

	sync, err := store.Save(context.Background(), "user@example.com", freshCred(time.Now()))
	if err != nil {
		t.Fatalf("local save must succeed despite remote failure: %v", err)
	}
	if !sync.Attempted || sync.Err == nil {
		t.Fatalf("sync status must report the remote failure, got %+v", sync)
	}

	if _, ok, _ := store.Load(context.Background(), "user@example.com"); !ok {
		t.Error("credential must be loadable from local bootstrap alone")
	}
}

func TestBootstrapTokenExpiryPairInvariant(t *testing.T) {
	// An access token without its expiry must not be persisted.
	rec := recordFromCredential(Credential{AccessToken: "at", RefreshToken: "rt"})
	if rec.AccessToken != "" || !rec.Expiry.IsZero() {
		t.Errorf("token without expiry persisted: %+v", rec)
	}

	cred := bootstrapRecord{RefreshToken: "rt", AccessToken: "orphan"}.credential()
	if cred.AccessToken != "" {
		t.Errorf("token without expiry reconstructed: %+v", cred)
	}
}

func TestLoadAbsentUser(t *testing.T) {
	store, _ := newTestStore(t, nil)
	_, ok, err := store.Load(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("absent user must not error: %v", err)
	}
	if ok {
		t.Error("absent user reported present")
	}
}

func TestLoadCorruptBootstrapReportsAbsent(t *testing.T) {
	store, dir := newTestStore(t, nil)
	path := filepath.Join(dir, bootstrapPrefix+EscapeUserID("user@example.com")+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, ok, err := store.Load(context.Background(), "user@example.com")
	if err != nil || ok {
		t.Fatalf("corrupt bootstrap must read as absent, got ok=%v err=%v", ok, err)
	}
}

func TestLoadDeadGrantPurgesBootstrap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been revoked."}`))
	}))
	defer srv.Close()

	store, dir := newTestStore(t, nil)
	cred := Credential{
		RefreshToken: "dead-rt",
		ClientID:     "cid",
		ClientSecret: "csec",
		TokenURI:     srv.URL,
	}
	if _, err := store.Save(context.Background(), "user@example.com", cred); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, ok, err := store.Load(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("dead grant must not surface as an error: %v", err)
	}
	if ok {
		t.Error("dead grant reported present")
	}

	path := filepath.Join(dir, bootstrapPrefix+EscapeUserID("user@example.com")+".json")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("bootstrap file must be purged after a dead grant")
	}
}

func TestMigrateLegacyCredentialFile(t *testing.T) {
	remote := newFakeRemote()
	store, dir := newTestStore(t, remote)

	cred := freshCred(time.Now())
	raw, _ := json.Marshal(cred)
	legacy := filepath.Join(dir, legacyPrefix+"user@example.com.json")
	if err := os.WriteFile(legacy, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.Load(context.Background(), "user@example.com")
	if err != nil || !ok {
		t.Fatalf("Load after migration: ok=%v err=%v", ok, err)
	}
	if got.RefreshToken != "rt" {
		t.Errorf("migrated credential mismatch: %+v", got)
	}
	if _, err := os.Stat(legacy); !os.IsNotExist(err) {
		t.Error("legacy file must be removed after migration")
	}
	bootstrap := filepath.Join(dir, bootstrapPrefix+EscapeUserID("user@example.com")+".json")
	if _, err := os.Stat(bootstrap); err != nil {
		t.Errorf("bootstrap file must exist after migration: %v", err)
	}
}

func TestDeleteAndListKnownUsers(t *testing.T) {
	store, _ := newTestStore(t, nil)
	now := time.Now()
	for _, u := range []string{"b@example.com", "a@example.com"} {
		if _, err := store.Save(context.Background(), u, freshCred(now)); err != nil {
			t.Fatalf("Save %s: %v", u, err)
		}
	}

	if got := store.ListKnownUsers(); !reflect.DeepEqual(got, []string{"a@example.com", "b@example.com"}) {
		t.Errorf("ListKnownUsers = %v", got)
	}

	if !store.Delete("a@example.com") {
		t.Error("Delete of existing user must report true")
	}
	if store.Delete("a@example.com") {
		t.Error("second Delete must report false")
	}
	if got := store.ListKnownUsers(); !reflect.DeepEqual(got, []string{"b@example.com"}) {
		t.Errorf("ListKnownUsers after delete = %v", got)
	}
}

func TestEscapeUserIDReversible(t *testing.T) {
	ids := []string{
		"user@example.com",
		"first.last@sub.example.co.uk",
		"plain",
	}
	for _, id := range ids {
		escaped := EscapeUserID(id)
		if got := UnescapeUserID(escaped); got != id {
			t.Errorf("round trip %q -> %q -> %q", id, escaped, got)
		}
		if filepath.Base(escaped) != escaped {
			t.Errorf("escaped id %q is not filesystem-safe", escaped)
		}
	}
}
