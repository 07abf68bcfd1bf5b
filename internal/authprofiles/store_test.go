package authprofiles_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/harborai/harbor/internal/authprofiles"
)

func TestParseKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in           string
		wantProvider string
		wantName     string
		wantOK       bool
	}{
		{"anthropic:default", "anthropic", "default", true},
		{"anthropic:work:extra", "anthropic", "work:extra", true},
		{"noprovider", "", "", false},
		{":name", "", "", false},
		{"provider:", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		provider, name, ok := authprofiles.ParseKey(tc.in)
		if provider != tc.wantProvider || name != tc.wantName || ok != tc.wantOK {
			t.Fatalf("ParseKey(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.in, provider, name, ok, tc.wantProvider, tc.wantName, tc.wantOK)
		}
	}
}

func TestSet_ProviderMismatch(t *testing.T) {
	t.Parallel()
	store := authprofiles.NewStore()
	err := store.Set("anthropic:default", authprofiles.Profile{
		Type:     authprofiles.TypeAPIKey,
		Provider: "openai",
	})
	if err == nil {
		t.Fatal("Set with mismatched provider: err = nil, want error")
	}
}

func TestStoreRoundTrip_PreservesOrder(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profiles.json")
	store := seedStore(t)
	store.SetLastGood("anthropic", "anthropic:work")

	if err := authprofiles.Save(path, store); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := authprofiles.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertOrder(t, loaded.Keys(), store.Keys())
	if loaded.LastGoodFor("anthropic") != "anthropic:work" {
		t.Fatalf("last good = %q, want anthropic:work", loaded.LastGoodFor("anthropic"))
	}
	profile, ok := loaded.Get("anthropic:oauth")
	if !ok || profile.Type != authprofiles.TypeOAuth {
		t.Fatalf("Get(anthropic:oauth) = (%+v, %v)", profile, ok)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	store, err := authprofiles.Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(store.Keys()) != 0 {
		t.Fatalf("Keys = %v, want empty", store.Keys())
	}
}

func TestRemove_ClearsLastGood(t *testing.T) {
	t.Parallel()
	store := seedStore(t)
	store.SetLastGood("anthropic", "anthropic:work")
	store.Remove("anthropic:work")
	if store.LastGoodFor("anthropic") != "" {
		t.Fatalf("last good = %q, want cleared", store.LastGoodFor("anthropic"))
	}
	assertOrder(t, store.KeysForProvider("anthropic"), []string{"anthropic:default", "anthropic:oauth"})
}

func TestProfileExpired(t *testing.T) {
	t.Parallel()
	now := time.Now()
	expired := authprofiles.Profile{
		Type:    authprofiles.TypeOAuth,
		Expires: now.Add(-time.Minute).UnixMilli(),
	}
	if !expired.Expired(now) {
		t.Fatal("past expiry: Expired = false, want true")
	}
	fresh := authprofiles.Profile{
		Type:    authprofiles.TypeOAuth,
		Expires: now.Add(time.Hour).UnixMilli(),
	}
	if fresh.Expired(now) {
		t.Fatal("future expiry: Expired = true, want false")
	}
	apiKey := authprofiles.Profile{Type: authprofiles.TypeAPIKey}
	if apiKey.Expired(now) {
		t.Fatal("api key profile: Expired = true, want false")
	}
}

func TestOAuthToken(t *testing.T) {
	t.Parallel()
	profile := authprofiles.Profile{
		Type:    authprofiles.TypeOAuth,
		Access:  "access",
		Refresh: "refresh",
		Expires: time.Now().UnixMilli(),
	}
	token := profile.OAuthToken()
	if token == nil || token.AccessToken != "access" || token.RefreshToken != "refresh" {
		t.Fatalf("OAuthToken = %+v", token)
	}
	if (authprofiles.Profile{Type: authprofiles.TypeAPIKey}).OAuthToken() != nil {
		t.Fatal("api key profile: OAuthToken != nil")
	}
}
