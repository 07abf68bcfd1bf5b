package authprofiles_test

import (
	"testing"

	"github.com/harborai/harbor/internal/authprofiles"
	"github.com/harborai/harbor/internal/config"
)

func seedStore(t *testing.T) *authprofiles.Store {
	t.Helper()
	store := authprofiles.NewStore()
	entries := []struct {
		key  string
		kind authprofiles.ProfileType
	}{
		{"anthropic:default", authprofiles.TypeAPIKey},
		{"anthropic:oauth", authprofiles.TypeOAuth},
		{"anthropic:work", authprofiles.TypeAPIKey},
		{"openai:default", authprofiles.TypeAPIKey},
	}
	for _, entry := range entries {
		provider, _, _ := authprofiles.ParseKey(entry.key)
		if err := store.Set(entry.key, authprofiles.Profile{
			Type:     entry.kind,
			Provider: provider,
		}); err != nil {
			t.Fatalf("Set(%s): %v", entry.key, err)
		}
	}
	return store
}

func assertOrder(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestResolveOrder_OAuthFirstByInsertion(t *testing.T) {
	t.Parallel()
	store := seedStore(t)
	got := authprofiles.ResolveOrder(config.Defaults(), store, "anthropic", "")
	assertOrder(t, got, []string{"anthropic:oauth", "anthropic:default", "anthropic:work"})
}

func TestResolveOrder_ConfiguredOrder(t *testing.T) {
	t.Parallel()
	store := seedStore(t)
	cfg := config.Defaults()
	cfg.Auth.Order = map[string][]string{
		"anthropic": {"anthropic:work", "anthropic:ghost", "anthropic:default"},
	}
	// Configured entries that exist come first in configured order;
	// leftovers keep insertion order; unknown keys are dropped.
	got := authprofiles.ResolveOrder(cfg, store, "anthropic", "")
	assertOrder(t, got, []string{"anthropic:work", "anthropic:default", "anthropic:oauth"})
}

func TestResolveOrder_LastGoodPromoted(t *testing.T) {
	t.Parallel()
	store := seedStore(t)
	store.SetLastGood("anthropic", "anthropic:work")
	got := authprofiles.ResolveOrder(config.Defaults(), store, "anthropic", "")
	assertOrder(t, got, []string{"anthropic:work", "anthropic:oauth", "anthropic:default"})
}

func TestResolveOrder_PreferredBeatsLastGood(t *testing.T) {
	t.Parallel()
	store := seedStore(t)
	store.SetLastGood("anthropic", "anthropic:work")
	got := authprofiles.ResolveOrder(config.Defaults(), store, "anthropic", "anthropic:default")
	assertOrder(t, got, []string{"anthropic:default", "anthropic:work", "anthropic:oauth"})
}

func TestResolveOrder_UnknownPreferredIgnored(t *testing.T) {
	t.Parallel()
	store := seedStore(t)
	got := authprofiles.ResolveOrder(config.Defaults(), store, "anthropic", "anthropic:nope")
	assertOrder(t, got, []string{"anthropic:oauth", "anthropic:default", "anthropic:work"})
}

func TestResolveOrder_NoProfiles(t *testing.T) {
	t.Parallel()
	store := authprofiles.NewStore()
	if got := authprofiles.ResolveOrder(config.Defaults(), store, "anthropic", ""); got != nil {
		t.Fatalf("order = %v, want nil", got)
	}
}
