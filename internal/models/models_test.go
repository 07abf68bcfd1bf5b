package models_test

import (
	"testing"

	"github.com/harborai/harbor/internal/config"
	"github.com/harborai/harbor/internal/models"
)

func strPtr(s string) *string { return &s }

func TestParseRef(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in       string
		provider string
		want     models.Ref
		wantOK   bool
	}{
		{"anthropic/claude-opus-4-5", "anthropic", models.Ref{Provider: "anthropic", Model: "claude-opus-4-5"}, true},
		{"claude-opus-4-5", "anthropic", models.Ref{Provider: "anthropic", Model: "claude-opus-4-5"}, true},
		{"openai/gpt-5.2", "anthropic", models.Ref{Provider: "openai", Model: "gpt-5.2"}, true},
		{"  google/gemini-3-pro  ", "anthropic", models.Ref{Provider: "google", Model: "gemini-3-pro"}, true},
		{"", "anthropic", models.Ref{}, false},
		{"bare-model", "", models.Ref{}, false},
		{"/model-only", "anthropic", models.Ref{}, false},
		{"provider/", "anthropic", models.Ref{}, false},
	}
	for _, tc := range cases {
		got, ok := models.ParseRef(tc.in, tc.provider)
		if ok != tc.wantOK || got != tc.want {
			t.Fatalf("ParseRef(%q, %q) = (%+v, %v), want (%+v, %v)", tc.in, tc.provider, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestParseRef_KeyRoundTrip(t *testing.T) {
	t.Parallel()
	refs := []models.Ref{
		{Provider: "anthropic", Model: "claude-opus-4-5"},
		{Provider: "openai", Model: "gpt-5.2"},
		{Provider: "google", Model: "gemini-3-flash"},
	}
	for _, ref := range refs {
		got, ok := models.ParseRef(ref.Key(), "ignored")
		if !ok || got != ref {
			t.Fatalf("ParseRef(%q) = (%+v, %v), want (%+v, true)", ref.Key(), got, ok, ref)
		}
	}
}

func aliasConfig() config.Config {
	cfg := config.Defaults()
	cfg.Agent.Models = map[string]config.ModelConfig{
		"anthropic/claude-opus-4-5": {Alias: strPtr("Opus")},
		"openai/gpt-5.2":            {Alias: strPtr("gpt")},
		"google/gemini-3-flash":     {Alias: strPtr("")},
	}
	return cfg
}

func TestAliasIndex_CaseInsensitive(t *testing.T) {
	t.Parallel()
	index := models.BuildAliasIndex(aliasConfig(), "anthropic")

	for _, alias := range []string{"opus", "OPUS", "Opus"} {
		ref, ok := index.Resolve(alias)
		if !ok || ref.Key() != "anthropic/claude-opus-4-5" {
			t.Fatalf("Resolve(%q) = (%+v, %v), want opus model", alias, ref, ok)
		}
	}
}

func TestAliasIndex_EmptyAliasOptOut(t *testing.T) {
	t.Parallel()
	index := models.BuildAliasIndex(aliasConfig(), "anthropic")

	if aliases := index.AliasesFor("google/gemini-3-flash"); len(aliases) != 0 {
		t.Fatalf("opted-out model has aliases %v, want none", aliases)
	}
}

func TestAliasIndex_CollisionFirstKeyWins(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Agent.Models = map[string]config.ModelConfig{
		"anthropic/claude-opus-4-5": {Alias: strPtr("best")},
		"openai/gpt-5.2":            {Alias: strPtr("best")},
	}
	index := models.BuildAliasIndex(cfg, "anthropic")

	ref, ok := index.Resolve("best")
	if !ok || ref.Key() != "anthropic/claude-opus-4-5" {
		t.Fatalf("Resolve(best) = (%+v, %v), want first key in sorted order", ref, ok)
	}
}

func TestResolveRefFromString_AliasBeforeParse(t *testing.T) {
	t.Parallel()
	index := models.BuildAliasIndex(aliasConfig(), "anthropic")

	ref, ok := models.ResolveRefFromString("gpt", "anthropic", index)
	if !ok || ref.Key() != "openai/gpt-5.2" {
		t.Fatalf("ResolveRefFromString(gpt) = (%+v, %v), want alias hit", ref, ok)
	}
	ref, ok = models.ResolveRefFromString("mistral/large", "anthropic", index)
	if !ok || ref.Key() != "mistral/large" {
		t.Fatalf("ResolveRefFromString(mistral/large) = (%+v, %v), want parsed ref", ref, ok)
	}
}

func TestResolveConfiguredRef_DefaultsWhenUnset(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	ref := models.ResolveConfiguredRef(cfg)
	if ref.Key() != config.DefaultProvider+"/"+config.DefaultModel {
		t.Fatalf("ResolveConfiguredRef = %q, want defaults", ref.Key())
	}
}

func TestResolveConfiguredRef_AliasPrimary(t *testing.T) {
	t.Parallel()
	cfg := aliasConfig()
	cfg.Agent.Model.Primary = "opus"
	ref := models.ResolveConfiguredRef(cfg)
	if ref.Key() != "anthropic/claude-opus-4-5" {
		t.Fatalf("ResolveConfiguredRef = %q, want alias resolution", ref.Key())
	}
}

func TestResolveFallbackRefs_Dedupe(t *testing.T) {
	t.Parallel()
	cfg := aliasConfig()
	cfg.Agent.Model.Fallbacks = []string{"gpt", "openai/gpt-5.2", "google/gemini-3-flash", ""}
	refs := models.ResolveFallbackRefs(cfg)
	if len(refs) != 2 {
		t.Fatalf("ResolveFallbackRefs = %+v, want 2 entries", refs)
	}
	if refs[0].Key() != "openai/gpt-5.2" || refs[1].Key() != "google/gemini-3-flash" {
		t.Fatalf("ResolveFallbackRefs order = %+v", refs)
	}
}

func TestAddFallback_Idempotent(t *testing.T) {
	t.Parallel()
	cfg := aliasConfig()
	cfg, err := models.AddFallback(cfg, "gpt")
	if err != nil {
		t.Fatalf("AddFallback: %v", err)
	}
	cfg, err = models.AddFallback(cfg, "openai/gpt-5.2")
	if err != nil {
		t.Fatalf("AddFallback: %v", err)
	}
	if len(cfg.Agent.Model.Fallbacks) != 1 {
		t.Fatalf("fallbacks = %v, want one entry", cfg.Agent.Model.Fallbacks)
	}
}

func TestRemoveFallback_MissingIsError(t *testing.T) {
	t.Parallel()
	cfg := aliasConfig()
	_, err := models.RemoveFallback(cfg, "opus")
	if err == nil {
		t.Fatal("RemoveFallback on empty chain: err = nil, want error")
	}
	want := "fallback not found: anthropic/claude-opus-4-5"
	if err.Error() != want {
		t.Fatalf("err = %q, want %q", err.Error(), want)
	}
}

func TestRemoveFallback_ByAlias(t *testing.T) {
	t.Parallel()
	cfg := aliasConfig()
	cfg.Agent.Model.Fallbacks = []string{"openai/gpt-5.2"}
	cfg, err := models.RemoveFallback(cfg, "gpt")
	if err != nil {
		t.Fatalf("RemoveFallback: %v", err)
	}
	if len(cfg.Agent.Model.Fallbacks) != 0 {
		t.Fatalf("fallbacks = %v, want empty", cfg.Agent.Model.Fallbacks)
	}
}

func TestSetPrimary_RegistersEntry(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg, err := models.SetPrimary(cfg, "mistral/large")
	if err != nil {
		t.Fatalf("SetPrimary: %v", err)
	}
	if cfg.Agent.Model.Primary != "mistral/large" {
		t.Fatalf("primary = %q, want mistral/large", cfg.Agent.Model.Primary)
	}
	if _, ok := cfg.Agent.Models["mistral/large"]; !ok {
		t.Fatal("models table missing new primary entry")
	}
}
