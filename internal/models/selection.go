package models

import (
	"sort"

	"github.com/harborai/harbor/internal/config"
)

// ResolveConfiguredRef resolves agent.model into a canonical reference. The
// primary may be an alias requiring a secondary lookup against agent.models.
// It never fails: when nothing resolves, the configured defaults win.
func ResolveConfiguredRef(cfg config.Config) Ref {
	defaults := Ref{
		Provider: cfg.Agent.DefaultProvider,
		Model:    cfg.Agent.DefaultModel,
	}
	index := BuildAliasIndex(cfg, cfg.Agent.DefaultProvider)
	if ref, ok := ResolveRefFromString(cfg.Agent.Model.Primary, cfg.Agent.DefaultProvider, index); ok {
		return ref
	}
	return defaults
}

// ResolveFallbackRefs resolves the configured fallback chain in order,
// dropping entries that resolve to nothing and de-duplicating by key.
func ResolveFallbackRefs(cfg config.Config) []Ref {
	index := BuildAliasIndex(cfg, cfg.Agent.DefaultProvider)
	seen := map[string]bool{}
	refs := make([]Ref, 0, len(cfg.Agent.Model.Fallbacks))
	for _, entry := range cfg.Agent.Model.Fallbacks {
		ref, ok := ResolveRefFromString(entry, cfg.Agent.DefaultProvider, index)
		if !ok || seen[ref.Key()] {
			continue
		}
		seen[ref.Key()] = true
		refs = append(refs, ref)
	}
	return refs
}

// ConfiguredKeys returns the keys of the agent.models table in sorted
// order.
func ConfiguredKeys(cfg config.Config) []string {
	keys := make([]string, 0, len(cfg.Agent.Models))
	for key := range cfg.Agent.Models {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ResolveImageRef resolves agent.image_model the same way as agent.model,
// falling back to the primary selection when unset.
func ResolveImageRef(cfg config.Config) Ref {
	index := BuildAliasIndex(cfg, cfg.Agent.DefaultProvider)
	if ref, ok := ResolveRefFromString(cfg.Agent.ImageModel.Primary, cfg.Agent.DefaultProvider, index); ok {
		return ref
	}
	return ResolveConfiguredRef(cfg)
}
