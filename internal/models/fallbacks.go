package models

import (
	"fmt"

	"github.com/harborai/harbor/internal/config"
)

// SetPrimary resolves raw and makes it the primary model, registering a
// models entry for it when missing. The existing fallback chain is kept.
func SetPrimary(cfg config.Config, raw string) (config.Config, error) {
	ref, ok := ResolveRefFromString(raw, cfg.Agent.DefaultProvider, BuildAliasIndex(cfg, cfg.Agent.DefaultProvider))
	if !ok {
		return cfg, fmt.Errorf("unresolvable model: %s", raw)
	}
	cfg.Agent.Models = ensureModelEntry(cfg.Agent.Models, ref.Key())
	cfg.Agent.Model.Primary = ref.Key()
	return cfg, nil
}

// AddFallback appends raw to the fallback chain. Adding a model already in
// the chain (under any spelling that resolves to the same key) is a no-op.
func AddFallback(cfg config.Config, raw string) (config.Config, error) {
	index := BuildAliasIndex(cfg, cfg.Agent.DefaultProvider)
	ref, ok := ResolveRefFromString(raw, cfg.Agent.DefaultProvider, index)
	if !ok {
		return cfg, fmt.Errorf("unresolvable model: %s", raw)
	}
	for _, entry := range cfg.Agent.Model.Fallbacks {
		if existing, ok := ResolveRefFromString(entry, cfg.Agent.DefaultProvider, index); ok && existing.Key() == ref.Key() {
			return cfg, nil
		}
	}
	cfg.Agent.Models = ensureModelEntry(cfg.Agent.Models, ref.Key())
	cfg.Agent.Model.Fallbacks = append(cfg.Agent.Model.Fallbacks, ref.Key())
	return cfg, nil
}

// RemoveFallback removes raw from the fallback chain. Asking to remove a
// model that is not configured is a user-facing error naming the key.
func RemoveFallback(cfg config.Config, raw string) (config.Config, error) {
	index := BuildAliasIndex(cfg, cfg.Agent.DefaultProvider)
	ref, ok := ResolveRefFromString(raw, cfg.Agent.DefaultProvider, index)
	if !ok {
		return cfg, fmt.Errorf("unresolvable model: %s", raw)
	}
	filtered := make([]string, 0, len(cfg.Agent.Model.Fallbacks))
	for _, entry := range cfg.Agent.Model.Fallbacks {
		if existing, ok := ResolveRefFromString(entry, cfg.Agent.DefaultProvider, index); ok && existing.Key() == ref.Key() {
			continue
		}
		filtered = append(filtered, entry)
	}
	if len(filtered) == len(cfg.Agent.Model.Fallbacks) {
		return cfg, fmt.Errorf("fallback not found: %s", ref.Key())
	}
	cfg.Agent.Model.Fallbacks = filtered
	return cfg, nil
}

// ClearFallbacks empties the fallback chain.
func ClearFallbacks(cfg config.Config) config.Config {
	cfg.Agent.Model.Fallbacks = nil
	return cfg
}

func ensureModelEntry(entries map[string]config.ModelConfig, key string) map[string]config.ModelConfig {
	if entries == nil {
		entries = map[string]config.ModelConfig{}
	}
	if _, ok := entries[key]; !ok {
		entries[key] = config.ModelConfig{}
	}
	return entries
}
