package models

import (
	"sort"
	"strings"

	"github.com/harborai/harbor/internal/config"
)

// AliasIndex maps case-insensitive alias strings to model references, plus
// the reverse mapping from model key to its aliases. It is rebuilt from
// configuration per resolution call and never persisted.
type AliasIndex struct {
	byAlias map[string]Ref
	byKey   map[string][]string
}

// BuildAliasIndex scans the configured model entries for alias fields. An
// explicit empty-string alias disables any derived alias for that model and
// contributes nothing here. Entries are visited in sorted key order so
// alias collisions resolve deterministically (first key wins).
func BuildAliasIndex(cfg config.Config, defaultProvider string) AliasIndex {
	index := AliasIndex{
		byAlias: map[string]Ref{},
		byKey:   map[string][]string{},
	}
	keys := make([]string, 0, len(cfg.Agent.Models))
	for key := range cfg.Agent.Models {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entry := cfg.Agent.Models[key]
		if entry.Alias == nil {
			continue
		}
		alias := strings.TrimSpace(*entry.Alias)
		if alias == "" {
			continue
		}
		ref, ok := ParseRef(key, defaultProvider)
		if !ok {
			continue
		}
		lowered := strings.ToLower(alias)
		if _, exists := index.byAlias[lowered]; !exists {
			index.byAlias[lowered] = ref
		}
		index.byKey[ref.Key()] = append(index.byKey[ref.Key()], alias)
	}
	return index
}

// Resolve looks up an alias case-insensitively.
func (idx AliasIndex) Resolve(alias string) (Ref, bool) {
	ref, ok := idx.byAlias[strings.ToLower(strings.TrimSpace(alias))]
	return ref, ok
}

// AliasesFor returns the aliases configured for a model key.
func (idx AliasIndex) AliasesFor(key string) []string {
	return idx.byKey[key]
}

// ResolveRefFromString resolves raw against the alias index first, then as a
// "provider/model" or bare model id. It returns false for empty or
// unresolvable input.
func ResolveRefFromString(raw, defaultProvider string, idx AliasIndex) (Ref, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Ref{}, false
	}
	if ref, ok := idx.Resolve(trimmed); ok {
		return ref, true
	}
	return ParseRef(trimmed, defaultProvider)
}
