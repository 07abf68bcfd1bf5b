// Package models resolves free-form model strings, aliases, and fallback
// chains into canonical (provider, model) references.
package models

import "strings"

// Ref is a canonical resolved model identity.
type Ref struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Key returns the "provider/model" form of the reference.
func (r Ref) Key() string {
	return r.Provider + "/" + r.Model
}

// IsZero reports whether the reference is unresolved.
func (r Ref) IsZero() bool {
	return r.Provider == "" && r.Model == ""
}

// ParseRef parses "provider/model" (split on the first slash) or a bare
// model id, defaulting the provider. Empty input resolves to nothing.
func ParseRef(raw, defaultProvider string) (Ref, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Ref{}, false
	}
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		provider := strings.TrimSpace(trimmed[:idx])
		model := strings.TrimSpace(trimmed[idx+1:])
		if provider == "" || model == "" {
			return Ref{}, false
		}
		return Ref{Provider: provider, Model: model}, true
	}
	if defaultProvider == "" {
		return Ref{}, false
	}
	return Ref{Provider: defaultProvider, Model: trimmed}, true
}
