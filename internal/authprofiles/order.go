package authprofiles

import "github.com/harborai/harbor/internal/config"

// ResolveOrder computes the deterministic order in which a provider's
// profiles are tried. Priority, highest first: the caller's preferred
// profile when it exists in the store, then the provider's recorded
// last-good profile, then the configured explicit order, then oauth-typed
// profiles ahead of api-key ones with insertion order preserved within each
// type. Every profile for the provider appears exactly once.
func ResolveOrder(cfg config.Config, store *Store, provider, preferredProfile string) []string {
	if store == nil {
		return nil
	}
	all := store.KeysForProvider(provider)
	if len(all) == 0 {
		return nil
	}

	var base []string
	if configured := cfg.Auth.Order[provider]; len(configured) > 0 {
		base = make([]string, 0, len(all))
		for _, key := range configured {
			if containsKey(all, key) && !containsKey(base, key) {
				base = append(base, key)
			}
		}
		for _, key := range all {
			if !containsKey(base, key) {
				base = append(base, key)
			}
		}
	} else {
		base = make([]string, 0, len(all))
		for _, key := range all {
			if store.Profiles[key].Type == TypeOAuth {
				base = append(base, key)
			}
		}
		for _, key := range all {
			if store.Profiles[key].Type != TypeOAuth {
				base = append(base, key)
			}
		}
	}

	base = promote(base, store.LastGoodFor(provider))
	base = promote(base, preferredProfile)
	return base
}

// promote moves key to the front of order when present; unknown keys are
// ignored rather than inserted.
func promote(order []string, key string) []string {
	if key == "" || !containsKey(order, key) {
		return order
	}
	next := make([]string, 0, len(order))
	next = append(next, key)
	for _, existing := range order {
		if existing != key {
			next = append(next, existing)
		}
	}
	return next
}

func containsKey(keys []string, key string) bool {
	for _, existing := range keys {
		if existing == key {
			return true
		}
	}
	return false
}
