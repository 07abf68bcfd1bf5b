// Package authprofiles maintains named credential profiles per provider and
// computes the deterministic order in which they are tried.
package authprofiles

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// StoreVersion is the persisted schema version.
const StoreVersion = 1

// ProfileType distinguishes credential variants.
type ProfileType string

const (
	TypeAPIKey ProfileType = "api_key"
	TypeOAuth  ProfileType = "oauth"
)

// Profile is one named credential bound to a provider.
type Profile struct {
	Type     ProfileType `json:"type"`
	Provider string      `json:"provider"`
	Key      string      `json:"key,omitempty"`
	Access   string      `json:"access,omitempty"`
	Refresh  string      `json:"refresh,omitempty"`
	Expires  int64       `json:"expires,omitempty"` // epoch ms
}

// OAuthToken converts an oauth profile into the standard token form used by
// the credential retry loop.
func (p Profile) OAuthToken() *oauth2.Token {
	if p.Type != TypeOAuth {
		return nil
	}
	token := &oauth2.Token{
		AccessToken:  p.Access,
		RefreshToken: p.Refresh,
	}
	if p.Expires > 0 {
		token.Expiry = time.UnixMilli(p.Expires)
	}
	return token
}

// Expired reports whether an oauth profile's access token has expired. API
// key profiles never expire.
func (p Profile) Expired(now time.Time) bool {
	if p.Type != TypeOAuth || p.Expires <= 0 {
		return false
	}
	return now.After(time.UnixMilli(p.Expires))
}

// Store is the versioned persisted profile store. Profile keys take the form
// "<provider>:<name>"; insertion order is preserved across load and save
// because it feeds the default preference order.
type Store struct {
	Version  int
	Profiles map[string]Profile
	LastGood map[string]string

	order []string
}

// NewStore returns an empty store at the current schema version.
func NewStore() *Store {
	return &Store{
		Version:  StoreVersion,
		Profiles: map[string]Profile{},
		LastGood: map[string]string{},
	}
}

// ParseKey splits a "<provider>:<name>" profile key.
func ParseKey(key string) (provider, name string, ok bool) {
	trimmed := strings.TrimSpace(key)
	idx := strings.Index(trimmed, ":")
	if idx <= 0 || idx == len(trimmed)-1 {
		return "", "", false
	}
	return trimmed[:idx], trimmed[idx+1:], true
}

// Set adds or replaces a profile, enforcing that the provider embedded in
// the key matches the profile's own provider field.
func (s *Store) Set(key string, profile Profile) error {
	provider, _, ok := ParseKey(key)
	if !ok {
		return fmt.Errorf("invalid profile key: %s", key)
	}
	if profile.Provider != provider {
		return fmt.Errorf("profile key %s does not match provider %s", key, profile.Provider)
	}
	if s.Profiles == nil {
		s.Profiles = map[string]Profile{}
	}
	if _, exists := s.Profiles[key]; !exists {
		s.order = append(s.order, key)
	}
	s.Profiles[key] = profile
	return nil
}

// Remove deletes a profile and any last-good reference to it.
func (s *Store) Remove(key string) {
	if _, exists := s.Profiles[key]; !exists {
		return
	}
	delete(s.Profiles, key)
	for i, existing := range s.order {
		if existing == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for provider, lastGood := range s.LastGood {
		if lastGood == key {
			delete(s.LastGood, provider)
		}
	}
}

// Get returns the profile for key.
func (s *Store) Get(key string) (Profile, bool) {
	profile, ok := s.Profiles[key]
	return profile, ok
}

// Keys returns all profile keys in insertion order.
func (s *Store) Keys() []string {
	return append([]string(nil), s.order...)
}

// KeysForProvider returns the provider's profile keys in insertion order.
func (s *Store) KeysForProvider(provider string) []string {
	keys := make([]string, 0, len(s.order))
	for _, key := range s.order {
		if s.Profiles[key].Provider == provider {
			keys = append(keys, key)
		}
	}
	return keys
}

// SetLastGood records the most recently successful profile for a provider.
func (s *Store) SetLastGood(provider, key string) {
	if s.LastGood == nil {
		s.LastGood = map[string]string{}
	}
	s.LastGood[provider] = key
}

// LastGoodFor returns the provider's recorded last-good profile key.
func (s *Store) LastGoodFor(provider string) string {
	return s.LastGood[provider]
}

type storeJSON struct {
	Version  int                `json:"version"`
	Profiles json.RawMessage    `json:"profiles"`
	LastGood map[string]string  `json:"lastGood,omitempty"`
}

// UnmarshalJSON decodes the store while capturing the profile map's key
// order from the document, which encoding/json would otherwise discard.
func (s *Store) UnmarshalJSON(data []byte) error {
	var raw storeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Version = raw.Version
	s.LastGood = raw.LastGood
	s.Profiles = map[string]Profile{}
	s.order = nil
	if len(raw.Profiles) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw.Profiles))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("profiles: expected object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("profiles: expected string key")
		}
		var profile Profile
		if err := dec.Decode(&profile); err != nil {
			return fmt.Errorf("profile %s: %w", key, err)
		}
		provider, _, valid := ParseKey(key)
		if !valid || provider != profile.Provider {
			return fmt.Errorf("profile %s: provider mismatch", key)
		}
		s.Profiles[key] = profile
		s.order = append(s.order, key)
	}
	return nil
}

// MarshalJSON encodes the store with profiles in insertion order.
func (s *Store) MarshalJSON() ([]byte, error) {
	var profiles bytes.Buffer
	profiles.WriteByte('{')
	for i, key := range s.order {
		if i > 0 {
			profiles.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		encodedProfile, err := json.Marshal(s.Profiles[key])
		if err != nil {
			return nil, err
		}
		profiles.Write(encodedKey)
		profiles.WriteByte(':')
		profiles.Write(encodedProfile)
	}
	profiles.WriteByte('}')
	return json.Marshal(storeJSON{
		Version:  s.Version,
		Profiles: profiles.Bytes(),
		LastGood: s.LastGood,
	})
}

// Load reads the profile store at path. A missing file yields an empty
// store; a corrupt or inconsistent store is an error.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStore(), nil
		}
		return nil, fmt.Errorf("read profile store: %w", err)
	}
	store := NewStore()
	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("parse profile store: %w", err)
	}
	if store.Version == 0 {
		store.Version = StoreVersion
	}
	if store.Version > StoreVersion {
		return nil, fmt.Errorf("profile store version %d not supported", store.Version)
	}
	return store, nil
}

// Save writes the store atomically with owner-only permissions.
func Save(path string, store *Store) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile store: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write profile store: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace profile store: %w", err)
	}
	return nil
}
