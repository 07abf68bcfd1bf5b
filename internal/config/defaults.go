package config

import "strings"

// DefaultAliasRules returns the built-in alias derivation table. The rules
// are data so deployments can replace them under agent.alias_rules when
// providers rename model families.
func DefaultAliasRules() []AliasRule {
	return []AliasRule{
		{Contains: []string{"opus"}, Alias: "opus"},
		{Contains: []string{"sonnet"}, Alias: "sonnet"},
		{Contains: []string{"haiku"}, Alias: "haiku"},
		{Contains: []string{"gemini", "flash"}, Alias: "gemini-flash"},
		{Contains: []string{"gemini"}, Alias: "gemini"},
		{Contains: []string{"gpt"}, Alias: "gpt"},
	}
}

// ApplyModelAliasDefaults fills in a derived alias for every agent.models
// entry that has no alias field at all. An explicit alias — including the
// empty string — is a permanent opt-out and is never replaced.
func ApplyModelAliasDefaults(cfg Config) Config {
	if len(cfg.Agent.Models) == 0 {
		return cfg
	}
	rules := cfg.Agent.AliasRules
	if len(rules) == 0 {
		rules = DefaultAliasRules()
	}
	next := make(map[string]ModelConfig, len(cfg.Agent.Models))
	for key, entry := range cfg.Agent.Models {
		if entry.Alias == nil {
			if alias := deriveAlias(key, rules); alias != "" {
				value := alias
				entry.Alias = &value
			}
		}
		next[key] = entry
	}
	cfg.Agent.Models = next
	return cfg
}

func deriveAlias(modelKey string, rules []AliasRule) string {
	id := strings.ToLower(modelKey)
	if idx := strings.Index(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	for _, rule := range rules {
		if len(rule.Contains) == 0 || rule.Alias == "" {
			continue
		}
		matched := true
		for _, needle := range rule.Contains {
			if !strings.Contains(id, strings.ToLower(needle)) {
				matched = false
				break
			}
		}
		if matched {
			return rule.Alias
		}
	}
	return ""
}
