// Package config loads and exposes gateway configuration (TOML).
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath      = "config.toml"
	DefaultGatewayPort     = 8787
	DefaultBindMode        = "auto"
	DefaultEngineURL       = "http://127.0.0.1:8791"
	DefaultTypingInterval  = 6
	DefaultTypingTTL       = 120
	DefaultAuthStorePath   = "auth-profiles.json"
	DefaultProvider        = "anthropic"
	DefaultModel           = "claude-opus-4-5"
	DefaultOutboundPerSec  = 1.0
	DefaultOutboundBurst   = 3
	DefaultInboundWorkers  = 4
	DefaultInboundQueueCap = 256
)

// Config is the root gateway configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Agent    AgentConfig    `toml:"agent"`
	Auth     AuthConfig     `toml:"auth"`
	Routing  RoutingConfig  `toml:"routing"`
	Typing   TypingConfig   `toml:"typing"`
	History  HistoryConfig  `toml:"history"`
	WhatsApp WhatsAppConfig `toml:"whatsapp"`
	Telegram TelegramConfig `toml:"telegram"`
	Discord  DiscordConfig  `toml:"discord"`
	Slack    SlackConfig    `toml:"slack"`
	Web      WebConfig      `toml:"web"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// GatewayConfig holds the listen mode/port and the reply-engine endpoint.
// Mode is one of loopback, lan, tailnet, auto (see the bind package).
type GatewayConfig struct {
	Mode                 string `toml:"mode"`
	Port                 int    `toml:"port"`
	TailnetIP            string `toml:"tailnet_ip"`
	JWTSecret            string `toml:"jwt_secret"`
	EngineURL            string `toml:"engine_url"`
	EngineTimeoutSeconds int    `toml:"engine_timeout_seconds"`
}

// AgentConfig holds model selection, the per-model table, and alias rules.
type AgentConfig struct {
	DefaultProvider string                 `toml:"default_provider"`
	DefaultModel    string                 `toml:"default_model"`
	Model           ModelSelection         `toml:"model"`
	ImageModel      ModelSelection         `toml:"image_model"`
	Models          map[string]ModelConfig `toml:"models"`
	AliasRules      []AliasRule            `toml:"alias_rules"`
}

// ModelConfig is the per-model entry under agent.models.<provider/model>.
// Alias distinguishes unset (nil) from an explicit empty-string opt-out.
type ModelConfig struct {
	Alias *string `toml:"alias"`
}

// AliasRule derives a default alias for model ids whose id contains every
// listed substring. The table is configuration data, not code.
type AliasRule struct {
	Contains []string `toml:"contains"`
	Alias    string   `toml:"alias"`
}

// ModelSelection is the canonical form of agent.model. The TOML value may be
// a legacy bare string ("provider/model") or a table {primary, fallbacks};
// both decode into this one struct so nothing downstream re-inspects shape.
type ModelSelection struct {
	Primary   string   `toml:"primary"`
	Fallbacks []string `toml:"fallbacks"`
}

// UnmarshalTOML accepts either a bare string or a {primary, fallbacks} table.
func (s *ModelSelection) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		s.Primary = v
		s.Fallbacks = nil
		return nil
	case map[string]any:
		if raw, ok := v["primary"].(string); ok {
			s.Primary = raw
		}
		s.Fallbacks = nil
		if raw, ok := v["fallbacks"].([]any); ok {
			for _, entry := range raw {
				if str, ok := entry.(string); ok {
					s.Fallbacks = append(s.Fallbacks, str)
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("agent.model: unsupported shape %T", value)
	}
}

// IsZero reports whether no model selection is configured.
func (s ModelSelection) IsZero() bool {
	return s.Primary == "" && len(s.Fallbacks) == 0
}

// AuthConfig holds the profile store path, per-provider explicit order, and
// declared profiles.
type AuthConfig struct {
	StorePath string                   `toml:"store_path"`
	Order     map[string][]string      `toml:"order"`
	Profiles  map[string]ProfileConfig `toml:"profiles"`
}

// ProfileConfig declares a credential profile (provider plus mode).
type ProfileConfig struct {
	Provider string `toml:"provider"`
	Mode     string `toml:"mode"`
}

// RoutingConfig holds routing-wide group chat behavior.
type RoutingConfig struct {
	GroupChat GroupChatConfig `toml:"group_chat"`
}

// GroupChatConfig holds mention patterns and the routing-wide mention gate.
type GroupChatConfig struct {
	MentionPatterns []string `toml:"mention_patterns"`
	RequireMention  *bool    `toml:"require_mention"`
}

// TypingConfig bounds the typing presence indicator.
type TypingConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
	TTLSeconds      int `toml:"ttl_seconds"`
}

// HistoryConfig holds the sqlite message journal path; empty disables it.
type HistoryConfig struct {
	Path string `toml:"path"`
}

// WhatsAppConfig holds the allow-list and web bridge credentials.
type WhatsAppConfig struct {
	AllowFrom   []string `toml:"allow_from"`
	BridgeToken string   `toml:"bridge_token"`
}

// TelegramConfig holds the bot token.
type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
}

// DiscordConfig holds the bot token and per-guild routing overrides.
type DiscordConfig struct {
	BotToken string                 `toml:"bot_token"`
	Guilds   map[string]GuildConfig `toml:"guilds"`
}

// GuildConfig is the per-guild override with per-channel rules keyed by
// channel name.
type GuildConfig struct {
	RequireMention *bool                  `toml:"require_mention"`
	Channels       map[string]ChannelRule `toml:"channels"`
}

// SlackConfig holds tokens and per-channel routing overrides keyed by
// channel id.
type SlackConfig struct {
	BotToken string                 `toml:"bot_token"`
	AppToken string                 `toml:"app_token"`
	Channels map[string]ChannelRule `toml:"channels"`
}

// ChannelRule is a group-scoped routing override.
type ChannelRule struct {
	Allow          *bool `toml:"allow"`
	RequireMention *bool `toml:"require_mention"`
}

// WebConfig holds the generic web surface switch.
type WebConfig struct {
	Enabled bool `toml:"enabled"`
}

// Load reads and parses the TOML config file at path and applies default
// values for missing fields. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return applyDefaults(cfg), nil
}

// Save writes cfg as TOML to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		path = DefaultConfigPath
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return applyDefaults(Config{})
}

func applyDefaults(cfg Config) Config {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Gateway.Mode == "" {
		cfg.Gateway.Mode = DefaultBindMode
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultGatewayPort
	}
	if cfg.Gateway.EngineURL == "" {
		cfg.Gateway.EngineURL = DefaultEngineURL
	}
	if cfg.Gateway.EngineTimeoutSeconds <= 0 {
		cfg.Gateway.EngineTimeoutSeconds = 120
	}
	if cfg.Agent.DefaultProvider == "" {
		cfg.Agent.DefaultProvider = DefaultProvider
	}
	if cfg.Agent.DefaultModel == "" {
		cfg.Agent.DefaultModel = DefaultModel
	}
	if len(cfg.Agent.AliasRules) == 0 {
		cfg.Agent.AliasRules = DefaultAliasRules()
	}
	if cfg.Auth.StorePath == "" {
		cfg.Auth.StorePath = DefaultAuthStorePath
	}
	if cfg.Typing.IntervalSeconds <= 0 {
		cfg.Typing.IntervalSeconds = DefaultTypingInterval
	}
	if cfg.Typing.TTLSeconds <= 0 {
		cfg.Typing.TTLSeconds = DefaultTypingTTL
	}
	return ApplyModelAliasDefaults(cfg)
}
