package router

import (
	"strings"

	"github.com/harborai/harbor/internal/channel"
	"github.com/harborai/harbor/internal/config"
)

// GroupResolution identifies the group a message belongs to. It is supplied
// by the session/group key resolver.
type GroupResolution struct {
	Surface  channel.Surface
	ID       string
	ChatType channel.ChatType
}

// ResolveGroupRequireMention decides whether an explicit mention is required
// before the bot replies in the resolved group. A group-scoped override wins
// over the surface default, which wins over the routing-wide default; with
// nothing configured, groups require a mention.
func ResolveGroupRequireMention(cfg config.Config, msg channel.InboundMessage, group GroupResolution) bool {
	if override := groupOverride(cfg, msg, group); override != nil {
		return *override
	}
	if cfg.Routing.GroupChat.RequireMention != nil {
		return *cfg.Routing.GroupChat.RequireMention
	}
	return true
}

// groupOverride looks up the surface's group-scoped override. Each surface
// contributes only its own key shape here; the precedence logic above is
// shared.
func groupOverride(cfg config.Config, msg channel.InboundMessage, group GroupResolution) *bool {
	switch group.Surface {
	case channel.SurfaceDiscord:
		guild, ok := cfg.Discord.Guilds[strings.TrimSpace(msg.GroupSpace)]
		if !ok {
			return nil
		}
		room := strings.TrimPrefix(strings.TrimSpace(msg.GroupRoom), "#")
		if rule, ok := guild.Channels[room]; ok && rule.RequireMention != nil {
			return rule.RequireMention
		}
		return guild.RequireMention
	case channel.SurfaceSlack:
		if rule, ok := cfg.Slack.Channels[strings.TrimSpace(group.ID)]; ok {
			return rule.RequireMention
		}
	}
	return nil
}

// ResolveGroupAllowed reports whether the group is allowed to talk to the
// bot at all. Only Discord carries a per-channel allow flag; everything else
// defaults to allowed.
func ResolveGroupAllowed(cfg config.Config, msg channel.InboundMessage, group GroupResolution) bool {
	if group.Surface != channel.SurfaceDiscord {
		return true
	}
	guild, ok := cfg.Discord.Guilds[strings.TrimSpace(msg.GroupSpace)]
	if !ok {
		return true
	}
	room := strings.TrimPrefix(strings.TrimSpace(msg.GroupRoom), "#")
	if rule, ok := guild.Channels[room]; ok && rule.Allow != nil {
		return *rule.Allow
	}
	return true
}
