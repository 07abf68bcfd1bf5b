// Package router decides whether and how the bot replies to an inbound
// message: mention detection, directive extraction, sender authorization,
// group policy, and model resolution.
package router

import (
	"regexp"
	"strings"

	"github.com/harborai/harbor/internal/channel"
)

// currentMessageMarker separates quoted history from the current turn in
// batched group prompts. Routing decisions only look at what follows it.
const currentMessageMarker = "[Current message - respond to this]"

var (
	zeroWidthPattern     = regexp.MustCompile(`[\x{200B}-\x{200F}\x{202A}-\x{202E}\x{2060}-\x{206F}]`)
	bracketLabelPattern  = regexp.MustCompile(`\[[^\]]+\]\s*`)
	senderPrefixPattern  = regexp.MustCompile(`(?m)^[ \t]*[A-Za-z0-9+()\-_. ]+:\s*`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
	numericMention       = regexp.MustCompile(`@[0-9+]{5,}`)
	discordMentionFormat = regexp.MustCompile(`<@!?\d+>`)
)

// StripStructuralPrefixes removes history wrappers, bracketed labels, and
// line-leading "Name:" sender prefixes so detection operates on the current
// turn only.
func StripStructuralPrefixes(text string) string {
	if idx := strings.Index(text, currentMessageMarker); idx >= 0 {
		text = text[idx+len(currentMessageMarker):]
	}
	text = bracketLabelPattern.ReplaceAllString(text, "")
	text = senderPrefixPattern.ReplaceAllString(text, "")
	return collapseWhitespace(text)
}

// NormalizeMentionText lowercases text and strips zero-width and
// bidi-control code points so invisible characters cannot defeat mention
// matching.
func NormalizeMentionText(text string) string {
	return strings.ToLower(zeroWidthPattern.ReplaceAllString(text, ""))
}

// MatchesMentionPatterns reports whether the normalized text matches any of
// the compiled mention regexes.
func MatchesMentionPatterns(text string, mentionRegexes []*regexp.Regexp) bool {
	if len(mentionRegexes) == 0 {
		return false
	}
	cleaned := NormalizeMentionText(text)
	if cleaned == "" {
		return false
	}
	for _, re := range mentionRegexes {
		if re.MatchString(cleaned) {
			return true
		}
	}
	return false
}

// StripMentions removes configured mention patterns, the bot's own address
// (bare and @-prefixed), generic @digits mentions, and Discord-style <@id>
// mentions, then collapses whitespace. The result is the clean body handed
// to the reply engine. Applying it to its own output is a no-op.
func StripMentions(text string, msg channel.InboundMessage, mentionRegexes []*regexp.Regexp) string {
	result := text
	for _, re := range mentionRegexes {
		result = re.ReplaceAllString(result, " ")
	}
	if self := strings.TrimPrefix(msg.To, "whatsapp:"); self != "" {
		esc := regexp.QuoteMeta(self)
		if re, err := regexp.Compile("(?i)@?" + esc); err == nil {
			result = re.ReplaceAllString(result, " ")
		}
	}
	result = numericMention.ReplaceAllString(result, " ")
	result = discordMentionFormat.ReplaceAllString(result, " ")
	return collapseWhitespace(result)
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
