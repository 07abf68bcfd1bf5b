package router

import (
	"regexp"
	"strings"
)

// Directive is the result of scanning a message body for an in-band /model
// override. HasDirective is true whenever the token was present, even with
// no model value after it.
type Directive struct {
	Cleaned      string
	RawModel     string
	RawProfile   string
	HasDirective bool
}

// modelDirectivePattern matches "/model" at start-of-string or after
// whitespace, terminated by end, whitespace, or a colon, optionally followed
// by "segment" or "segment/segment". The value may carry an "@profile"
// suffix which is split off by ExtractModelDirective.
var modelDirectivePattern = regexp.MustCompile(`(?i)(?:^|\s)/model(?:\s*:\s*|\s+|$)([A-Za-z0-9_.:@-]+(?:/[A-Za-z0-9_.:@-]+)?)?`)

// ExtractModelDirective scans body for a /model directive, splits the value
// into model and auth-profile parts, and returns the body with the directive
// removed and whitespace collapsed.
func ExtractModelDirective(body string) Directive {
	if body == "" {
		return Directive{}
	}
	loc := modelDirectivePattern.FindStringSubmatchIndex(body)
	if loc == nil {
		return Directive{Cleaned: strings.TrimSpace(body)}
	}
	raw := ""
	if loc[2] >= 0 {
		raw = strings.TrimSpace(body[loc[2]:loc[3]])
	}
	rawModel := raw
	rawProfile := ""
	if strings.Contains(raw, "@") {
		parts := strings.Split(raw, "@")
		rawModel = strings.TrimSpace(parts[0])
		rawProfile = strings.TrimSpace(strings.Join(parts[1:], "@"))
	}
	cleaned := collapseWhitespace(body[:loc[0]] + " " + body[loc[1]:])
	return Directive{
		Cleaned:      cleaned,
		RawModel:     rawModel,
		RawProfile:   rawProfile,
		HasDirective: true,
	}
}
