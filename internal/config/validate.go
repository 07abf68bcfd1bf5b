package config

import (
	"log/slog"
	"regexp"
	"strings"
)

// PatternResult is the outcome of compiling one configured mention pattern.
// Invalid patterns are kept so they can be reported once at startup instead
// of being silently dropped per message.
type PatternResult struct {
	Pattern string
	Regexp  *regexp.Regexp
	Err     error
}

// CompileMentionPatterns compiles every configured mention pattern
// case-insensitively. It never fails; each entry records its own error.
func CompileMentionPatterns(patterns []string) []PatternResult {
	results := make([]PatternResult, 0, len(patterns))
	for _, pattern := range patterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + trimmed)
		results = append(results, PatternResult{Pattern: trimmed, Regexp: re, Err: err})
	}
	return results
}

// ValidMentionRegexes returns the compiled regexes from results, skipping
// invalid entries.
func ValidMentionRegexes(results []PatternResult) []*regexp.Regexp {
	regexes := make([]*regexp.Regexp, 0, len(results))
	for _, result := range results {
		if result.Err == nil && result.Regexp != nil {
			regexes = append(regexes, result.Regexp)
		}
	}
	return regexes
}

// ReportInvalidPatterns logs each invalid mention pattern once.
func ReportInvalidPatterns(log *slog.Logger, results []PatternResult) {
	if log == nil {
		log = slog.Default()
	}
	for _, result := range results {
		if result.Err != nil {
			log.Warn("invalid mention pattern ignored",
				slog.String("pattern", result.Pattern),
				slog.Any("error", result.Err),
			)
		}
	}
}
