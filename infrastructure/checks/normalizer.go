// Package checks implements the deterministic half of the scoring pipeline:
// response normalization and the rule-based mechanical checks that cap axis
// scores independently of the judge model. Everything here is pure and safe
// for concurrent use.
package checks

import (
	"regexp"
	"strings"
)

// Boilerplate removed before any scoring. Prefix patterns are anchored to
// line starts; the self-reference pattern applies anywhere in the text.
var (
	boilerplatePrefixes = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^as an ai( language model)?,?\s*`),
		regexp.MustCompile(`(?im)^i am an ai( assistant)?,?\s*`),
		regexp.MustCompile(`(?im)^as a language model,?\s*`),
		regexp.MustCompile(`(?im)^i'm just an ai,?\s*`),
	}

	selfReferencePattern = regexp.MustCompile(`(?i)\b(i am|i'm) (just )?an? (ai|language model|assistant)\b`)

	excessNewlines = regexp.MustCompile(`\n{3,}`)
	excessSpaces   = regexp.MustCompile(` {2,}`)
)

// NormalizeResponse strips AI boilerplate and whitespace noise from a raw
// model response while preserving its substantive content. The function is
// pure and idempotent: normalizing an already-normalized response returns
// it unchanged.
func NormalizeResponse(response string) string {
	normalized := response

	for _, pattern := range boilerplatePrefixes {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	normalized = selfReferencePattern.ReplaceAllString(normalized, "")

	normalized = excessNewlines.ReplaceAllString(normalized, "\n\n")
	normalized = excessSpaces.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}
