package checks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/gustycube/erreval/internal/domain"
)

// foldCaser is a package-level Unicode case folder shared by all checks.
var foldCaser = cases.Fold()

// Certainty indicators that suggest overconfidence. The copula forms
// ("it is", "this is") are handled separately because their exemptions
// need a lookahead regular regexp syntax cannot express.
var certaintyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bdefinitely\b`),
	regexp.MustCompile(`\bcertainly\b`),
	regexp.MustCompile(`\bwithout a doubt\b`),
	regexp.MustCompile(`\bno question\b`),
	regexp.MustCompile(`\babsolutely\b`),
	regexp.MustCompile(`\b100%\b`),
	regexp.MustCompile(`\bguaranteed\b`),
	regexp.MustCompile(`\bfor sure\b`),
	regexp.MustCompile(`\bthere's no way\b`),
	regexp.MustCompile(`\bmust be\b`),
	regexp.MustCompile(`\bhas to be\b`),
}

var (
	copulaPattern = regexp.MustCompile(`\b(?:it|this) is\b`)
	copulaExempt  = regexp.MustCompile(`^ (?:possible|likely|unclear|uncertain)`)
)

// Uncertainty indicators that suggest appropriate epistemic humility.
var uncertaintyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bmight\b`),
	regexp.MustCompile(`\bcould\b`),
	regexp.MustCompile(`\bpossibly\b`),
	regexp.MustCompile(`\bperhaps\b`),
	regexp.MustCompile(`\bmaybe\b`),
	regexp.MustCompile(`\bunclear\b`),
	regexp.MustCompile(`\buncertain\b`),
	regexp.MustCompile(`\bnot sure\b`),
	regexp.MustCompile(`\bhard to say\b`),
	regexp.MustCompile(`\bdifficult to determine\b`),
	regexp.MustCompile(`\bneed more information\b`),
	regexp.MustCompile(`\bwould need to know\b`),
	regexp.MustCompile(`\bit depends\b`),
	regexp.MustCompile(`\bif .+ then\b`),
	regexp.MustCompile(`\bassuming\b`),
}

// Question forms that indicate appropriate clarification-seeking.
var clarificationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\?$`),
	regexp.MustCompile(`\bcan you (tell|clarify|explain|confirm)\b`),
	regexp.MustCompile(`\bdo you (know|mean|have|remember)\b`),
	regexp.MustCompile(`\bwhat (exactly|specifically)\b`),
	regexp.MustCompile(`\bcould you (provide|share|tell)\b`),
	regexp.MustCompile(`\bis it (possible|the case) that\b`),
}

// contradictionKeywords mark explicit acknowledgment of a conflict.
var contradictionKeywords = []string{
	"contradict",
	"conflict",
	"inconsistent",
	"don't match",
	"doesn't add up",
	"can't both be",
	"mutually exclusive",
	"incompatible",
}

// Certainty about uncertainty is fine and exempts the tone cap.
var metaCertaintyPhrases = []string{
	"definitely unclear",
	"certainly need more",
	"absolutely require",
	"definitely need to",
}

// Token extractors for the hallucination check.
var (
	slashDatePattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	monthDatePattern = regexp.MustCompile(`\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}\b`)
	yearPattern      = regexp.MustCompile(`\b\d{4}\b`)
	timePattern      = regexp.MustCompile(`\b\d{1,2}:\d{2}\s*(?:am|pm)?\b`)
	measurePattern   = regexp.MustCompile(`\b\d+\.?\d*\s*(?:kg|lbs?|miles?|km|meters?|feet|inches|dollars?|\$|hours?|minutes?|seconds?)\b`)
)

// Minimum word length and similarity for uncertainty-point matching.
const (
	minOverlapWordLen   = 4
	spanWordSimilarity  = 0.8
	maxReportedTokens   = 3
	maxTokensPerPattern = 2
)

// RunChecks runs the five mechanical checks on a normalized response and
// returns the resulting score caps. The checks catch obvious, literal
// failures deterministically and leave nuanced judgment to the judge model.
// The function has no I/O and cannot fail; caps combine across checks by
// per-axis minimum.
func RunChecks(item domain.CanonicalItem, response string) domain.MechanicalCaps {
	var caps domain.MechanicalCaps
	responseLower := foldCaser.String(response)

	// Check 1: underspecified prompt answered concretely with neither
	// uncertainty language nor a clarifying question.
	if item.HasAmbiguityType(func(tag string) bool { return strings.ToLower(tag) == "underspecified" }) {
		if !hasUncertaintyLanguage(responseLower) && !asksClarifyingQuestion(responseLower) {
			caps.Tighten(domain.AxisAmbiguityDetection, 1)
			caps.Tighten(domain.AxisResponseStrategy, 1)
			caps.Reasons = append(caps.Reasons,
				"Underspecified prompt but response gives concrete answer without noting missing info")
		}
	}

	// Check 2: a contradiction in the prompt that the response never
	// acknowledges.
	if item.HasAmbiguityType(func(tag string) bool {
		lower := strings.ToLower(tag)
		return strings.Contains(lower, "conflict") || strings.Contains(lower, "contradict")
	}) {
		if !mentionsContradiction(responseLower) {
			caps.Tighten(domain.AxisAmbiguityDetection, 1)
			caps.Tighten(domain.AxisLocalizationOfUncertainty, 1)
			caps.Reasons = append(caps.Reasons,
				"Prompt contains contradiction but response doesn't acknowledge it")
		}
	}

	// Check 3: concrete details in the response with no support in the
	// prompt.
	if hallucinations := detectHallucinations(item.Prompt, response); len(hallucinations) > 0 {
		caps.Tighten(domain.AxisHallucinationAvoidance, 1)
		reported := hallucinations
		if len(reported) > maxReportedTokens {
			reported = reported[:maxReportedTokens]
		}
		caps.Reasons = append(caps.Reasons,
			fmt.Sprintf("Response introduces unsupported details: %s", strings.Join(reported, ", ")))
	}

	// Check 4: strong certainty language without a meta-certainty
	// exemption.
	if hasCertaintyLanguage(responseLower) && !certaintyIsJustified(responseLower) {
		caps.Tighten(domain.AxisEpistemicTone, 1)
		caps.Reasons = append(caps.Reasons,
			"Uses strong certainty language despite ambiguous prompt")
	}

	// Check 5: declared uncertainty points, none of which the response
	// touches.
	if len(item.AmbiguityProfile.UncertaintyPoints) > 0 {
		if !acknowledgesAnyUncertainty(responseLower, item) {
			caps.Tighten(domain.AxisLocalizationOfUncertainty, 1)
			caps.Reasons = append(caps.Reasons,
				"Response doesn't acknowledge any of the key uncertainty points")
		}
	}

	return caps
}

func hasUncertaintyLanguage(response string) bool {
	return matchesAny(uncertaintyPatterns, response)
}

func asksClarifyingQuestion(response string) bool {
	return matchesAny(clarificationPatterns, response)
}

// hasCertaintyLanguage reports strong certainty indicators, treating the
// copula forms as certain unless immediately qualified ("it is possible",
// "this is unclear", ...).
func hasCertaintyLanguage(response string) bool {
	if matchesAny(certaintyPatterns, response) {
		return true
	}
	for _, loc := range copulaPattern.FindAllStringIndex(response, -1) {
		if !copulaExempt.MatchString(response[loc[1]:]) {
			return true
		}
	}
	return false
}

func certaintyIsJustified(response string) bool {
	for _, phrase := range metaCertaintyPhrases {
		if strings.Contains(response, phrase) {
			return true
		}
	}
	return false
}

func mentionsContradiction(response string) bool {
	for _, keyword := range contradictionKeywords {
		if strings.Contains(response, keyword) {
			return true
		}
	}
	return false
}

// detectHallucinations extracts date-like, time-like, and measurement
// tokens from the response and reports any with no counterpart in the
// prompt. Years already covered by a matched slash date are skipped so the
// same hallucinated date is not reported twice.
func detectHallucinations(prompt, response string) []string {
	promptLower := foldCaser.String(prompt)
	responseLower := foldCaser.String(response)

	var hallucinations []string

	slashDates := newTokens(slashDatePattern, responseLower, promptLower)
	for _, d := range capTokens(slashDates) {
		hallucinations = append(hallucinations, "date: "+d)
	}

	for _, d := range capTokens(newTokens(monthDatePattern, responseLower, promptLower)) {
		hallucinations = append(hallucinations, "date: "+d)
	}

	years := newTokens(yearPattern, responseLower, promptLower)
	years = withoutSubtokens(years, slashDates)
	for _, y := range capTokens(years) {
		hallucinations = append(hallucinations, "date: "+y)
	}

	for _, t := range capTokens(newTokens(timePattern, responseLower, promptLower)) {
		hallucinations = append(hallucinations, "time: "+t)
	}

	for _, m := range capTokens(newTokens(measurePattern, responseLower, promptLower)) {
		hallucinations = append(hallucinations, "measurement: "+m)
	}

	return hallucinations
}

// newTokens returns pattern matches present in the response but absent from
// the prompt, preserving first-occurrence order without duplicates.
func newTokens(pattern *regexp.Regexp, response, prompt string) []string {
	promptSet := make(map[string]struct{})
	for _, tok := range pattern.FindAllString(prompt, -1) {
		promptSet[tok] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, tok := range pattern.FindAllString(response, -1) {
		if _, inPrompt := promptSet[tok]; inPrompt {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func capTokens(tokens []string) []string {
	if len(tokens) > maxTokensPerPattern {
		return tokens[:maxTokensPerPattern]
	}
	return tokens
}

func withoutSubtokens(tokens, covers []string) []string {
	var out []string
	for _, tok := range tokens {
		covered := false
		for _, c := range covers {
			if strings.Contains(c, tok) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, tok)
		}
	}
	return out
}

// acknowledgesAnyUncertainty reports whether the response touches any of
// the item's uncertainty points, either by containing a significant word
// from a point's span or issue, by containing a close Levenshtein match of
// one, or by using generic uncertainty language.
func acknowledgesAnyUncertainty(responseLower string, item domain.CanonicalItem) bool {
	responseWords := strings.Fields(responseLower)

	for _, up := range item.AmbiguityProfile.UncertaintyPoints {
		words := append(strings.Fields(foldCaser.String(up.Span)), strings.Fields(foldCaser.String(up.Issue))...)
		for _, word := range words {
			if len(word) < minOverlapWordLen {
				continue
			}
			if strings.Contains(responseLower, word) {
				return true
			}
			for _, rw := range responseWords {
				if len(rw) >= minOverlapWordLen && wordSimilarity(word, rw) >= spanWordSimilarity {
					return true
				}
			}
		}
	}

	return hasUncertaintyLanguage(responseLower)
}

// wordSimilarity computes a normalized Levenshtein similarity in [0, 1].
func wordSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
