package detect

import (
	"regexp"
	"strings"
)

// Pre-compiled injection signals — compiled once at startup, never during a
// request. Each distinct matching signal contributes signalWeight points.
var injectionSignals = []struct {
	re     *regexp.Regexp
	detail string
}{
	{regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions`), "override: ignore previous instructions"},
	{regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+(instructions|rules|guidelines)`), "override: disregard instructions"},
	{regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|above)\s+(instructions|context)`), "override: forget instructions"},
	{regexp.MustCompile(`(?i)(reveal|show|print|output|repeat)\s+(your\s+|the\s+)?(system|initial|original|hidden)\s+(prompt|instructions|message)`), "extraction: reveal system prompt"},
	{regexp.MustCompile(`(?i)\bsystem\s+prompt\b`), "reference: system prompt"},
	{regexp.MustCompile(`(?i)\bjailbreak`), "jailbreak keyword"},
	{regexp.MustCompile(`(?i)\bdeveloper\s+mode\b`), "developer mode"},
	{regexp.MustCompile(`(?i)\bDAN\s+mode\b`), "DAN mode"},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+`), "identity override: you are now"},
	{regexp.MustCompile(`(?i)from\s+now\s+on\s+you\s+(are|will|must|should)`), "identity override: from now on"},
	{regexp.MustCompile(`(?i)pretend\s+(to\s+be|you\s+are)\s+`), "identity override: pretend"},
	{regexp.MustCompile(`(?i)bypass\s+(the\s+)?(safety|security|content)\s+(filter|check|policy|rules)`), "explicit bypass attempt"},
	{regexp.MustCompile(`(?i)override\s+(system|safety|security)\s+(prompt|instructions|rules|policy)`), "explicit override attempt"},
	{regexp.MustCompile(`(?i)\[SYSTEM\]`), "delimiter injection: [SYSTEM] tag"},
	{regexp.MustCompile(`(?i)<\|im_start\|>system`), "delimiter injection: ChatML system tag"},
	{regexp.MustCompile(`(?i)###\s*(SYSTEM|INSTRUCTION|NEW INSTRUCTION)`), "delimiter injection: markdown system header"},
}

// Literal markers that add a single bonus point each when present.
var injectionLiterals = []string{"system prompt", "developer message"}

const (
	signalWeight    = 2
	codeFenceBonus  = 1
	literalBonus    = 1
	codeFenceMarker = "```"
)

// InjectionEvidence is the injection scorer's output for one text.
type InjectionEvidence struct {
	Score   int
	Signals []string // detail strings for the signals that matched
}

// ScoreInjection scores text for prompt-injection signals: 2 points per
// distinct signal matched, +1 if a code fence is present, +1 if a
// system-prompt/developer-message literal appears. Deterministic.
func ScoreInjection(text string) InjectionEvidence {
	var ev InjectionEvidence

	for _, s := range injectionSignals {
		if s.re.MatchString(text) {
			ev.Score += signalWeight
			ev.Signals = append(ev.Signals, s.detail)
		}
	}

	if strings.Contains(text, codeFenceMarker) {
		ev.Score += codeFenceBonus
		ev.Signals = append(ev.Signals, "code fence present")
	}

	lower := strings.ToLower(text)
	for _, lit := range injectionLiterals {
		if strings.Contains(lower, lit) {
			ev.Score += literalBonus
			ev.Signals = append(ev.Signals, "literal: "+lit)
			break
		}
	}

	return ev
}
