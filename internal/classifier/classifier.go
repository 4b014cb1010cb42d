// Package classifier flags health-relevant free text and extracts findings
// from it with keyword and pattern matching. It does no clinical coding
// beyond the fixed term table.
package classifier

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Severity string

const (
	SeverityHigh    Severity = "high"
	SeverityMedium  Severity = "medium"
	SeverityLow     Severity = "low"
	SeverityUnknown Severity = "unknown"
)

type Temporal string

const (
	TemporalAcute     Temporal = "acute"
	TemporalChronic   Temporal = "chronic"
	TemporalRecurring Temporal = "recurring"
	TemporalUnknown   Temporal = "unknown"
)

type Kind string

const (
	KindCondition  Kind = "condition"
	KindMedication Kind = "medication"
	KindVitalSign  Kind = "vital-sign"
)

const (
	baseConfidence       = 0.5
	wholeWordBonus       = 0.2
	contextBonus         = 0.2
	negationPenalty      = 0.4
	negationWindow       = 20
	snippetRadius        = 50
	medicationConfidence = 0.7
	vitalSignConfidence  = 0.8

	// MinConfidence is exclusive: findings at exactly this value are dropped.
	MinConfidence = 0.3
)

// Finding is one health-relevant observation extracted from text.
type Finding struct {
	Term       string   `json:"term"`
	Display    string   `json:"display"`
	System     string   `json:"system,omitempty"`
	Code       string   `json:"code,omitempty"`
	Kind       Kind     `json:"kind"`
	Confidence float64  `json:"confidence"`
	Severity   Severity `json:"severity"`
	Temporal   Temporal `json:"temporal"`
	Snippet    string   `json:"snippet"`
}

type severityTier struct {
	level      Severity
	indicators []string
}

type temporalTier struct {
	pattern    Temporal
	indicators []string
}

// Classifier is safe for concurrent use once constructed.
type Classifier struct {
	keywords       []string
	phrases        []string
	terms          []TermConcept
	contextPhrases []string
	negations      []string
	severity       []severityTier
	temporal       []temporalTier
}

// New builds a classifier from the given tables.
func New(cfg Config) *Classifier {
	terms := make([]TermConcept, len(cfg.Terms))
	for i, t := range cfg.Terms {
		t.Term = strings.ToLower(t.Term)
		terms[i] = t
	}

	return &Classifier{
		keywords:       lowerAll(cfg.Keywords),
		phrases:        lowerAll(cfg.Phrases),
		terms:          terms,
		contextPhrases: lowerAll(cfg.ContextPhrases),
		negations:      lowerAll(cfg.Negations),
		severity: []severityTier{
			{SeverityHigh, lowerAll(cfg.Severity.High)},
			{SeverityMedium, lowerAll(cfg.Severity.Medium)},
			{SeverityLow, lowerAll(cfg.Severity.Low)},
		},
		temporal: []temporalTier{
			{TemporalAcute, lowerAll(cfg.Temporal.Acute)},
			{TemporalChronic, lowerAll(cfg.Temporal.Chronic)},
			{TemporalRecurring, lowerAll(cfg.Temporal.Recurring)},
		},
	}
}

// Default returns a classifier using DefaultConfig.
func Default() *Classifier {
	return New(DefaultConfig())
}

// IsRelevant reports whether text mentions anything health related.
func (c *Classifier) IsRelevant(text string) bool {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return false
	}
	if containsAny(lower, c.keywords) || containsAny(lower, c.phrases) {
		return true
	}
	for _, re := range shorthandPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// ExtractFindings returns the findings in text with confidence above
// MinConfidence. Term findings come first in table order, followed by
// medication and vital sign pattern matches.
func (c *Classifier) ExtractFindings(text string) []Finding {
	lower := strings.ToLower(text)
	severity := c.severityOf(lower)
	temporal := c.temporalOf(lower)
	hasContext := containsAny(lower, c.contextPhrases)

	var findings []Finding

	for _, t := range c.terms {
		if t.Term == "" {
			continue
		}
		idx := strings.Index(lower, t.Term)
		if idx < 0 {
			continue
		}

		confidence := baseConfidence
		if hasWholeWord(lower, t.Term) {
			confidence += wholeWordBonus
		}
		if hasContext {
			confidence += contextBonus
		}
		if c.negatedBefore(lower, idx) {
			confidence -= negationPenalty
		}

		findings = append(findings, Finding{
			Term:       t.Term,
			Display:    t.Display,
			System:     t.System,
			Code:       t.Code,
			Kind:       KindCondition,
			Confidence: clamp(confidence),
			Severity:   severity,
			Temporal:   temporal,
			Snippet:    snippet(text, lower, idx, len(t.Term)),
		})
	}

	findings = append(findings, matchPatterns(text, lower, medicationPatterns, severity, temporal)...)
	findings = append(findings, matchPatterns(text, lower, vitalSignPatterns, severity, temporal)...)

	kept := findings[:0]
	for _, f := range findings {
		if f.Confidence > MinConfidence {
			kept = append(kept, f)
		}
	}
	return kept
}

func (c *Classifier) severityOf(lower string) Severity {
	for _, tier := range c.severity {
		if containsAny(lower, tier.indicators) {
			return tier.level
		}
	}
	return SeverityUnknown
}

func (c *Classifier) temporalOf(lower string) Temporal {
	for _, tier := range c.temporal {
		if containsAny(lower, tier.indicators) {
			return tier.pattern
		}
	}
	return TemporalUnknown
}

// negatedBefore checks the negationWindow bytes preceding idx.
func (c *Classifier) negatedBefore(lower string, idx int) bool {
	start := idx - negationWindow
	if start < 0 {
		start = 0
	}
	return containsAny(lower[start:idx], c.negations)
}

func matchPatterns(text, lower string, patterns []patternConcept, severity Severity, temporal Temporal) []Finding {
	var findings []Finding
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(lower, -1) {
			match := strings.TrimSpace(lower[loc[0]:loc[1]])
			if p.subject > 0 {
				s, e := loc[2*p.subject], loc[2*p.subject+1]
				if s < 0 || stopWords[lower[s:e]] {
					continue
				}
			}
			findings = append(findings, Finding{
				Term:       match,
				Display:    p.display + ": " + match,
				System:     p.system,
				Code:       p.code,
				Kind:       p.kind,
				Confidence: p.confidence,
				Severity:   severity,
				Temporal:   temporal,
				Snippet:    snippet(text, lower, loc[0], loc[1]-loc[0]),
			})
		}
	}
	return findings
}

// hasWholeWord reports whether any occurrence of term is bounded by spaces
// or the ends of the text.
func hasWholeWord(lower, term string) bool {
	offset := 0
	for {
		i := strings.Index(lower[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)
		before := start == 0 || lower[start-1] == ' '
		after := end == len(lower) || lower[end] == ' '
		if before && after {
			return true
		}
		offset = start + 1
	}
}

// snippet cuts snippetRadius bytes either side of a match, widened to rune
// boundaries. idx and length locate the match in lower and are mapped back
// onto text, whose byte offsets differ wherever lowercasing changed a rune's
// width.
func snippet(text, lower string, idx, length int) string {
	matchStart, matchEnd := originalSpan(text, idx, idx+length)

	start := matchStart - snippetRadius
	if start < 0 {
		start = 0
	}
	end := matchEnd + snippetRadius
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return strings.TrimSpace(text[start:end])
}

// originalSpan converts byte offsets in strings.ToLower(text) to offsets in
// text. Invalid bytes lower to utf8.RuneError, as strings.ToLower does.
func originalSpan(text string, lowerStart, lowerEnd int) (int, int) {
	start, end := len(text), len(text)
	pos := 0
	for i, r := range text {
		if pos >= lowerStart && start == len(text) {
			start = i
		}
		if pos >= lowerEnd {
			end = i
			break
		}
		pos += utf8.RuneLen(unicode.ToLower(r))
	}
	return start, end
}

func clamp(v float64) float64 {
	v = math.Max(0, math.Min(1, v))
	return math.Round(v*100) / 100
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
