package core

import (
	"regexp"
	"strings"
)

// urgencyPatterns match pressure language in the body text. The source
// string doubles as the indicator identifier recorded in the findings.
var urgencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`urgent`),
	regexp.MustCompile(`immediate action required`),
	regexp.MustCompile(`account.*suspend`),
	regexp.MustCompile(`within \d+ hours?`),
	regexp.MustCompile(`expires? (?:today|soon)`),
	regexp.MustCompile(`act now`),
	regexp.MustCompile(`time[\W_]?sensitive`),
}

// BodyExtractor scans the flattened body text for a fixed vocabulary
// of phishing phrases and for urgency patterns.
type BodyExtractor struct {
	keywords []string
}

// NewBodyExtractor creates a body extractor using the configured
// phrase vocabulary
func NewBodyExtractor(cfg AnalysisConfig) *BodyExtractor {
	return &BodyExtractor{keywords: cfg.SuspiciousKeywords}
}

// Extract scans the body text and returns the findings. Each keyword
// and pattern is recorded at most once regardless of how often it
// occurs.
func (e *BodyExtractor) Extract(msg *RawMessage) *BodyFindings {
	findings := &BodyFindings{
		SuspiciousKeywords: []string{},
		UrgencyIndicators:  []string{},
	}

	body := strings.ToLower(msg.BodyText)

	for _, keyword := range e.keywords {
		if strings.Contains(body, strings.ToLower(keyword)) {
			findings.SuspiciousKeywords = append(findings.SuspiciousKeywords, keyword)
		}
	}

	for _, pattern := range urgencyPatterns {
		if pattern.MatchString(body) {
			findings.UrgencyIndicators = append(findings.UrgencyIndicators, pattern.String())
		}
	}

	return findings
}

// containsAny reports whether text contains any of the given
// substrings
func containsAny(text string, substrings []string) bool {
	for _, s := range substrings {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
