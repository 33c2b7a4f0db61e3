package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func emptyFindings() (*HeaderFindings, *BodyFindings, *LinkFindings, *AttachmentFindings) {
	return &HeaderFindings{RiskIndicators: []string{}},
		&BodyFindings{SuspiciousKeywords: []string{}},
		&LinkFindings{SuspiciousLinks: []string{}, MaliciousDomains: []string{}},
		&AttachmentFindings{SuspiciousAttachments: []string{}}
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(DefaultAnalysisConfig())

	tests := []struct {
		name             string
		headerIndicators int
		keywords         int
		suspiciousLinks  int
		maliciousDomains int
		attachments      int
		expected         float64
	}{
		{name: "Nothing found", expected: 0.0},
		{name: "One header indicator", headerIndicators: 1, expected: 0.3},
		{name: "One keyword", keywords: 1, expected: 0.2},
		{name: "One suspicious link", suspiciousLinks: 1, expected: 0.3},
		{name: "Malicious domain counts double", maliciousDomains: 1, expected: 0.6},
		{name: "One attachment", attachments: 1, expected: 0.2},
		{name: "Combined", headerIndicators: 1, keywords: 1, attachments: 1, expected: 0.7},
		{name: "Clamped at one", headerIndicators: 2, maliciousDomains: 2, expected: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, b, l, a := emptyFindings()
			h.RiskIndicators = make([]string, tt.headerIndicators)
			b.SuspiciousKeywords = make([]string, tt.keywords)
			l.SuspiciousLinks = make([]string, tt.suspiciousLinks)
			l.MaliciousDomains = make([]string, tt.maliciousDomains)
			a.SuspiciousAttachments = make([]string, tt.attachments)

			assert.InDelta(t, tt.expected, scorer.Score(h, b, l, a), 1e-9)
		})
	}
}

func TestScorer_RiskLevel(t *testing.T) {
	scorer := NewScorer(DefaultAnalysisConfig())

	tests := []struct {
		score    float64
		expected string
	}{
		{0.0, RiskLow},
		{0.34, RiskLow},
		{0.35, RiskMedium},
		{0.5, RiskMedium},
		{0.69, RiskMedium},
		{0.7, RiskHigh},
		{1.0, RiskHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, scorer.RiskLevel(tt.score), "score %.2f", tt.score)
	}
}

func TestScorer_RiskLevelCustomThreshold(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	cfg.ThreatThreshold = 0.5
	scorer := NewScorer(cfg)

	assert.Equal(t, RiskHigh, scorer.RiskLevel(0.5))
	assert.Equal(t, RiskMedium, scorer.RiskLevel(0.25))
	assert.Equal(t, RiskLow, scorer.RiskLevel(0.24))
}

func TestScorer_Recommendations(t *testing.T) {
	scorer := NewScorer(DefaultAnalysisConfig())

	t.Run("Safe fallback when nothing triggered", func(t *testing.T) {
		h, b, l, a := emptyFindings()
		recs := scorer.Recommendations(h, b, l, a)
		assert.Equal(t, []string{adviceSafe}, recs)
	})

	t.Run("One advisory per category in fixed order", func(t *testing.T) {
		h, b, l, a := emptyFindings()
		h.RiskIndicators = []string{"SPF verification failed"}
		b.SuspiciousKeywords = []string{"urgent"}
		l.MaliciousDomains = []string{"secure-login.tk"}
		a.SuspiciousAttachments = []string{"payload.exe"}

		recs := scorer.Recommendations(h, b, l, a)
		assert.Equal(t, []string{adviceHeaders, adviceContent, adviceLinks, adviceAttachments}, recs)
	})

	t.Run("Link advisory triggers on malicious domains alone", func(t *testing.T) {
		h, b, l, a := emptyFindings()
		l.MaliciousDomains = []string{"secure-login.tk"}

		recs := scorer.Recommendations(h, b, l, a)
		assert.Equal(t, []string{adviceLinks}, recs)
	})

	t.Run("Category advisory appears once regardless of count", func(t *testing.T) {
		h, b, l, a := emptyFindings()
		b.SuspiciousKeywords = []string{"urgent", "winner", "lottery"}

		recs := scorer.Recommendations(h, b, l, a)
		assert.Equal(t, []string{adviceContent}, recs)
	})
}
