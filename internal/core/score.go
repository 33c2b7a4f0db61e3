package core

import "math"

// Category weights for the threat score. Each weight multiplies a
// signal count, so independent signals compound; a reputation hit on a
// domain counts double within the link term.
const (
	weightHeader     = 0.3
	weightContent    = 0.2
	weightLink       = 0.3
	weightAttachment = 0.2
)

// Advisory texts, one per triggered category
const (
	adviceHeaders     = "The email failed security verification checks. Be extremely cautious."
	adviceContent     = "This email contains common phishing phrases. Verify any requests through official channels."
	adviceLinks       = "Do not click on any links. If necessary, manually type the URL in your browser."
	adviceAttachments = "This email contains potentially dangerous attachments. Do not open them."
	adviceSafe        = "This email appears to be safe, but always remain vigilant."
)

// Scorer combines extractor findings into a normalized threat score
// and maps it onto a risk tier.
type Scorer struct {
	threshold float64
}

// NewScorer creates a scorer with the configured high-risk threshold
func NewScorer(cfg AnalysisConfig) *Scorer {
	return &Scorer{threshold: cfg.ThreatThreshold}
}

// Score computes the weighted threat score, clamped to [0.0, 1.0]
func (s *Scorer) Score(h *HeaderFindings, b *BodyFindings, l *LinkFindings, a *AttachmentFindings) float64 {
	score := float64(len(h.RiskIndicators)) * weightHeader
	score += float64(len(b.SuspiciousKeywords)) * weightContent
	score += float64(len(l.SuspiciousLinks)+2*len(l.MaliciousDomains)) * weightLink
	score += float64(len(a.SuspiciousAttachments)) * weightAttachment

	return math.Min(score, 1.0)
}

// RiskLevel maps a threat score onto a tier. The "unknown" tier is
// reserved for failed analyses and is never returned here.
func (s *Scorer) RiskLevel(score float64) string {
	switch {
	case score >= s.threshold:
		return RiskHigh
	case score >= s.threshold*0.5:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Recommendations returns one advisory per triggered category, in a
// fixed order, independent of score magnitude. The result is never
// empty.
func (s *Scorer) Recommendations(h *HeaderFindings, b *BodyFindings, l *LinkFindings, a *AttachmentFindings) []string {
	recommendations := []string{}

	if len(h.RiskIndicators) > 0 {
		recommendations = append(recommendations, adviceHeaders)
	}
	if len(b.SuspiciousKeywords) > 0 {
		recommendations = append(recommendations, adviceContent)
	}
	if len(l.SuspiciousLinks) > 0 || len(l.MaliciousDomains) > 0 {
		recommendations = append(recommendations, adviceLinks)
	}
	if len(a.SuspiciousAttachments) > 0 {
		recommendations = append(recommendations, adviceAttachments)
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, adviceSafe)
	}

	return recommendations
}
