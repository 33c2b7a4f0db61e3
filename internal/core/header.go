package core

import (
	"strings"
)

// spoofedBrands are display names commonly impersonated in phishing
var spoofedBrands = []string{"paypal", "amazon", "microsoft", "google", "apple", "bank"}

// HeaderExtractor inspects authentication headers and sender fields
// for spoofing and verification-failure signals. All checks are local
// string heuristics over header text already present in the message;
// no live SPF/DKIM verification is performed.
type HeaderExtractor struct {
	strictAuth bool
}

// NewHeaderExtractor creates a header extractor. With StrictAuth set,
// a missing Authentication-Results header is treated the same as one
// carrying no pass tokens.
func NewHeaderExtractor(cfg AnalysisConfig) *HeaderExtractor {
	return &HeaderExtractor{strictAuth: cfg.StrictAuth}
}

// Extract scans the message headers and returns the findings
func (e *HeaderExtractor) Extract(msg *RawMessage) *HeaderFindings {
	findings := &HeaderFindings{
		RiskIndicators:        []string{},
		SuspiciousPatterns:    []string{},
		AuthenticationResults: map[string]string{},
	}

	authResults := msg.Headers.Get("Authentication-Results")
	if authResults != "" || e.strictAuth {
		lower := strings.ToLower(authResults)

		if strings.Contains(lower, "spf=pass") {
			findings.AuthenticationResults["spf"] = "passed"
		} else {
			findings.AuthenticationResults["spf"] = "failed"
			findings.RiskIndicators = append(findings.RiskIndicators, "SPF verification failed")
		}

		if strings.Contains(lower, "dkim=pass") {
			findings.AuthenticationResults["dkim"] = "passed"
		} else {
			findings.AuthenticationResults["dkim"] = "failed"
			findings.RiskIndicators = append(findings.RiskIndicators, "DKIM verification failed")
		}
	}

	from := msg.Headers.Get("From")
	if hasDisplayNameSpoofing(from) {
		findings.SuspiciousPatterns = append(findings.SuspiciousPatterns, "Possible display name spoofing")
	}

	if replyTo := msg.Headers.Get("Reply-To"); hasMismatchedDomains(from, replyTo) {
		findings.SuspiciousPatterns = append(findings.SuspiciousPatterns, "Mismatched sender domains")
	}

	return findings
}

// hasDisplayNameSpoofing reports whether the From header names a
// well-known brand while the address portion is not at that brand's
// domain.
func hasDisplayNameSpoofing(from string) bool {
	lower := strings.ToLower(from)
	for _, brand := range spoofedBrands {
		if strings.Contains(lower, brand) && !strings.Contains(lower, "@"+brand) {
			return true
		}
	}
	return false
}

// hasMismatchedDomains reports whether Reply-To routes responses to a
// different domain than the From address. An absent Reply-To is not a
// mismatch.
func hasMismatchedDomains(from, replyTo string) bool {
	if replyTo == "" {
		return false
	}
	return domainAfterAt(from) != domainAfterAt(replyTo)
}

// domainAfterAt returns the substring after the last @ with any
// trailing angle bracket stripped
func domainAfterAt(addr string) string {
	d := addr
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		d = addr[i+1:]
	}
	return strings.Trim(d, ">")
}
