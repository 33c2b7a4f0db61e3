package core

import (
	"net/mail"
)

// Risk levels derived from a threat score. RiskUnknown is reserved for
// failed analyses and is never produced by scoring.
const (
	RiskLow     = "low"
	RiskMedium  = "medium"
	RiskHigh    = "high"
	RiskUnknown = "unknown"
)

// AttachmentInfo describes a single attachment found in a message.
// Extension is lowercase and empty when the filename has no dot.
type AttachmentInfo struct {
	Filename  string
	Extension string
}

// RawMessage is the parsed form of an email, shared read-only by all
// signal extractors.
type RawMessage struct {
	Headers     mail.Header
	BodyText    string
	HTMLBody    string
	Attachments []AttachmentInfo
}

// HeaderFindings holds the header extractor's signals
type HeaderFindings struct {
	RiskIndicators        []string          `json:"risk_indicators"`
	SuspiciousPatterns    []string          `json:"suspicious_patterns"`
	AuthenticationResults map[string]string `json:"authentication_results"`
	Error                 string            `json:"error,omitempty"`
}

// BodyFindings holds the body extractor's signals
type BodyFindings struct {
	SuspiciousKeywords []string `json:"suspicious_keywords"`
	UrgencyIndicators  []string `json:"urgency_indicators"`
	Error              string   `json:"error,omitempty"`
}

// LinkFindings holds the link extractor's signals. A single URL may
// appear in more than one list.
type LinkFindings struct {
	SuspiciousLinks  []string `json:"suspicious_links"`
	Redirects        []string `json:"redirects"`
	MaliciousDomains []string `json:"malicious_domains"`
	Error            string   `json:"error,omitempty"`
}

// AttachmentFindings holds the attachment extractor's signals.
// FileTypes lists the extension of every attachment, not only the
// dangerous subset.
type AttachmentFindings struct {
	SuspiciousAttachments []string `json:"suspicious_attachments"`
	FileTypes             []string `json:"file_types"`
	Error                 string   `json:"error,omitempty"`
}

// AnalysisResult is the engine's sole output. When Error is set the
// score is 0.0 and the risk level is "unknown".
type AnalysisResult struct {
	ThreatScore        float64             `json:"threat_score"`
	RiskLevel          string              `json:"risk_level"`
	HeaderAnalysis     *HeaderFindings     `json:"header_analysis,omitempty"`
	ContentAnalysis    *BodyFindings       `json:"content_analysis,omitempty"`
	LinkAnalysis       *LinkFindings       `json:"link_analysis,omitempty"`
	AttachmentAnalysis *AttachmentFindings `json:"attachment_analysis,omitempty"`
	Recommendations    []string            `json:"recommendations,omitempty"`
	Subject            string              `json:"subject,omitempty"`
	Sender             string              `json:"sender,omitempty"`
	Timestamp          string              `json:"timestamp,omitempty"`
	Error              string              `json:"error,omitempty"`
}

// Failed reports whether the analysis ended in the failure state
func (r *AnalysisResult) Failed() bool {
	return r.Error != ""
}

// AnalysisConfig carries the tunable vocabularies and thresholds of the
// engine. Defaults reproduce the standard behavior; tests and callers
// may override any field.
type AnalysisConfig struct {
	// ThreatThreshold is the score at or above which a message is
	// classified high risk. Medium starts at half the threshold.
	ThreatThreshold float64

	// StrictAuth treats a missing Authentication-Results header the
	// same as one that carries no pass tokens.
	StrictAuth bool

	// DangerousExtensions is the set of attachment extensions flagged
	// as suspicious (lowercase, without the leading dot).
	DangerousExtensions []string

	// FlagArchives additionally flags zip archives
	FlagArchives bool

	// SuspiciousKeywords is the body phrase vocabulary
	SuspiciousKeywords []string

	// MaxFileBytes is the size ceiling for file analysis
	MaxFileBytes int64
}

// DefaultAnalysisConfig returns the standard engine configuration
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		ThreatThreshold: 0.7,
		StrictAuth:      false,
		DangerousExtensions: []string{
			"exe", "bat", "cmd", "scr", "js", "vbs", "ps1",
			"wsf", "msi", "jar", "reg", "com", "pif",
		},
		FlagArchives: false,
		SuspiciousKeywords: []string{
			"urgent", "account suspended", "verify your account", "click here",
			"update your information", "password expired", "security alert",
			"unusual activity", "limited time", "act now", "immediate action",
			"congratulations", "winner", "lottery", "prize", "free money",
		},
		MaxFileBytes: 16 * 1024 * 1024,
	}
}
