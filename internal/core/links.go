package core

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// redirectIndicators are URL substrings that commonly mark a
	// redirect hop
	redirectIndicators = []string{"redirect", "redir", "r.php", "goto", "link.php"}

	// suspiciousTLDs are free registries heavily abused for phishing
	suspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf"}

	// suspiciousHostPrefixes mimic account-security hostnames
	suspiciousHostPrefixes = []string{"secure-", "verify-", "account-", "update-"}

	// deceptivePatterns cover URL shorteners and giveaway keywords
	deceptivePatterns = []string{
		"bit.ly", "tinyurl.com", "goo.gl", "t.co",
		"phishing", "malware", "suspicious",
	}
)

// LinkExtractor harvests anchors from the retained HTML body and
// classifies each hyperlink. A single URL may land in several findings
// lists at once, but each list records it at most once.
type LinkExtractor struct{}

// NewLinkExtractor creates a link extractor
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// Extract harvests and classifies every hyperlink in the message
func (e *LinkExtractor) Extract(msg *RawMessage) *LinkFindings {
	findings := &LinkFindings{
		SuspiciousLinks:  []string{},
		Redirects:        []string{},
		MaliciousDomains: []string{},
	}

	if msg.HTMLBody == "" {
		return findings
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(msg.HTMLBody))
	if err != nil {
		return findings
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		link, _ := sel.Attr("href")
		if link == "" {
			return
		}
		lower := strings.ToLower(link)

		if containsAny(lower, redirectIndicators) {
			findings.Redirects = append(findings.Redirects, link)
		}

		// Malformed URLs contribute no domain but are not an error
		if host := linkHost(link); host != "" && isDisreputableHost(host) {
			findings.MaliciousDomains = append(findings.MaliciousDomains, host)
		}

		if containsAny(lower, deceptivePatterns) {
			findings.SuspiciousLinks = append(findings.SuspiciousLinks, link)
		}
	})

	return findings
}

func linkHost(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func isDisreputableHost(host string) bool {
	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}
	return containsAny(host, suspiciousHostPrefixes)
}
