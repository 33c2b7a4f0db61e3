package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func htmlMessage(html string) *RawMessage {
	return &RawMessage{HTMLBody: html}
}

func TestLinkExtractor_NoHTMLBody(t *testing.T) {
	extractor := NewLinkExtractor()

	findings := extractor.Extract(&RawMessage{BodyText: "http://bit.ly/abc in plain text"})

	assert.Empty(t, findings.SuspiciousLinks)
	assert.Empty(t, findings.Redirects)
	assert.Empty(t, findings.MaliciousDomains)
}

func TestLinkExtractor_Redirects(t *testing.T) {
	findings := NewLinkExtractor().Extract(htmlMessage(
		`<a href="http://example.com/redirect?to=target">one</a>` +
			`<a href="http://example.com/r.php?u=x">two</a>` +
			`<a href="http://example.com/page">clean</a>`,
	))

	assert.Equal(t, []string{
		"http://example.com/redirect?to=target",
		"http://example.com/r.php?u=x",
	}, findings.Redirects)
}

func TestLinkExtractor_MaliciousDomains(t *testing.T) {
	tests := []struct {
		name         string
		href         string
		expectDomain string
	}{
		{
			name:         "Free TLD",
			href:         "http://login-page.tk/verify",
			expectDomain: "login-page.tk",
		},
		{
			name:         "Security-themed host prefix",
			href:         "http://secure-paypal.example.com/login",
			expectDomain: "secure-paypal.example.com",
		},
		{
			name:         "Prefix anywhere in host",
			href:         "http://www.verify-account.net/",
			expectDomain: "www.verify-account.net",
		},
		{
			name: "Reputable host",
			href: "https://www.example.com/page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := NewLinkExtractor().Extract(htmlMessage(
				`<a href="` + tt.href + `">link</a>`,
			))

			if tt.expectDomain == "" {
				assert.Empty(t, findings.MaliciousDomains)
			} else {
				assert.Equal(t, []string{tt.expectDomain}, findings.MaliciousDomains)
			}
		})
	}
}

func TestLinkExtractor_DeceptivePatterns(t *testing.T) {
	findings := NewLinkExtractor().Extract(htmlMessage(
		`<a href="http://bit.ly/3xyz">short</a>` +
			`<a href="https://tinyurl.com/abc">shorter</a>` +
			`<a href="https://www.example.com/">fine</a>`,
	))

	assert.Equal(t, []string{"http://bit.ly/3xyz", "https://tinyurl.com/abc"}, findings.SuspiciousLinks)
}

func TestLinkExtractor_LinkCanLandInMultipleLists(t *testing.T) {
	findings := NewLinkExtractor().Extract(htmlMessage(
		`<a href="http://secure-update.tk/redirect?u=bit.ly">bad</a>`,
	))

	assert.Len(t, findings.Redirects, 1)
	assert.Len(t, findings.MaliciousDomains, 1)
	assert.Len(t, findings.SuspiciousLinks, 1)
}

func TestLinkExtractor_MalformedURLContributesNoDomain(t *testing.T) {
	findings := NewLinkExtractor().Extract(htmlMessage(
		`<a href="http://secure-%zz-broken">broken</a>`,
	))

	assert.Empty(t, findings.MaliciousDomains)
}
