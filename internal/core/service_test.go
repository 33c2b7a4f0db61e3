package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAnalyzer(t *testing.T, mutate func(*AnalysisConfig)) *AnalyzerService {
	t.Helper()
	cfg := DefaultAnalysisConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return NewAnalyzerService(cfg, zap.NewNop())
}

const cleanEmail = "From: Alice <alice@example.com>\r\n" +
	"Subject: Lunch tomorrow\r\n" +
	"Date: Mon, 01 Sep 2025 10:00:00 +0000\r\n" +
	"Authentication-Results: mx.example.com; spf=pass; dkim=pass\r\n" +
	"\r\n" +
	"Shall we grab lunch tomorrow at noon?\r\n"

const phishingEmail = "From: PayPal Security <alerts@secure-mail.tk>\r\n" +
	"Reply-To: collect@attacker.net\r\n" +
	"Subject: Account Suspended\r\n" +
	"Authentication-Results: mx.example.com; spf=fail; dkim=fail\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"B\"\r\n" +
	"\r\n" +
	"--B\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<html><body>URGENT: your account suspended, verify your account " +
	"within 24 hours. <a href=\"http://secure-paypal.tk/redirect?u=1\">Click here</a>" +
	"</body></html>\r\n" +
	"--B\r\n" +
	"Content-Type: application/octet-stream\r\n" +
	"Content-Disposition: attachment; filename=\"update.exe\"\r\n" +
	"\r\n" +
	"MZ\r\n" +
	"--B--\r\n"

func TestAnalyzeContent_CleanEmail(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)

	result := analyzer.AnalyzeContent(context.Background(), cleanEmail)

	require.False(t, result.Failed())
	assert.Equal(t, 0.0, result.ThreatScore)
	assert.Equal(t, RiskLow, result.RiskLevel)
	assert.Equal(t, []string{adviceSafe}, result.Recommendations)
	assert.Equal(t, "Lunch tomorrow", result.Subject)
	assert.Equal(t, "Alice <alice@example.com>", result.Sender)
	assert.Equal(t, "Mon, 01 Sep 2025 10:00:00 +0000", result.Timestamp)
}

func TestAnalyzeContent_PhishingEmail(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)

	result := analyzer.AnalyzeContent(context.Background(), phishingEmail)

	require.False(t, result.Failed())
	assert.Equal(t, 1.0, result.ThreatScore)
	assert.Equal(t, RiskHigh, result.RiskLevel)

	assert.Contains(t, result.HeaderAnalysis.RiskIndicators, "SPF verification failed")
	assert.Contains(t, result.HeaderAnalysis.RiskIndicators, "DKIM verification failed")
	assert.Contains(t, result.HeaderAnalysis.SuspiciousPatterns, "Possible display name spoofing")
	assert.Contains(t, result.HeaderAnalysis.SuspiciousPatterns, "Mismatched sender domains")

	assert.Contains(t, result.ContentAnalysis.SuspiciousKeywords, "urgent")
	assert.NotEmpty(t, result.ContentAnalysis.UrgencyIndicators)

	assert.NotEmpty(t, result.LinkAnalysis.Redirects)
	assert.Contains(t, result.LinkAnalysis.MaliciousDomains, "secure-paypal.tk")

	assert.Equal(t, []string{"update.exe"}, result.AttachmentAnalysis.SuspiciousAttachments)

	assert.Equal(t, []string{adviceHeaders, adviceContent, adviceLinks, adviceAttachments}, result.Recommendations)
}

func TestAnalyzeContent_EmptyContent(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)

	for _, content := range []string{"", "   \n\t  "} {
		result := analyzer.AnalyzeContent(context.Background(), content)

		assert.True(t, result.Failed())
		assert.Equal(t, 0.0, result.ThreatScore)
		assert.Equal(t, RiskUnknown, result.RiskLevel)
		assert.Contains(t, result.Error, "empty email content")
	}
}

func TestAnalyzeContent_Idempotent(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)

	first := analyzer.AnalyzeContent(context.Background(), phishingEmail)
	second := analyzer.AnalyzeContent(context.Background(), phishingEmail)

	assert.Equal(t, first, second)
}

func TestAnalyzeContent_ScoreBounds(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)

	// Every configured keyword at once still clamps at 1.0
	body := strings.Join(DefaultAnalysisConfig().SuspiciousKeywords, " ")
	result := analyzer.AnalyzeContent(context.Background(),
		"From: x@example.com\r\n\r\n"+body+"\r\n")

	require.False(t, result.Failed())
	assert.LessOrEqual(t, result.ThreatScore, 1.0)
	assert.GreaterOrEqual(t, result.ThreatScore, 0.0)
}

func TestAnalyzeContent_UnknownOnlyOnFailure(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)

	for _, content := range []string{cleanEmail, phishingEmail} {
		result := analyzer.AnalyzeContent(context.Background(), content)
		assert.NotEqual(t, RiskUnknown, result.RiskLevel)
		assert.Empty(t, result.Error)
	}
}

func TestAnalyzeFile(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)
	dir := t.TempDir()

	t.Run("Valid file", func(t *testing.T) {
		path := filepath.Join(dir, "message.eml")
		require.NoError(t, os.WriteFile(path, []byte(cleanEmail), 0o600))

		result := analyzer.AnalyzeFile(context.Background(), path)

		require.False(t, result.Failed())
		assert.Equal(t, RiskLow, result.RiskLevel)
	})

	t.Run("Missing file", func(t *testing.T) {
		result := analyzer.AnalyzeFile(context.Background(), filepath.Join(dir, "absent.eml"))

		assert.True(t, result.Failed())
		assert.Equal(t, RiskUnknown, result.RiskLevel)
		assert.Contains(t, result.Error, "file not found")
	})

	t.Run("Empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.eml")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		result := analyzer.AnalyzeFile(context.Background(), path)

		assert.True(t, result.Failed())
		assert.Contains(t, result.Error, "file is empty")
	})

	t.Run("Wrong extension", func(t *testing.T) {
		path := filepath.Join(dir, "message.txt")
		require.NoError(t, os.WriteFile(path, []byte(cleanEmail), 0o600))

		result := analyzer.AnalyzeFile(context.Background(), path)

		assert.True(t, result.Failed())
		assert.Contains(t, result.Error, "unsupported file extension")
	})

	t.Run("Oversized file", func(t *testing.T) {
		analyzer := newTestAnalyzer(t, func(cfg *AnalysisConfig) {
			cfg.MaxFileBytes = 16
		})
		path := filepath.Join(dir, "big.eml")
		require.NoError(t, os.WriteFile(path, []byte(cleanEmail), 0o600))

		result := analyzer.AnalyzeFile(context.Background(), path)

		assert.True(t, result.Failed())
		assert.Contains(t, result.Error, "byte limit")
	})

	t.Run("Directory path", func(t *testing.T) {
		result := analyzer.AnalyzeFile(context.Background(), dir)

		assert.True(t, result.Failed())
		assert.Contains(t, result.Error, "not a regular file")
	})
}

func TestAnalyzeContent_UnparsableContent(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)

	result := analyzer.AnalyzeContent(context.Background(), "completely malformed, no headers")

	assert.True(t, result.Failed())
	assert.Equal(t, RiskUnknown, result.RiskLevel)
	assert.Contains(t, result.Error, "failed to parse email")
}
