package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// AnalyzerService is the engine's single entry point. It sequences the
// parser, the four signal extractors, and the scorer, and normalizes
// every expected failure into a degraded AnalysisResult instead of an
// error. It holds no state across calls and is safe for concurrent
// use.
type AnalyzerService struct {
	cfg         AnalysisConfig
	logger      *zap.Logger
	headers     *HeaderExtractor
	body        *BodyExtractor
	links       *LinkExtractor
	attachments *AttachmentExtractor
	scorer      *Scorer
}

// NewAnalyzerService creates an analyzer service
func NewAnalyzerService(cfg AnalysisConfig, logger *zap.Logger) *AnalyzerService {
	return &AnalyzerService{
		cfg:         cfg,
		logger:      logger,
		headers:     NewHeaderExtractor(cfg),
		body:        NewBodyExtractor(cfg),
		links:       NewLinkExtractor(),
		attachments: NewAttachmentExtractor(cfg),
		scorer:      NewScorer(cfg),
	}
}

// AnalyzeContent analyzes raw email text. Empty or unparsable content
// yields a failed result carrying the error, never a panic or a
// returned error.
func (s *AnalyzerService) AnalyzeContent(ctx context.Context, content string) *AnalysisResult {
	if strings.TrimSpace(content) == "" {
		return s.failedResult(&ParsingError{Err: errors.New("empty email content")})
	}
	return s.analyze(ctx, []byte(content))
}

// AnalyzeFile analyzes an .eml file on disk. The file is re-validated
// here even when the caller has already checked it; validation
// failures are distinguished from content that exists but cannot be
// parsed.
func (s *AnalyzerService) AnalyzeFile(ctx context.Context, path string) *AnalysisResult {
	if err := s.validateFile(path); err != nil {
		s.logger.Warn("Rejected email file",
			zap.String("path", path),
			zap.Error(err))
		return s.failedResult(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return s.failedResult(&FileValidationError{Path: path, Reason: "file is not readable"})
	}

	return s.analyze(ctx, raw)
}

func (s *AnalyzerService) validateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &FileValidationError{Path: path, Reason: "file not found"}
	}
	if info.IsDir() {
		return &FileValidationError{Path: path, Reason: "not a regular file"}
	}
	if info.Size() == 0 {
		return &FileValidationError{Path: path, Reason: "file is empty"}
	}
	if s.cfg.MaxFileBytes > 0 && info.Size() > s.cfg.MaxFileBytes {
		return &FileValidationError{Path: path, Reason: fmt.Sprintf("file exceeds %d byte limit", s.cfg.MaxFileBytes)}
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".eml" {
		return &FileValidationError{Path: path, Reason: fmt.Sprintf("unsupported file extension %q", ext)}
	}
	return nil
}

func (s *AnalyzerService) analyze(_ context.Context, raw []byte) *AnalysisResult {
	msg, err := ParseMessage(raw)
	if err != nil {
		s.logger.Warn("Failed to parse email", zap.Error(err))
		return s.failedResult(err)
	}

	// Extractors are independent and read the same immutable message;
	// a failure in one degrades its findings without touching the rest.
	headerFindings := s.extractHeaders(msg)
	bodyFindings := s.extractBody(msg)
	linkFindings := s.extractLinks(msg)
	attachmentFindings := s.extractAttachments(msg)

	score := s.scorer.Score(headerFindings, bodyFindings, linkFindings, attachmentFindings)

	result := &AnalysisResult{
		ThreatScore:        score,
		RiskLevel:          s.scorer.RiskLevel(score),
		HeaderAnalysis:     headerFindings,
		ContentAnalysis:    bodyFindings,
		LinkAnalysis:       linkFindings,
		AttachmentAnalysis: attachmentFindings,
		Recommendations:    s.scorer.Recommendations(headerFindings, bodyFindings, linkFindings, attachmentFindings),
		Subject:            headerOrDefault(msg, "Subject", "No Subject"),
		Sender:             headerOrDefault(msg, "From", "Unknown"),
		Timestamp:          headerOrDefault(msg, "Date", "Unknown"),
	}

	s.logger.Debug("Analysis completed",
		zap.Float64("threat_score", result.ThreatScore),
		zap.String("risk_level", result.RiskLevel))

	return result
}

func (s *AnalyzerService) extractHeaders(msg *RawMessage) (findings *HeaderFindings) {
	defer func() {
		if r := recover(); r != nil {
			err := &AnalysisError{Stage: "header", Err: fmt.Errorf("%v", r)}
			s.logger.Error("Header extraction failed", zap.Error(err))
			findings = &HeaderFindings{
				RiskIndicators:        []string{},
				SuspiciousPatterns:    []string{},
				AuthenticationResults: map[string]string{},
				Error:                 err.Error(),
			}
		}
	}()
	return s.headers.Extract(msg)
}

func (s *AnalyzerService) extractBody(msg *RawMessage) (findings *BodyFindings) {
	defer func() {
		if r := recover(); r != nil {
			err := &AnalysisError{Stage: "content", Err: fmt.Errorf("%v", r)}
			s.logger.Error("Body extraction failed", zap.Error(err))
			findings = &BodyFindings{
				SuspiciousKeywords: []string{},
				UrgencyIndicators:  []string{},
				Error:              err.Error(),
			}
		}
	}()
	return s.body.Extract(msg)
}

func (s *AnalyzerService) extractLinks(msg *RawMessage) (findings *LinkFindings) {
	defer func() {
		if r := recover(); r != nil {
			err := &AnalysisError{Stage: "link", Err: fmt.Errorf("%v", r)}
			s.logger.Error("Link extraction failed", zap.Error(err))
			findings = &LinkFindings{
				SuspiciousLinks:  []string{},
				Redirects:        []string{},
				MaliciousDomains: []string{},
				Error:            err.Error(),
			}
		}
	}()
	return s.links.Extract(msg)
}

func (s *AnalyzerService) extractAttachments(msg *RawMessage) (findings *AttachmentFindings) {
	defer func() {
		if r := recover(); r != nil {
			err := &AnalysisError{Stage: "attachment", Err: fmt.Errorf("%v", r)}
			s.logger.Error("Attachment extraction failed", zap.Error(err))
			findings = &AttachmentFindings{
				SuspiciousAttachments: []string{},
				FileTypes:             []string{},
				Error:                 err.Error(),
			}
		}
	}()
	return s.attachments.Extract(msg)
}

func (s *AnalyzerService) failedResult(err error) *AnalysisResult {
	return &AnalysisResult{
		ThreatScore: 0.0,
		RiskLevel:   RiskUnknown,
		Error:       err.Error(),
	}
}

func headerOrDefault(msg *RawMessage, name, fallback string) string {
	if v := msg.Headers.Get(name); v != "" {
		return v
	}
	return fallback
}
