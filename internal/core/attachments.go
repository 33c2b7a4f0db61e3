package core

// AttachmentExtractor flags attachments whose extension is in the
// dangerous set. Matching is extension-only; attachment content is
// never inspected.
type AttachmentExtractor struct {
	dangerous map[string]struct{}
}

// NewAttachmentExtractor creates an attachment extractor from the
// configured extension set. With FlagArchives set, zip archives are
// flagged as well.
func NewAttachmentExtractor(cfg AnalysisConfig) *AttachmentExtractor {
	dangerous := make(map[string]struct{}, len(cfg.DangerousExtensions)+1)
	for _, ext := range cfg.DangerousExtensions {
		dangerous[ext] = struct{}{}
	}
	if cfg.FlagArchives {
		dangerous["zip"] = struct{}{}
	}
	return &AttachmentExtractor{dangerous: dangerous}
}

// Extract records every attachment's extension and flags the dangerous
// subset. Filenames without an extension are recorded nowhere and
// never flagged.
func (e *AttachmentExtractor) Extract(msg *RawMessage) *AttachmentFindings {
	findings := &AttachmentFindings{
		SuspiciousAttachments: []string{},
		FileTypes:             []string{},
	}

	for _, att := range msg.Attachments {
		if att.Extension == "" {
			continue
		}
		findings.FileTypes = append(findings.FileTypes, att.Extension)
		if _, ok := e.dangerous[att.Extension]; ok {
			findings.SuspiciousAttachments = append(findings.SuspiciousAttachments, att.Filename)
		}
	}

	return findings
}
