package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/itx-nasir/phish-guard/internal/core"
)

// AnalysisRecord is one durable row of analysis history. The findings
// sections are stored as JSON blobs so backends stay schema-stable as
// the engine's findings evolve.
type AnalysisRecord struct {
	TaskID             string          `json:"task_id"`
	Subject            string          `json:"subject"`
	Sender             string          `json:"sender"`
	Timestamp          string          `json:"timestamp"`
	ThreatScore        float64         `json:"threat_score"`
	RiskLevel          string          `json:"risk_level"`
	HeaderAnalysis     json.RawMessage `json:"header_analysis,omitempty"`
	ContentAnalysis    json.RawMessage `json:"content_analysis,omitempty"`
	LinkAnalysis       json.RawMessage `json:"link_analysis,omitempty"`
	AttachmentAnalysis json.RawMessage `json:"attachment_analysis,omitempty"`
	Recommendations    json.RawMessage `json:"recommendations,omitempty"`
	AnalysisType       string          `json:"analysis_type"`
	FileSize           *int64          `json:"file_size,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// NewAnalysisRecord builds a record from an engine result. Marshal
// failures of individual sections leave that section empty rather than
// losing the record.
func NewAnalysisRecord(taskID string, result *core.AnalysisResult, analysisType string, fileSize *int64) *AnalysisRecord {
	record := &AnalysisRecord{
		TaskID:       taskID,
		Subject:      result.Subject,
		Sender:       result.Sender,
		Timestamp:    result.Timestamp,
		ThreatScore:  result.ThreatScore,
		RiskLevel:    result.RiskLevel,
		AnalysisType: analysisType,
		FileSize:     fileSize,
		CreatedAt:    time.Now().UTC(),
	}

	record.HeaderAnalysis = marshalSection(result.HeaderAnalysis)
	record.ContentAnalysis = marshalSection(result.ContentAnalysis)
	record.LinkAnalysis = marshalSection(result.LinkAnalysis)
	record.AttachmentAnalysis = marshalSection(result.AttachmentAnalysis)
	record.Recommendations = marshalSection(result.Recommendations)

	return record
}

func marshalSection(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return nil
	}
	return data
}

// HistoryFilter narrows and pages a history listing
type HistoryFilter struct {
	Page      int
	PerPage   int
	RiskLevel string
	DateFrom  *time.Time
	DateTo    *time.Time
}

// HistoryPage is one page of history results
type HistoryPage struct {
	Results     []*AnalysisRecord `json:"results"`
	Total       int               `json:"total"`
	Pages       int               `json:"pages"`
	CurrentPage int               `json:"current_page"`
	PerPage     int               `json:"per_page"`
	HasNext     bool              `json:"has_next"`
	HasPrev     bool              `json:"has_prev"`
}

// DailyStatistics holds the aggregate counters for one calendar date
type DailyStatistics struct {
	Date            string  `json:"date"`
	TotalAnalyses   int     `json:"total_analyses"`
	HighRiskCount   int     `json:"high_risk_count"`
	MediumRiskCount int     `json:"medium_risk_count"`
	LowRiskCount    int     `json:"low_risk_count"`
	FileAnalyses    int     `json:"file_analyses"`
	ContentAnalyses int     `json:"content_analyses"`
	AvgThreatScore  float64 `json:"avg_threat_score"`
}

// StatisticsSummary is the overall aggregate view
type StatisticsSummary struct {
	TotalAnalyses    int                `json:"total_analyses"`
	RiskDistribution map[string]int     `json:"risk_distribution"`
	AnalysisTypes    map[string]int     `json:"analysis_types"`
	AvgThreatScore   float64            `json:"avg_threat_score"`
	RecentActivity   []*DailyStatistics `json:"recent_activity"`
}

// HistoryRepository stores analysis results and their daily
// aggregates. The engine never reads history; the read methods serve
// the API layer.
type HistoryRepository interface {
	// Save stores one record and updates the daily counters. Saving an
	// already-stored task ID is a no-op.
	Save(ctx context.Context, record *AnalysisRecord) error

	// List returns a filtered, paginated history view, most recent
	// first
	List(ctx context.Context, filter HistoryFilter) (*HistoryPage, error)

	// Summary returns the overall aggregates plus recent daily activity
	Summary(ctx context.Context) (*StatisticsSummary, error)

	// Trend returns one entry per calendar day covering the past days
	// days through today, oldest first. Days without activity appear
	// as zero-valued entries.
	Trend(ctx context.Context, days int) ([]*DailyStatistics, error)

	// Close releases the backing store
	Close() error
}
