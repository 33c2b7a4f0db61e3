package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/itx-nasir/phish-guard/internal/ports"
)

// Helpers shared by the SQLite and MySQL repositories.

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// trendDates returns each calendar date from days days ago through
// today, oldest first
func trendDates(days int) []string {
	today := time.Now().UTC()
	dates := make([]string, 0, days+1)
	for d := today.AddDate(0, 0, -days); !d.After(today); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates
}

// fillTrend completes a sparse set of daily statistics into one entry
// per date in the period, zero-valued where nothing was recorded
func fillTrend(days int, byDate map[string]*ports.DailyStatistics) []*ports.DailyStatistics {
	dates := trendDates(days)
	trend := make([]*ports.DailyStatistics, 0, len(dates))
	for _, date := range dates {
		if stats, ok := byDate[date]; ok {
			trend = append(trend, stats)
		} else {
			trend = append(trend, &ports.DailyStatistics{Date: date})
		}
	}
	return trend
}

// statIncrements returns the per-column increments a record
// contributes to its day's counters
func statIncrements(record *ports.AnalysisRecord) (high, medium, low, file, content int) {
	switch record.RiskLevel {
	case "high":
		high = 1
	case "medium":
		medium = 1
	case "low":
		low = 1
	}
	if record.AnalysisType == "file" {
		file = 1
	} else {
		content = 1
	}
	return high, medium, low, file, content
}

// buildListFilter assembles the WHERE clause for a history listing.
// dateExpr is the driver-specific expression extracting the calendar
// date of created_at.
func buildListFilter(filter ports.HistoryFilter, dateExpr string) (string, []any) {
	clauses := []string{}
	args := []any{}

	if filter.RiskLevel != "" {
		clauses = append(clauses, "risk_level = ?")
		args = append(args, filter.RiskLevel)
	}
	if filter.DateFrom != nil {
		clauses = append(clauses, dateExpr+" >= ?")
		args = append(args, filter.DateFrom.Format("2006-01-02"))
	}
	if filter.DateTo != nil {
		clauses = append(clauses, dateExpr+" <= ?")
		args = append(args, filter.DateTo.Format("2006-01-02"))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanRecord(rows *sql.Rows, timeLayout string) (*ports.AnalysisRecord, error) {
	var record ports.AnalysisRecord
	var header, content, link, attachment, recommendations string
	var fileSize sql.NullInt64
	var createdAt string

	err := rows.Scan(
		&record.TaskID, &record.Subject, &record.Sender, &record.Timestamp,
		&record.ThreatScore, &record.RiskLevel,
		&header, &content, &link, &attachment, &recommendations,
		&record.AnalysisType, &fileSize, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	record.HeaderAnalysis = rawJSON(header)
	record.ContentAnalysis = rawJSON(content)
	record.LinkAnalysis = rawJSON(link)
	record.AttachmentAnalysis = rawJSON(attachment)
	record.Recommendations = rawJSON(recommendations)

	if fileSize.Valid {
		record.FileSize = &fileSize.Int64
	}

	parsed, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	record.CreatedAt = parsed

	return &record, nil
}

func rawJSON(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}

func scanDailyStatistics(rows *sql.Rows) (*ports.DailyStatistics, error) {
	var stats ports.DailyStatistics
	var totalScore float64

	err := rows.Scan(
		&stats.Date, &stats.TotalAnalyses,
		&stats.HighRiskCount, &stats.MediumRiskCount, &stats.LowRiskCount,
		&stats.FileAnalyses, &stats.ContentAnalyses, &totalScore,
	)
	if err != nil {
		return nil, err
	}

	if stats.TotalAnalyses > 0 {
		stats.AvgThreatScore = totalScore / float64(stats.TotalAnalyses)
	}

	return &stats, nil
}

func groupCounts(ctx context.Context, db *sql.DB, query string, into map[string]int) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query group counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan group count: %w", err)
		}
		if _, ok := into[key]; ok {
			into[key] = count
		}
	}
	return rows.Err()
}

func newEmptySummary() *ports.StatisticsSummary {
	return &ports.StatisticsSummary{
		RiskDistribution: map[string]int{"high": 0, "medium": 0, "low": 0},
		AnalysisTypes:    map[string]int{"file": 0, "content": 0},
		RecentActivity:   []*ports.DailyStatistics{},
	}
}
