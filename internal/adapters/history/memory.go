package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/itx-nasir/phish-guard/internal/ports"
	"go.uber.org/zap"
)

const defaultPerPage = 20

// MemoryHistory is an in-memory implementation of the
// HistoryRepository interface, suitable for development and tests.
type MemoryHistory struct {
	mu      sync.RWMutex
	records []*ports.AnalysisRecord
	byTask  map[string]struct{}
	daily   map[string]*dailyAggregate
	logger  *zap.Logger
}

type dailyAggregate struct {
	stats      ports.DailyStatistics
	totalScore float64
}

// NewMemoryHistory creates a new in-memory history repository
func NewMemoryHistory(logger *zap.Logger) *MemoryHistory {
	return &MemoryHistory{
		byTask: make(map[string]struct{}),
		daily:  make(map[string]*dailyAggregate),
		logger: logger,
	}
}

// Save stores one record and updates the daily counters
func (h *MemoryHistory) Save(_ context.Context, record *ports.AnalysisRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.byTask[record.TaskID]; exists {
		h.logger.Debug("Analysis record already stored", zap.String("task_id", record.TaskID))
		return nil
	}

	h.byTask[record.TaskID] = struct{}{}
	h.records = append(h.records, record)

	day := record.CreatedAt.Format("2006-01-02")
	agg, ok := h.daily[day]
	if !ok {
		agg = &dailyAggregate{stats: ports.DailyStatistics{Date: day}}
		h.daily[day] = agg
	}
	applyToDaily(agg, record)

	return nil
}

func applyToDaily(agg *dailyAggregate, record *ports.AnalysisRecord) {
	agg.stats.TotalAnalyses++
	switch record.RiskLevel {
	case "high":
		agg.stats.HighRiskCount++
	case "medium":
		agg.stats.MediumRiskCount++
	case "low":
		agg.stats.LowRiskCount++
	}
	if record.AnalysisType == "file" {
		agg.stats.FileAnalyses++
	} else {
		agg.stats.ContentAnalyses++
	}
	agg.totalScore += record.ThreatScore
	agg.stats.AvgThreatScore = agg.totalScore / float64(agg.stats.TotalAnalyses)
}

// List returns a filtered, paginated view, most recent first
func (h *MemoryHistory) List(_ context.Context, filter ports.HistoryFilter) (*ports.HistoryPage, error) {
	page, perPage := normalizePaging(filter)

	h.mu.RLock()
	defer h.mu.RUnlock()

	matched := make([]*ports.AnalysisRecord, 0, len(h.records))
	// Records accumulate in insertion order; walk backwards for most
	// recent first
	for i := len(h.records) - 1; i >= 0; i-- {
		if recordMatches(h.records[i], filter) {
			matched = append(matched, h.records[i])
		}
	}

	return paginate(matched, page, perPage), nil
}

func recordMatches(record *ports.AnalysisRecord, filter ports.HistoryFilter) bool {
	if filter.RiskLevel != "" && record.RiskLevel != filter.RiskLevel {
		return false
	}
	day := record.CreatedAt.Truncate(24 * time.Hour)
	if filter.DateFrom != nil && day.Before(filter.DateFrom.Truncate(24*time.Hour)) {
		return false
	}
	if filter.DateTo != nil && day.After(filter.DateTo.Truncate(24*time.Hour)) {
		return false
	}
	return true
}

func normalizePaging(filter ports.HistoryFilter) (page, perPage int) {
	page = filter.Page
	if page < 1 {
		page = 1
	}
	perPage = filter.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return page, perPage
}

func paginate(matched []*ports.AnalysisRecord, page, perPage int) *ports.HistoryPage {
	total := len(matched)
	pages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return &ports.HistoryPage{
		Results:     matched[start:end],
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
		PerPage:     perPage,
		HasNext:     page < pages,
		HasPrev:     page > 1 && total > 0,
	}
}

// Summary returns the overall aggregates plus the last seven days of
// daily activity
func (h *MemoryHistory) Summary(_ context.Context) (*ports.StatisticsSummary, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	summary := &ports.StatisticsSummary{
		TotalAnalyses:    len(h.records),
		RiskDistribution: map[string]int{"high": 0, "medium": 0, "low": 0},
		AnalysisTypes:    map[string]int{"file": 0, "content": 0},
		RecentActivity:   []*ports.DailyStatistics{},
	}

	var totalScore float64
	for _, record := range h.records {
		if _, ok := summary.RiskDistribution[record.RiskLevel]; ok {
			summary.RiskDistribution[record.RiskLevel]++
		}
		if _, ok := summary.AnalysisTypes[record.AnalysisType]; ok {
			summary.AnalysisTypes[record.AnalysisType]++
		}
		totalScore += record.ThreatScore
	}
	if len(h.records) > 0 {
		summary.AvgThreatScore = totalScore / float64(len(h.records))
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02")
	days := make([]string, 0, len(h.daily))
	for day := range h.daily {
		if day >= cutoff {
			days = append(days, day)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	if len(days) > 7 {
		days = days[:7]
	}
	for _, day := range days {
		stats := h.daily[day].stats
		summary.RecentActivity = append(summary.RecentActivity, &stats)
	}

	return summary, nil
}

// Close is a no-op for the in-memory repository
// Trend returns one entry per day covering the requested period,
// oldest first
func (h *MemoryHistory) Trend(_ context.Context, days int) ([]*ports.DailyStatistics, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	byDate := make(map[string]*ports.DailyStatistics, len(h.daily))
	for day, agg := range h.daily {
		stats := agg.stats
		byDate[day] = &stats
	}
	return fillTrend(days, byDate), nil
}

func (h *MemoryHistory) Close() error {
	return nil
}
