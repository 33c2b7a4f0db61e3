package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itx-nasir/phish-guard/internal/ports"
)

func testRecord(taskID, riskLevel, analysisType string, score float64, createdAt time.Time) *ports.AnalysisRecord {
	return &ports.AnalysisRecord{
		TaskID:       taskID,
		Subject:      "Subject " + taskID,
		Sender:       "sender@example.com",
		ThreatScore:  score,
		RiskLevel:    riskLevel,
		AnalysisType: analysisType,
		CreatedAt:    createdAt,
	}
}

func TestMemoryHistory_SaveAndList(t *testing.T) {
	repo := NewMemoryHistory(zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, testRecord("a", "high", "content", 0.9, now.Add(-2*time.Hour))))
	require.NoError(t, repo.Save(ctx, testRecord("b", "low", "file", 0.1, now.Add(-time.Hour))))
	require.NoError(t, repo.Save(ctx, testRecord("c", "high", "content", 0.8, now)))

	page, err := repo.List(ctx, ports.HistoryFilter{})
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Results, 3)
	// Most recent first
	assert.Equal(t, "c", page.Results[0].TaskID)
	assert.Equal(t, "b", page.Results[1].TaskID)
	assert.Equal(t, "a", page.Results[2].TaskID)
}

func TestMemoryHistory_SaveIsIdempotentPerTaskID(t *testing.T) {
	repo := NewMemoryHistory(zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, testRecord("dup", "high", "content", 0.9, now)))
	require.NoError(t, repo.Save(ctx, testRecord("dup", "high", "content", 0.9, now)))

	page, err := repo.List(ctx, ports.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	summary, err := repo.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalAnalyses)
}

func TestMemoryHistory_RiskLevelFilter(t *testing.T) {
	repo := NewMemoryHistory(zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, testRecord("a", "high", "content", 0.9, now)))
	require.NoError(t, repo.Save(ctx, testRecord("b", "low", "content", 0.1, now)))

	page, err := repo.List(ctx, ports.HistoryFilter{RiskLevel: "high"})
	require.NoError(t, err)

	require.Len(t, page.Results, 1)
	assert.Equal(t, "a", page.Results[0].TaskID)
}

func TestMemoryHistory_DateRangeFilter(t *testing.T) {
	repo := NewMemoryHistory(zap.NewNop())
	ctx := context.Background()

	old := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, testRecord("old", "low", "content", 0.1, old)))
	require.NoError(t, repo.Save(ctx, testRecord("recent", "low", "content", 0.1, recent)))

	from := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	page, err := repo.List(ctx, ports.HistoryFilter{DateFrom: &from})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "recent", page.Results[0].TaskID)

	to := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	page, err = repo.List(ctx, ports.HistoryFilter{DateTo: &to})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "old", page.Results[0].TaskID)
}

func TestMemoryHistory_Pagination(t *testing.T) {
	repo := NewMemoryHistory(zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		record := testRecord(fmt.Sprintf("t%d", i), "low", "content", 0.1, now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Save(ctx, record))
	}

	page, err := repo.List(ctx, ports.HistoryFilter{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Len(t, page.Results, 2)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrev)

	page, err = repo.List(ctx, ports.HistoryFilter{Page: 3, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Results, 1)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)

	page, err = repo.List(ctx, ports.HistoryFilter{Page: 9, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Results)
}

func TestMemoryHistory_Summary(t *testing.T) {
	repo := NewMemoryHistory(zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, testRecord("a", "high", "content", 1.0, now)))
	require.NoError(t, repo.Save(ctx, testRecord("b", "medium", "file", 0.5, now)))
	require.NoError(t, repo.Save(ctx, testRecord("c", "low", "content", 0.0, now)))
	// Failed analyses land outside the three risk buckets
	require.NoError(t, repo.Save(ctx, testRecord("d", "unknown", "content", 0.0, now)))

	summary, err := repo.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalAnalyses)
	assert.Equal(t, map[string]int{"high": 1, "medium": 1, "low": 1}, summary.RiskDistribution)
	assert.Equal(t, map[string]int{"file": 1, "content": 3}, summary.AnalysisTypes)
	assert.InDelta(t, 0.375, summary.AvgThreatScore, 1e-9)

	require.NotEmpty(t, summary.RecentActivity)
	today := summary.RecentActivity[0]
	assert.Equal(t, now.Format("2006-01-02"), today.Date)
	assert.Equal(t, 4, today.TotalAnalyses)
	assert.Equal(t, 1, today.HighRiskCount)
	assert.Equal(t, 1, today.FileAnalyses)
	assert.Equal(t, 3, today.ContentAnalyses)
}

func TestMemoryHistory_EmptySummary(t *testing.T) {
	repo := NewMemoryHistory(zap.NewNop())

	summary, err := repo.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalAnalyses)
	assert.Equal(t, 0.0, summary.AvgThreatScore)
	assert.Empty(t, summary.RecentActivity)
	assert.NotNil(t, summary.RecentActivity)
}

func TestMemoryHistory_Trend(t *testing.T) {
	repo := NewMemoryHistory(zap.NewNop())
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, testRecord("a", "high", "content", 1.0, now)))
	require.NoError(t, repo.Save(ctx, testRecord("b", "low", "file", 0.0, now.AddDate(0, 0, -2))))

	trend, err := repo.Trend(ctx, 7)
	require.NoError(t, err)
	require.Len(t, trend, 8)

	// Oldest first, gaps zero-filled
	for i, stats := range trend {
		assert.Equal(t, now.AddDate(0, 0, i-7).Format("2006-01-02"), stats.Date)
	}

	twoDaysAgo := trend[5]
	assert.Equal(t, 1, twoDaysAgo.TotalAnalyses)
	assert.Equal(t, 1, twoDaysAgo.LowRiskCount)
	assert.Equal(t, 1, twoDaysAgo.FileAnalyses)

	assert.Equal(t, 0, trend[6].TotalAnalyses)

	today := trend[7]
	assert.Equal(t, 1, today.TotalAnalyses)
	assert.Equal(t, 1, today.HighRiskCount)
	assert.InDelta(t, 1.0, today.AvgThreatScore, 1e-9)
}
