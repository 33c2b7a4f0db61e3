package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/itx-nasir/phish-guard/internal/ports"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteHistory is a SQLite implementation of the HistoryRepository
// interface
type SQLiteHistory struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteHistory creates a new SQLite history repository
func NewSQLiteHistory(dbPath string, logger *zap.Logger) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_results (
			task_id TEXT PRIMARY KEY,
			subject TEXT,
			sender TEXT,
			timestamp TEXT,
			threat_score REAL NOT NULL,
			risk_level TEXT NOT NULL,
			header_analysis TEXT,
			content_analysis TEXT,
			link_analysis TEXT,
			attachment_analysis TEXT,
			recommendations TEXT,
			analysis_type TEXT,
			file_size INTEGER,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create results table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_results_created_at ON analysis_results(created_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_statistics (
			date TEXT PRIMARY KEY,
			total_analyses INTEGER NOT NULL DEFAULT 0,
			high_risk_count INTEGER NOT NULL DEFAULT 0,
			medium_risk_count INTEGER NOT NULL DEFAULT 0,
			low_risk_count INTEGER NOT NULL DEFAULT 0,
			file_analyses INTEGER NOT NULL DEFAULT 0,
			content_analyses INTEGER NOT NULL DEFAULT 0,
			total_threat_score REAL NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create statistics table: %w", err)
	}

	return &SQLiteHistory{db: db, logger: logger}, nil
}

// Save stores one record and updates the daily counters
func (h *SQLiteHistory) Save(ctx context.Context, record *ports.AnalysisRecord) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO analysis_results (
			task_id, subject, sender, timestamp, threat_score, risk_level,
			header_analysis, content_analysis, link_analysis, attachment_analysis,
			recommendations, analysis_type, file_size, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.TaskID, record.Subject, record.Sender, record.Timestamp,
		record.ThreatScore, record.RiskLevel,
		string(record.HeaderAnalysis), string(record.ContentAnalysis),
		string(record.LinkAnalysis), string(record.AttachmentAnalysis),
		string(record.Recommendations), record.AnalysisType,
		nullableInt64(record.FileSize), record.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert: %w", err)
	}
	if inserted == 0 {
		// Already stored under this task ID
		h.logger.Debug("Analysis record already stored", zap.String("task_id", record.TaskID))
		return nil
	}

	high, medium, low, file, content := statIncrements(record)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_statistics (
			date, total_analyses, high_risk_count, medium_risk_count,
			low_risk_count, file_analyses, content_analyses, total_threat_score
		) VALUES (?, 1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			total_analyses = total_analyses + 1,
			high_risk_count = high_risk_count + excluded.high_risk_count,
			medium_risk_count = medium_risk_count + excluded.medium_risk_count,
			low_risk_count = low_risk_count + excluded.low_risk_count,
			file_analyses = file_analyses + excluded.file_analyses,
			content_analyses = content_analyses + excluded.content_analyses,
			total_threat_score = total_threat_score + excluded.total_threat_score
	`,
		record.CreatedAt.Format("2006-01-02"),
		high, medium, low, file, content, record.ThreatScore,
	)
	if err != nil {
		return fmt.Errorf("failed to update statistics: %w", err)
	}

	return tx.Commit()
}

// List returns a filtered, paginated view, most recent first
func (h *SQLiteHistory) List(ctx context.Context, filter ports.HistoryFilter) (*ports.HistoryPage, error) {
	page, perPage := normalizePaging(filter)

	where, args := buildListFilter(filter, "date(created_at)")

	var total int
	if err := h.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM analysis_results"+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	query := `
		SELECT task_id, subject, sender, timestamp, threat_score, risk_level,
			header_analysis, content_analysis, link_analysis, attachment_analysis,
			recommendations, analysis_type, file_size, created_at
		FROM analysis_results` + where + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
	rows, err := h.db.QueryContext(ctx, query, append(args, perPage, (page-1)*perPage)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	results := []*ports.AnalysisRecord{}
	for rows.Next() {
		record, err := scanRecord(rows, time.RFC3339)
		if err != nil {
			h.logger.Error("Failed to scan history record", zap.Error(err))
			continue
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	pages := (total + perPage - 1) / perPage
	return &ports.HistoryPage{
		Results:     results,
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
		PerPage:     perPage,
		HasNext:     page < pages,
		HasPrev:     page > 1 && total > 0,
	}, nil
}

// Summary returns the overall aggregates plus the last seven days of
// daily activity
func (h *SQLiteHistory) Summary(ctx context.Context) (*ports.StatisticsSummary, error) {
	summary := newEmptySummary()

	if err := h.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(AVG(threat_score), 0) FROM analysis_results",
	).Scan(&summary.TotalAnalyses, &summary.AvgThreatScore); err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}

	if err := groupCounts(ctx, h.db,
		"SELECT risk_level, COUNT(*) FROM analysis_results GROUP BY risk_level",
		summary.RiskDistribution); err != nil {
		return nil, err
	}
	if err := groupCounts(ctx, h.db,
		"SELECT analysis_type, COUNT(*) FROM analysis_results GROUP BY analysis_type",
		summary.AnalysisTypes); err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02")
	rows, err := h.db.QueryContext(ctx, `
		SELECT date, total_analyses, high_risk_count, medium_risk_count,
			low_risk_count, file_analyses, content_analyses, total_threat_score
		FROM analysis_statistics
		WHERE date >= ?
		ORDER BY date DESC
		LIMIT 7
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		stats, err := scanDailyStatistics(rows)
		if err != nil {
			h.logger.Error("Failed to scan daily statistics", zap.Error(err))
			continue
		}
		summary.RecentActivity = append(summary.RecentActivity, stats)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statistics: %w", err)
	}

	return summary, nil
}

// Trend returns one entry per day covering the requested period,
// oldest first
func (h *SQLiteHistory) Trend(ctx context.Context, days int) ([]*ports.DailyStatistics, error) {
	start := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	rows, err := h.db.QueryContext(ctx, `
		SELECT date, total_analyses, high_risk_count, medium_risk_count,
			low_risk_count, file_analyses, content_analyses, total_threat_score
		FROM analysis_statistics
		WHERE date >= ?
		ORDER BY date ASC
	`, start)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	byDate := map[string]*ports.DailyStatistics{}
	for rows.Next() {
		stats, err := scanDailyStatistics(rows)
		if err != nil {
			h.logger.Error("Failed to scan daily statistics", zap.Error(err))
			continue
		}
		byDate[stats.Date] = stats
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statistics: %w", err)
	}

	return fillTrend(days, byDate), nil
}

// Close closes the database connection
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}
