package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/itx-nasir/phish-guard/internal/ports"
	"go.uber.org/zap"
)

const mysqlTimeLayout = "2006-01-02 15:04:05"

// MySQLHistory is a MySQL implementation of the HistoryRepository
// interface
type MySQLHistory struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLHistory creates a new MySQL history repository
func NewMySQLHistory(dsn string, logger *zap.Logger) (*MySQLHistory, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_results (
			task_id VARCHAR(64) PRIMARY KEY,
			subject TEXT,
			sender VARCHAR(255),
			timestamp VARCHAR(255),
			threat_score DOUBLE NOT NULL,
			risk_level VARCHAR(16) NOT NULL,
			header_analysis TEXT,
			content_analysis TEXT,
			link_analysis TEXT,
			attachment_analysis TEXT,
			recommendations TEXT,
			analysis_type VARCHAR(16),
			file_size BIGINT,
			created_at DATETIME NOT NULL,
			INDEX idx_results_created_at (created_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create results table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_statistics (
			date DATE PRIMARY KEY,
			total_analyses INT NOT NULL DEFAULT 0,
			high_risk_count INT NOT NULL DEFAULT 0,
			medium_risk_count INT NOT NULL DEFAULT 0,
			low_risk_count INT NOT NULL DEFAULT 0,
			file_analyses INT NOT NULL DEFAULT 0,
			content_analyses INT NOT NULL DEFAULT 0,
			total_threat_score DOUBLE NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create statistics table: %w", err)
	}

	return &MySQLHistory{db: db, logger: logger}, nil
}

// Save stores one record and updates the daily counters
func (h *MySQLHistory) Save(ctx context.Context, record *ports.AnalysisRecord) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT IGNORE INTO analysis_results (
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
		nullableInt64(record.FileSize), record.CreatedAt.Format(mysqlTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert: %w", err)
	}
	if inserted == 0 {
		h.logger.Debug("Analysis record already stored", zap.String("task_id", record.TaskID))
		return nil
	}

	high, medium, low, file, content := statIncrements(record)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_statistics (
			date, total_analyses, high_risk_count, medium_risk_count,
			low_risk_count, file_analyses, content_analyses, total_threat_score
		) VALUES (?, 1, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			total_analyses = total_analyses + 1,
			high_risk_count = high_risk_count + VALUES(high_risk_count),
			medium_risk_count = medium_risk_count + VALUES(medium_risk_count),
			low_risk_count = low_risk_count + VALUES(low_risk_count),
			file_analyses = file_analyses + VALUES(file_analyses),
			content_analyses = content_analyses + VALUES(content_analyses),
			total_threat_score = total_threat_score + VALUES(total_threat_score)
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
func (h *MySQLHistory) List(ctx context.Context, filter ports.HistoryFilter) (*ports.HistoryPage, error) {
	page, perPage := normalizePaging(filter)

	where, args := buildListFilter(filter, "DATE(created_at)")

	var total int
	if err := h.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM analysis_results"+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	query := `
		SELECT task_id, subject, sender, timestamp, threat_score, risk_level,
			header_analysis, content_analysis, link_analysis, attachment_analysis,
			recommendations, analysis_type, file_size,
			DATE_FORMAT(created_at, '%Y-%m-%d %H:%i:%s')
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
		record, err := scanRecord(rows, mysqlTimeLayout)
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
func (h *MySQLHistory) Summary(ctx context.Context) (*ports.StatisticsSummary, error) {
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
		SELECT DATE_FORMAT(date, '%Y-%m-%d'), total_analyses, high_risk_count,
			medium_risk_count, low_risk_count, file_analyses, content_analyses,
			total_threat_score
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
func (h *MySQLHistory) Trend(ctx context.Context, days int) ([]*ports.DailyStatistics, error) {
	start := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	rows, err := h.db.QueryContext(ctx, `
		SELECT DATE_FORMAT(date, '%Y-%m-%d'), total_analyses, high_risk_count,
			medium_risk_count, low_risk_count, file_analyses, content_analyses,
			total_threat_score
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
func (h *MySQLHistory) Close() error {
	return h.db.Close()
}
