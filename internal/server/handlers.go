package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/itx-nasir/phish-guard/internal/adapters/upload"
	"github.com/itx-nasir/phish-guard/internal/core"
	"github.com/itx-nasir/phish-guard/internal/ports"
)

// Version is the API version reported by the health endpoint
const Version = "1.0.0"

type handlers struct {
	logger     *zap.Logger
	analyzer   *core.AnalyzerService
	dispatcher ports.Dispatcher
	history    ports.HistoryRepository
	uploads    *upload.Store
	maxBytes   int64
}

type contentRequest struct {
	Content *string `json:"content"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": Version})
}

func (h *handlers) analyzeContent(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No email content provided"})
		return
	}

	content := *req.Content
	if strings.TrimSpace(content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty email content"})
		return
	}

	taskID, err := h.dispatcher.Submit("content", func(ctx context.Context, jobID string) (*core.AnalysisResult, error) {
		result := h.analyzer.AnalyzeContent(ctx, content)
		h.persist(ctx, jobID, result, "content", nil)
		return result, nil
	})
	if err != nil {
		h.logger.Error("Failed to enqueue content analysis", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis queue is full. Please try again later."})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": taskID,
		"status":  "processing",
		"message": "Analysis started successfully",
	})
}

func (h *handlers) analyzeFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if fileHeader.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}

	// Reject obviously oversized uploads before touching the body
	if c.Request.ContentLength > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": h.tooLargeMessage()})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer f.Close()

	path, err := h.uploads.Save(fileHeader.Filename, f)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrInvalidExtension):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file format. Please upload .eml files only"})
		case errors.Is(err, upload.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": h.tooLargeMessage()})
		case errors.Is(err, upload.ErrEmptyFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file is empty"})
		default:
			h.logger.Error("Failed to store uploaded file", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	fileSize := fileHeader.Size

	taskID, err := h.dispatcher.Submit("file", func(ctx context.Context, jobID string) (*core.AnalysisResult, error) {
		defer h.uploads.Remove(path)
		result := h.analyzer.AnalyzeFile(ctx, path)
		h.persist(ctx, jobID, result, "file", &fileSize)
		return result, nil
	})
	if err != nil {
		h.uploads.Remove(path)
		h.logger.Error("Failed to enqueue file analysis", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis queue is full. Please try again later."})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": taskID,
		"status":  "processing",
		"message": "File analysis started successfully",
	})
}

func (h *handlers) analysisResult(c *gin.Context) {
	taskID := c.Param("task_id")

	job, ok := h.dispatcher.Get(taskID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	switch job.State {
	case ports.JobStatePending:
		c.JSON(http.StatusOK, gin.H{
			"status":   "processing",
			"progress": 0,
			"message":  "Task is waiting to be processed",
		})
	case ports.JobStateRetrying:
		c.JSON(http.StatusOK, gin.H{
			"status":   "retrying",
			"progress": 25,
			"message":  "Task is being retried",
		})
	case ports.JobStateSucceeded:
		c.JSON(http.StatusOK, gin.H{
			"status":  "completed",
			"result":  job.Result,
			"message": "Analysis completed successfully",
		})
	case ports.JobStateFailed:
		c.JSON(http.StatusOK, gin.H{
			"status":  "failed",
			"error":   job.Error,
			"message": "Analysis failed",
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"status":   string(job.State),
			"progress": 50,
			"message":  fmt.Sprintf("Task state: %s", job.State),
		})
	}
}

func (h *handlers) listHistory(c *gin.Context) {
	filter := ports.HistoryFilter{
		Page:      intQuery(c, "page", 1),
		PerPage:   intQuery(c, "per_page", 20),
		RiskLevel: strings.ToLower(c.Query("risk_level")),
	}

	for param, dest := range map[string]**time.Time{
		"date_from": &filter.DateFrom,
		"date_to":   &filter.DateTo,
	} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s. Use YYYY-MM-DD", param)})
			return
		}
		*dest = &parsed
	}

	page, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list analysis history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *handlers) trends(c *gin.Context) {
	days := intQuery(c, "days", 30)
	if days > 365 {
		days = 365
	}

	trend, err := h.history.Trend(c.Request.Context(), days)
	if err != nil {
		h.logger.Error("Failed to build trend data", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	today := time.Now().UTC()
	c.JSON(http.StatusOK, gin.H{
		"trend_data":  trend,
		"period_days": days,
		"start_date":  today.AddDate(0, 0, -days).Format("2006-01-02"),
		"end_date":    today.Format("2006-01-02"),
	})
}

func (h *handlers) statistics(c *gin.Context) {
	summary, err := h.history.Summary(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build statistics summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// persist writes a completed analysis to history. Persistence failures
// are logged but never fail the analysis itself.
func (h *handlers) persist(ctx context.Context, jobID string, result *core.AnalysisResult, analysisType string, fileSize *int64) {
	if result == nil {
		return
	}

	record := ports.NewAnalysisRecord(jobID, result, analysisType, fileSize)
	if err := h.history.Save(ctx, record); err != nil {
		h.logger.Error("Failed to save analysis result",
			zap.String("task_id", jobID),
			zap.Error(err))
	}
}

func (h *handlers) tooLargeMessage() string {
	return fmt.Sprintf("File too large. Maximum size is %dMB", h.maxBytes>>20)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
