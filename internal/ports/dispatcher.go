package ports

import (
	"context"
	"time"

	"github.com/itx-nasir/phish-guard/internal/core"
)

// JobState is the lifecycle state of a submitted analysis job
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateRetrying  JobState = "retrying"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
)

// Job is the pollable view of one submitted analysis
type Job struct {
	ID           string               `json:"id"`
	AnalysisType string               `json:"analysis_type"`
	State        JobState             `json:"state"`
	Result       *core.AnalysisResult `json:"result,omitempty"`
	Error        string               `json:"error,omitempty"`
	Attempts     int                  `json:"attempts"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// Task produces an analysis result. The job ID it runs under is passed
// in so the task can reference it in durable records. A returned error
// marks the attempt failed and eligible for retry; a
// degraded-but-returned result counts as success.
type Task func(ctx context.Context, jobID string) (*core.AnalysisResult, error)

// Dispatcher executes analysis tasks out-of-band and exposes their
// state for polling.
type Dispatcher interface {
	// Submit enqueues a task and returns its job ID
	Submit(analysisType string, task Task) (string, error)

	// Get returns the job for an ID, or false when unknown or expired
	Get(id string) (*Job, bool)

	// Stop drains the workers and stops background maintenance
	Stop()
}
