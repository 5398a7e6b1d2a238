package job

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("job not found")
	ErrNotRetryable = errors.New("job is not in a retryable state")
)

// JobType represents the kind of job
type JobType string

const (
	JobTranslateTranscript JobType = "translate_transcript"
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job represents a queued transcript task
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Status      JobStatus       `json:"status"`
	VideoID     string          `json:"video_id"`
	Params      json.RawMessage `json:"params"`
	Progress    float64         `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// TranslateTranscriptParams are parameters for a transcript translation job
type TranslateTranscriptParams struct {
	TargetLang string   `json:"target_lang"`         // "es", "pt", "de", etc.
	Languages  []string `json:"languages,omitempty"` // preferred caption languages
}

// JobHandler processes a job. Implementations set job.Result before returning nil.
type JobHandler func(ctx context.Context, job *Job, updateProgress func(float64)) error
