package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Status values for a job and its stage results.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Job identifies one end-to-end pipeline run. The driver mutates Status
// and CurrentStage in place as stages complete.
type Job struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	SourceType     string    `json:"source_type"`
	Topic          string    `json:"topic"`
	Language       string    `json:"language"`
	Style          string    `json:"style"`
	TargetDuration int       `json:"target_duration_seconds"`
	CreatedAt      time.Time `json:"created_at"`
	CurrentStage   string    `json:"current_stage"`
	Status         string    `json:"status"`
}

// NewJob creates a pending job with a fresh id.
func NewJob(source, sourceType, topic string) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Source:     source,
		SourceType: sourceType,
		Topic:      topic,
		CreatedAt:  time.Now(),
		Status:     StatusPending,
	}
}

// StageResult is one append-only history entry under its owning job.
type StageResult struct {
	Stage     string        `json:"stage"`
	Status    string        `json:"status"`
	Artifact  string        `json:"artifact,omitempty"`
	Extra     []string      `json:"extra_artifacts,omitempty"`
	ErrorKind ErrorKind     `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	Retries   int           `json:"retries"`
	Duration  time.Duration `json:"duration"`
}

// JobResult is the full outcome of one run.
type JobResult struct {
	Job    *Job          `json:"job"`
	Stages []StageResult `json:"stages"`
}

// FirstFailure returns the first terminal stage result, or nil when the
// run succeeded.
func (r *JobResult) FirstFailure() *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Status == StatusFailed {
			return &r.Stages[i]
		}
	}
	return nil
}
