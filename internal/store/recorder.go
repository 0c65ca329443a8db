// Package store persists job history through gorm DAOs and adapts it to
// the pipeline's Recorder contract.
package store

import (
	"context"

	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/store/dao"
	"github.com/levi616boop/AI-content-gen/internal/store/model"
)

// Recorder writes pipeline progress into the history database.
type Recorder struct {
	jobs   dao.JobDao
	stages dao.StageExecDao
}

func NewRecorder() *Recorder {
	return &Recorder{
		jobs:   dao.NewJobDao(),
		stages: dao.NewStageExecDao(),
	}
}

func (r *Recorder) JobStarted(job *pipeline.Job) error {
	return r.jobs.Upsert(context.Background(), toModel(job))
}

func (r *Recorder) StageCompleted(job *pipeline.Job, res pipeline.StageResult) error {
	if err := r.jobs.Upsert(context.Background(), toModel(job)); err != nil {
		return err
	}
	return r.stages.Append(context.Background(), &model.StageExecution{
		JobID:       job.ID,
		Stage:       res.Stage,
		Status:      res.Status,
		Artifact:    res.Artifact,
		ErrorKind:   string(res.ErrorKind),
		ErrorDetail: res.Error,
		Retries:     res.Retries,
		DurationMs:  res.Duration.Milliseconds(),
	})
}

func (r *Recorder) JobFinished(job *pipeline.Job) error {
	return r.jobs.Upsert(context.Background(), toModel(job))
}

func toModel(job *pipeline.Job) *model.Job {
	return &model.Job{
		JobID:          job.ID,
		Source:         job.Source,
		SourceType:     job.SourceType,
		Topic:          job.Topic,
		Language:       job.Language,
		Style:          job.Style,
		TargetDuration: job.TargetDuration,
		Status:         job.Status,
		CurrentStage:   job.CurrentStage,
	}
}
