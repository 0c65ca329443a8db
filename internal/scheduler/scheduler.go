// Package scheduler runs recurring pipeline jobs on cron expressions.
package scheduler

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/pipeline"
)

// JobSpec is one recurring trigger: the same source re-ingested on a
// schedule, e.g. a news page every morning.
type JobSpec struct {
	Schedule        string `json:"schedule"`
	Source          string `json:"source"`
	SourceType      string `json:"source_type"`
	Topic           string `json:"topic"`
	Language        string `json:"language,omitempty"`
	Style           string `json:"style,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

type Scheduler struct {
	cron    *cron.Cron
	trigger func(job *pipeline.Job)
	log     *zap.Logger
}

func New(trigger func(job *pipeline.Job), log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		trigger: trigger,
		log:     log,
	}
}

// Add registers a recurring job. Standard 5-field cron expressions.
func (s *Scheduler) Add(spec JobSpec) error {
	_, err := s.cron.AddFunc(spec.Schedule, func() {
		job := pipeline.NewJob(spec.Source, spec.SourceType, spec.Topic)
		job.Language = spec.Language
		job.Style = spec.Style
		job.TargetDuration = spec.DurationSeconds
		s.log.Info("scheduled job fired",
			zap.String("job", job.ID),
			zap.String("schedule", spec.Schedule),
			zap.String("source", spec.Source))
		s.trigger(job)
	})
	return err
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for any in-flight cron callback to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
