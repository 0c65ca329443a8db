package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/config"
)

// Recorder persists job and stage history. Recording failures are logged
// but never fail the run; history is advisory, artifacts are the truth.
type Recorder interface {
	JobStarted(job *Job) error
	StageCompleted(job *Job, res StageResult) error
	JobFinished(job *Job) error
}

// Notifier receives every stage status change (websocket hub, NATS, ...).
type Notifier func(job *Job, res StageResult)

// reportStages verify and record their artifact but do not replace the
// hand-off: the next stage still consumes the upstream pipeline artifact
// (quality control sits between composition and upload without breaking
// the video hand-off).
var reportStages = map[string]bool{
	StageQualityControl: true,
	StageContent:        true,
	StageDiagnostics:    true,
}

// maintenanceStages still run, best-effort, after a terminal failure.
var maintenanceStages = map[string]bool{
	StageContent:     true,
	StageDiagnostics: true,
}

// Runner sequences the nine stages for one job.
type Runner struct {
	cfg      *config.Config
	stages   []Stage
	recorder Recorder
	notify   Notifier
	sleep    func(time.Duration)
	log      *zap.Logger
}

type RunnerOption func(*Runner)

func WithRecorder(r Recorder) RunnerOption { return func(rn *Runner) { rn.recorder = r } }

func WithNotifier(n Notifier) RunnerOption { return func(rn *Runner) { rn.notify = n } }

// WithSleep overrides the inter-attempt pause, for tests.
func WithSleep(f func(time.Duration)) RunnerOption { return func(rn *Runner) { rn.sleep = f } }

func NewRunner(cfg *config.Config, stages []Stage, log *zap.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:    cfg,
		stages: stages,
		sleep:  time.Sleep,
		log:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the stages in fixed order. A stage starts only after the
// previous stage's artifact is confirmed on disk; a terminal failure
// halts forward progress, then the maintenance stages run best-effort.
// The returned error is the first terminal StageError, nil on success.
func (r *Runner) Run(ctx context.Context, job *Job) (*JobResult, error) {
	result := &JobResult{Job: job}
	job.Status = StatusRunning
	if r.recorder != nil {
		if err := r.recorder.JobStarted(job); err != nil {
			r.log.Warn("record job start failed", zap.String("job", job.ID), zap.Error(err))
		}
	}

	handoff := job.Source
	var terminal *StageError

	for i, stage := range r.stages {
		if terminal != nil && !maintenanceStages[stage.Name()] {
			continue
		}

		// Cancellation is honored between stages only; an in-flight
		// attempt completes or times out on its own.
		if err := ctx.Err(); err != nil && terminal == nil {
			terminal = NewStageError(stage.Name(), KindPermanent, "job cancelled", err)
			job.Status = StatusFailed
			break
		}

		// After a failure CurrentStage keeps pointing at the failed
		// stage while maintenance stages run.
		if terminal == nil {
			job.CurrentStage = stage.Name()
		}

		if stage.Name() == StageQualityControl && !r.cfg.Base.EnableQualityChecks {
			res := StageResult{Stage: stage.Name(), Status: StatusSkipped}
			r.report(job, &result.Stages, res)
			continue
		}

		if i > 0 && terminal == nil {
			if err := verifyArtifact(handoff); err != nil {
				se := NewStageError(stage.Name(), KindArtifact, "upstream artifact missing", err)
				r.failStage(job, result, se, 0, 0)
				terminal = se
				continue
			}
		}

		res, se := r.runStage(ctx, stage, job, handoff)
		if se != nil {
			if maintenanceStages[stage.Name()] && terminal != nil {
				// Post-failure maintenance never changes the outcome.
				res.Status = StatusFailed
				res.ErrorKind = se.Kind
				res.Error = se.Error()
				r.report(job, &result.Stages, res)
				continue
			}
			r.failStage(job, result, se, res.Retries, res.Duration)
			terminal = se
			continue
		}

		r.report(job, &result.Stages, res)
		if res.Artifact != "" && !reportStages[stage.Name()] {
			handoff = res.Artifact
		}
	}

	if terminal == nil {
		job.Status = StatusSucceeded
		job.CurrentStage = ""
	} else {
		job.Status = StatusFailed
	}
	if r.recorder != nil {
		if err := r.recorder.JobFinished(job); err != nil {
			r.log.Warn("record job finish failed", zap.String("job", job.ID), zap.Error(err))
		}
	}
	if terminal != nil {
		return result, terminal
	}
	return result, nil
}

// runStage applies the retry policy around one adapter.
func (r *Runner) runStage(ctx context.Context, stage Stage, job *Job, input string) (StageResult, *StageError) {
	modCfg := r.cfg.Module(stage.Name())
	retryDelay := time.Duration(r.cfg.Base.RetryDelaySeconds) * time.Second
	start := time.Now()

	var lastErr *StageError
	for attempt := 0; attempt <= r.cfg.Base.MaxRetries; attempt++ {
		if attempt > 0 {
			r.log.Warn("retrying stage",
				zap.String("job", job.ID),
				zap.String("stage", stage.Name()),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			r.sleep(retryDelay)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, modCfg.Timeout())
		out, err := stage.Execute(attemptCtx, job, input, modCfg)
		cancel()

		if err == nil {
			return StageResult{
				Stage:    stage.Name(),
				Status:   StatusSucceeded,
				Artifact: out.Artifact,
				Extra:    out.Extra,
				Retries:  attempt,
				Duration: time.Since(start),
			}, nil
		}

		lastErr = Classify(stage.Name(), err)
		if !lastErr.Retryable() {
			return StageResult{Stage: stage.Name(), Retries: attempt, Duration: time.Since(start)}, lastErr
		}
	}
	return StageResult{Stage: stage.Name(), Retries: r.cfg.Base.MaxRetries, Duration: time.Since(start)}, lastErr
}

func (r *Runner) failStage(job *Job, result *JobResult, se *StageError, retries int, dur time.Duration) {
	res := StageResult{
		Stage:     se.Stage,
		Status:    StatusFailed,
		ErrorKind: se.Kind,
		Error:     se.Error(),
		Retries:   retries,
		Duration:  dur,
	}
	r.log.Error("stage failed",
		zap.String("job", job.ID),
		zap.String("stage", se.Stage),
		zap.String("kind", string(se.Kind)),
		zap.Int("retries", retries),
		zap.Error(se))
	r.report(job, &result.Stages, res)
}

func (r *Runner) report(job *Job, history *[]StageResult, res StageResult) {
	*history = append(*history, res)
	if res.Status == StatusSucceeded {
		r.log.Info("stage completed",
			zap.String("job", job.ID),
			zap.String("stage", res.Stage),
			zap.String("artifact", res.Artifact),
			zap.Duration("duration", res.Duration))
	}
	if r.recorder != nil {
		if err := r.recorder.StageCompleted(job, res); err != nil {
			r.log.Warn("record stage failed", zap.String("stage", res.Stage), zap.Error(err))
		}
	}
	if r.notify != nil {
		r.notify(job, res)
	}
}

// verifyArtifact checks that the upstream output exists and is non-empty.
// Directories count as non-empty when they contain at least one entry.
func verifyArtifact(path string) error {
	if path == "" {
		return fmt.Errorf("no artifact recorded")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("artifact directory %s is empty", path)
		}
		return nil
	}
	if info.Size() == 0 {
		return fmt.Errorf("artifact %s is empty", path)
	}
	return nil
}
