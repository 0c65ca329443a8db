package pipeline

import (
	"context"

	"github.com/levi616boop/AI-content-gen/internal/config"
)

// Canonical stage names, in fixed execution order.
const (
	StageIngestion      = "ingestion_engine"
	StageScript         = "script_generator"
	StageAnimation      = "animator"
	StageVoice          = "voice_generator"
	StageComposition    = "video_composer"
	StageQualityControl = "quality_control"
	StageUpload         = "uploader"
	StageContent        = "content_manager"
	StageDiagnostics    = "technician_agent"
)

// Output is what an adapter hands back on success. Artifact is the file
// (or directory) the next stage consumes; Extra lists secondary outputs
// such as subtitles or report renderings.
type Output struct {
	Artifact string
	Extra    []string
}

// Stage is the contract every pipeline module adapter implements.
// Execute must be idempotent for a job id (re-running overwrites its
// outputs), must not mutate the input artifact, and reports progress
// only through its return values. Transient failures are retried by the
// driver, not the adapter; adapters classify errors via StageError.
type Stage interface {
	Name() string
	Execute(ctx context.Context, job *Job, input string, cfg *config.Module) (Output, error)
}

// StageFunc adapts a function to the Stage interface, mainly for tests.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, job *Job, input string, cfg *config.Module) (Output, error)
}

func (s StageFunc) Name() string { return s.StageName }

func (s StageFunc) Execute(ctx context.Context, job *Job, input string, cfg *config.Module) (Output, error) {
	return s.Fn(ctx, job, input, cfg)
}
