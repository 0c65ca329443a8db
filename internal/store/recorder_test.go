package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/store/dao"
)

func TestRecorderPersistsRunHistory(t *testing.T) {
	require.NoError(t, dao.Init(filepath.Join(t.TempDir(), "history.db")))
	rec := NewRecorder()

	job := pipeline.NewJob("lecture.pdf", "pdf", "goroutines")
	job.Status = pipeline.StatusRunning
	job.CurrentStage = pipeline.StageIngestion
	require.NoError(t, rec.JobStarted(job))

	require.NoError(t, rec.StageCompleted(job, pipeline.StageResult{
		Stage:    pipeline.StageIngestion,
		Status:   pipeline.StatusSucceeded,
		Artifact: "/data/ingested/x.json",
		Duration: 1500 * time.Millisecond,
	}))
	job.CurrentStage = pipeline.StageScript
	require.NoError(t, rec.StageCompleted(job, pipeline.StageResult{
		Stage:     pipeline.StageScript,
		Status:    pipeline.StatusFailed,
		ErrorKind: pipeline.KindTransient,
		Error:     "rate limited",
		Retries:   3,
	}))

	job.Status = pipeline.StatusFailed
	require.NoError(t, rec.JobFinished(job))

	ctx := context.Background()
	stored, err := dao.NewJobDao().GetByJobID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusFailed, stored.Status)
	assert.Equal(t, "goroutines", stored.Topic)

	execs, err := dao.NewStageExecDao().GetByJobID(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, execs, 2)
	assert.Equal(t, int64(1500), execs[0].DurationMs)
	assert.Equal(t, string(pipeline.KindTransient), execs[1].ErrorKind)
	assert.Equal(t, 3, execs[1].Retries)
}
