package content

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/stage/qc"
	"github.com/levi616boop/AI-content-gen/internal/stage/upload"
	"github.com/levi616boop/AI-content-gen/internal/store/dao"
	"github.com/levi616boop/AI-content-gen/internal/store/model"
)

func contentModule(t *testing.T, overrides string) *config.Module {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "cfg.json")
	content := `{
		"base_settings": {"base_data_path": "/tmp/x"},
		"module_specific": {"content_manager": ` + overrides + `}
	}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	return cfg.Module("content_manager")
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, dao.Init(filepath.Join(dir, "test.db")))
	return NewManager(filepath.Join(dir, "qc"), filepath.Join(dir, "reports"), zap.NewNop())
}

func writeReceipt(t *testing.T, dir string, receipt upload.Receipt) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, receipt.JobID+"_receipt.json")
	data, err := json.Marshal(receipt)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeQCReport(t *testing.T, m *Manager, jobID string, score float64) {
	t.Helper()
	require.NoError(t, os.MkdirAll(m.qcDir, 0o755))
	data, err := json.Marshal(qc.Report{JobID: jobID, OverallScore: score})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(m.qcDir, jobID+"_qc.json"), data, 0o644))
}

func TestExecuteRecordsUploadsAndWritesReport(t *testing.T) {
	m := newTestManager(t)
	job := pipeline.NewJob("lesson.txt", "txt", "Sorting algorithms")

	receiptPath := writeReceipt(t, t.TempDir(), upload.Receipt{
		JobID: job.ID,
		Platforms: []upload.PlatformResult{
			{Platform: "youtube", Status: "uploaded", RemoteID: "vid-1"},
			{Platform: "tiktok", Status: "failed", Error: "quota"},
		},
	})
	writeQCReport(t, m, job.ID, 4.0)

	out, err := m.Execute(context.Background(), job, receiptPath, contentModule(t, `{}`))
	require.NoError(t, err)

	data, err := os.ReadFile(out.Artifact)
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(data, &report))

	assert.Equal(t, job.ID, report.JobID)
	assert.Equal(t, 1, report.Uploads)

	recs, err := dao.NewUploadDao().GetByJobID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	n, err := dao.NewUploadDao().CountUploaded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	metric, err := dao.NewTopicMetricDao().Get(context.Background(), "Sorting algorithms")
	require.NoError(t, err)
	assert.Equal(t, 1, metric.Runs)
	assert.Equal(t, 1, metric.Uploads)
	assert.InDelta(t, 4.0, metric.AvgScore, 0.001)
}

func TestExecuteWithoutReceiptStillWritesReport(t *testing.T) {
	m := newTestManager(t)
	job := pipeline.NewJob("lesson.txt", "txt", "Graph theory")
	job.Status = pipeline.StatusFailed

	out, err := m.Execute(context.Background(), job, filepath.Join(t.TempDir(), "missing.json"), contentModule(t, `{}`))
	require.NoError(t, err)
	assert.FileExists(t, out.Artifact)

	metric, err := dao.NewTopicMetricDao().Get(context.Background(), "Graph theory")
	require.NoError(t, err)
	assert.Equal(t, 1, metric.Runs)
	assert.Equal(t, 1, metric.Failures)
	assert.Zero(t, metric.AvgScore)
}

func TestTopicMetricRunningAverage(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	for i, score := range []float64{4.0, 3.0} {
		job := pipeline.NewJob("lesson.txt", "txt", "Recursion")
		writeQCReport(t, m, job.ID, score)
		_, err := m.Execute(ctx, job, "", contentModule(t, `{}`))
		require.NoError(t, err, "run %d", i)
	}

	metric, err := dao.NewTopicMetricDao().Get(ctx, "Recursion")
	require.NoError(t, err)
	assert.Equal(t, 2, metric.Runs)
	assert.Equal(t, 2, metric.ScoredRuns)
	assert.InDelta(t, 3.5, metric.AvgScore, 0.001)
}

func TestTopicMetricAverageIgnoresUnscoredRuns(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	// One run without a QC report in between must not dilute the average.
	for i, score := range []float64{4.0, 0, 3.0} {
		job := pipeline.NewJob("lesson.txt", "txt", "Recursion")
		if score > 0 {
			writeQCReport(t, m, job.ID, score)
		}
		_, err := m.Execute(ctx, job, "", contentModule(t, `{}`))
		require.NoError(t, err, "run %d", i)
	}

	metric, err := dao.NewTopicMetricDao().Get(ctx, "Recursion")
	require.NoError(t, err)
	assert.Equal(t, 3, metric.Runs)
	assert.Equal(t, 2, metric.ScoredRuns)
	assert.InDelta(t, 3.5, metric.AvgScore, 0.001)
}

func TestReportIncludesTopSuggestions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	metrics := dao.NewTopicMetricDao()
	for _, seed := range []*model.TopicMetric{
		{Topic: "Calculus", Runs: 3, AvgScore: 4.5},
		{Topic: "Algebra", Runs: 2, AvgScore: 3.1},
		{Topic: "Geometry", Runs: 1, AvgScore: 4.9},
	} {
		require.NoError(t, metrics.Save(ctx, seed))
	}

	job := pipeline.NewJob("lesson.txt", "txt", "")
	out, err := m.Execute(ctx, job, "", contentModule(t, `{"top_n_suggestions": 2}`))
	require.NoError(t, err)

	data, err := os.ReadFile(out.Artifact)
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(data, &report))

	require.Len(t, report.Suggestions, 2)
	assert.Equal(t, "Geometry", report.Suggestions[0].Topic)
	assert.Contains(t, report.Suggestions[0].Reason, "4.9/5")
	assert.Equal(t, "Calculus", report.Suggestions[1].Topic)
}
