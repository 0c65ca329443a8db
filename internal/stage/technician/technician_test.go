package technician

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/store/dao"
	"github.com/levi616boop/AI-content-gen/internal/store/model"
)

const sampleLog = `2026-08-28 10:00:01.000	INFO	pipeline/driver.go:101	stage finished
2026-08-28 10:00:02.000	ERROR	upload/uploader.go:88	publish failed
2026-08-28 10:00:03.000	WARN	voice/synth.go:54	falling back to beep narration
2026-08-28 10:00:04.000	ERROR	upload/uploader.go:92	publish failed again
garbage line
`

func techModule(t *testing.T, overrides string) *config.Module {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "cfg.json")
	content := `{
		"base_settings": {"base_data_path": "/tmp/x"},
		"module_specific": {"technician_agent": ` + overrides + `}
	}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	return cfg.Module("technician_agent")
}

func newTestAgent(t *testing.T, logContent string) *Agent {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "pipeline.log")
	require.NoError(t, os.WriteFile(logPath, []byte(logContent), 0o644))
	require.NoError(t, dao.Init(filepath.Join(dir, "test.db")))

	a := NewAgent(logPath, filepath.Join(dir, "diag"), zap.NewNop())
	a.lookPath = func(tool string) (string, error) {
		return "/usr/bin/" + tool, nil
	}
	return a
}

func TestExecuteWritesDiagnosisAndUpgradePlan(t *testing.T) {
	a := newTestAgent(t, sampleLog)
	cfg := techModule(t, `{}`)
	job := pipeline.NewJob("src.txt", "txt", "")

	out, err := a.Execute(context.Background(), job, "", cfg)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(a.outputDir, job.ID+"_diagnostic.json"), out.Artifact)
	require.Len(t, out.Extra, 1)
	assert.Equal(t, filepath.Join(a.outputDir, job.ID+"_upgrade_plan.md"), out.Extra[0])

	data, err := os.ReadFile(out.Artifact)
	require.NoError(t, err)
	var diag Diagnosis
	require.NoError(t, json.Unmarshal(data, &diag))

	assert.Equal(t, job.ID, diag.JobID)
	assert.Equal(t, 2, diag.LogSummary.Errors)
	assert.Equal(t, 1, diag.LogSummary.Warnings)
	assert.Equal(t, 2, diag.LogSummary.ByModule["upload"])

	require.Len(t, diag.Tools, 2)
	assert.Equal(t, "ffmpeg", diag.Tools[0].Name)
	assert.True(t, diag.Tools[0].Available)

	md, err := os.ReadFile(out.Extra[0])
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Upgrade plan for job "+job.ID)
	assert.Contains(t, string(md), "- errors: 2")
	assert.Contains(t, string(md), "- ffmpeg: ok")
}

func TestMissingToolProducesSuggestionWithAlternatives(t *testing.T) {
	a := newTestAgent(t, "")
	a.lookPath = func(tool string) (string, error) {
		if tool == "ffmpeg" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + tool, nil
	}
	cfg := techModule(t, `{}`)

	out, err := a.Execute(context.Background(), pipeline.NewJob("src.txt", "txt", ""), "", cfg)
	require.NoError(t, err)

	var diag Diagnosis
	data, err := os.ReadFile(out.Artifact)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &diag))

	assert.False(t, diag.Tools[0].Available)
	assert.Equal(t, []string{"libav (avconv)", "gstreamer"}, diag.Tools[0].Alternatives)
	require.NotEmpty(t, diag.Suggestions)
	assert.Contains(t, diag.Suggestions[0], "install ffmpeg")
	assert.Contains(t, diag.Suggestions[0], "gstreamer")
}

func TestConfiguredToolListOverridesDefault(t *testing.T) {
	a := newTestAgent(t, "")
	cfg := techModule(t, `{"required_tools": ["sox"]}`)

	diag := Diagnosis{Tools: a.checkTools(cfg)}
	require.Len(t, diag.Tools, 1)
	assert.Equal(t, "sox", diag.Tools[0].Name)
}

func TestSlowStagesSortedByOverrunRatio(t *testing.T) {
	a := newTestAgent(t, "")
	cfg := techModule(t, `{"expected_timings_ms": {"animator": 1000, "voice_generator": 2000, "uploader": 5000}}`)

	job := pipeline.NewJob("src.txt", "txt", "")
	ctx := context.Background()
	stages := dao.NewStageExecDao()
	for _, e := range []*model.StageExecution{
		{JobID: job.ID, Stage: "animator", Status: "succeeded", DurationMs: 2000},
		{JobID: job.ID, Stage: "voice_generator", Status: "succeeded", DurationMs: 8000},
		{JobID: job.ID, Stage: "uploader", Status: "succeeded", DurationMs: 4000},
	} {
		require.NoError(t, stages.Append(ctx, e))
	}

	slow := a.slowStages(ctx, job.ID, cfg)

	require.Len(t, slow, 2)
	assert.Equal(t, "voice_generator", slow[0].Stage)
	assert.InDelta(t, 4.0, slow[0].Ratio, 0.001)
	assert.Equal(t, "animator", slow[1].Stage)

	diag := Diagnosis{SlowStages: slow}
	suggestions := a.buildSuggestions(&diag)
	require.Len(t, suggestions, 2)
	assert.Contains(t, suggestions[0], "voice_generator ran 4.0x")
}

func TestAnalyzeLogMissingFileIsEmptySummary(t *testing.T) {
	a := newTestAgent(t, "")
	a.logPath = filepath.Join(t.TempDir(), "nope.log")

	summary := a.analyzeLog()
	assert.Zero(t, summary.Errors)
	assert.Zero(t, summary.Warnings)
}
