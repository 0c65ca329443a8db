// Package technician monitors pipeline health: log errors, external tool
// availability and stage timings, with recovery suggestions.
package technician

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/store/dao"
)

// toolAlternatives suggests replacements when a required binary is absent.
var toolAlternatives = map[string][]string{
	"ffmpeg":  {"libav (avconv)", "gstreamer"},
	"ffprobe": {"mediainfo"},
}

// Diagnosis is the technician's JSON artifact.
type Diagnosis struct {
	JobID       string        `json:"job_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	LogSummary  LogSummary    `json:"log_summary"`
	Tools       []ToolStatus  `json:"tools"`
	SlowStages  []StageTiming `json:"slow_stages"`
	Suggestions []string      `json:"suggestions"`
}

type LogSummary struct {
	Errors   int            `json:"errors"`
	Warnings int            `json:"warnings"`
	ByModule map[string]int `json:"errors_by_module,omitempty"`
}

type ToolStatus struct {
	Name         string   `json:"name"`
	Available    bool     `json:"available"`
	Path         string   `json:"path,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

type StageTiming struct {
	Stage      string  `json:"stage"`
	DurationMs int64   `json:"duration_ms"`
	ExpectedMs int64   `json:"expected_ms"`
	Ratio      float64 `json:"ratio"`
}

// Agent is the diagnostics stage adapter.
type Agent struct {
	logPath   string
	outputDir string
	stages    dao.StageExecDao
	lookPath  func(string) (string, error)
	log       *zap.Logger
}

func NewAgent(logPath, outputDir string, log *zap.Logger) *Agent {
	return &Agent{
		logPath:   logPath,
		outputDir: outputDir,
		stages:    dao.NewStageExecDao(),
		lookPath:  exec.LookPath,
		log:       log,
	}
}

func (a *Agent) Name() string { return pipeline.StageDiagnostics }

// Execute analyzes the pipeline log, probes required tools and compares
// this job's stage timings against the configured expectations, writing
// diagnostic.json plus a human-readable upgrade plan.
func (a *Agent) Execute(ctx context.Context, job *pipeline.Job, input string, cfg *config.Module) (pipeline.Output, error) {
	diag := Diagnosis{
		JobID:       job.ID,
		GeneratedAt: time.Now(),
		LogSummary:  a.analyzeLog(),
	}
	diag.Tools = a.checkTools(cfg)
	diag.SlowStages = a.slowStages(ctx, job.ID, cfg)
	diag.Suggestions = a.buildSuggestions(&diag)

	if err := os.MkdirAll(a.outputDir, 0o755); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(a.Name(), pipeline.KindPermanent, "create diagnostics directory", err)
	}

	jsonPath := filepath.Join(a.outputDir, job.ID+"_diagnostic.json")
	data, err := json.MarshalIndent(diag, "", "  ")
	if err != nil {
		return pipeline.Output{}, pipeline.NewStageError(a.Name(), pipeline.KindPermanent, "encode diagnosis", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(a.Name(), pipeline.KindPermanent, "write diagnosis", err)
	}

	mdPath := filepath.Join(a.outputDir, job.ID+"_upgrade_plan.md")
	if err := os.WriteFile(mdPath, []byte(renderMarkdown(&diag)), 0o644); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(a.Name(), pipeline.KindPermanent, "write upgrade plan", err)
	}

	a.log.Info("diagnostics written",
		zap.String("job", job.ID),
		zap.Int("log_errors", diag.LogSummary.Errors),
		zap.Int("suggestions", len(diag.Suggestions)))
	return pipeline.Output{Artifact: jsonPath, Extra: []string{mdPath}}, nil
}

// analyzeLog counts ERROR/WARN lines in the rotating pipeline log. The
// zap console layout puts the level in the second field.
func (a *Agent) analyzeLog() LogSummary {
	summary := LogSummary{ByModule: map[string]int{}}

	f, err := os.Open(a.logPath)
	if err != nil {
		return summary
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		level := fields[2]
		switch level {
		case "ERROR":
			summary.Errors++
			if len(fields) > 3 {
				// Caller field looks like pkg/file.go:123.
				module := strings.SplitN(fields[3], "/", 2)[0]
				summary.ByModule[module]++
			}
		case "WARN":
			summary.Warnings++
		}
	}
	return summary
}

func (a *Agent) checkTools(cfg *config.Module) []ToolStatus {
	var tools []string
	if err := cfg.Decode("required_tools", &tools); err != nil {
		tools = []string{"ffmpeg", "ffprobe"}
	}

	var statuses []ToolStatus
	for _, tool := range tools {
		path, err := a.lookPath(tool)
		status := ToolStatus{Name: tool, Available: err == nil, Path: path}
		if err != nil {
			status.Alternatives = toolAlternatives[tool]
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (a *Agent) slowStages(ctx context.Context, jobID string, cfg *config.Module) []StageTiming {
	var expected map[string]int64
	if err := cfg.Decode("expected_timings_ms", &expected); err != nil {
		return nil
	}

	execs, err := a.stages.GetByJobID(ctx, jobID)
	if err != nil {
		return nil
	}

	var slow []StageTiming
	for _, e := range execs {
		want, ok := expected[e.Stage]
		if !ok || want <= 0 || e.DurationMs <= want {
			continue
		}
		slow = append(slow, StageTiming{
			Stage:      e.Stage,
			DurationMs: e.DurationMs,
			ExpectedMs: want,
			Ratio:      float64(e.DurationMs) / float64(want),
		})
	}
	sort.Slice(slow, func(i, j int) bool { return slow[i].Ratio > slow[j].Ratio })
	return slow
}

func (a *Agent) buildSuggestions(diag *Diagnosis) []string {
	var suggestions []string
	for _, tool := range diag.Tools {
		if !tool.Available {
			s := fmt.Sprintf("install %s", tool.Name)
			if len(tool.Alternatives) > 0 {
				s += " (or switch to " + strings.Join(tool.Alternatives, " / ") + ")"
			}
			suggestions = append(suggestions, s)
		}
	}
	for _, timing := range diag.SlowStages {
		suggestions = append(suggestions, fmt.Sprintf(
			"stage %s ran %.1fx over its expected timing; review its configuration or service quota",
			timing.Stage, timing.Ratio))
	}
	if diag.LogSummary.Errors > 0 {
		suggestions = append(suggestions, fmt.Sprintf(
			"%d error log lines since last rotation; inspect the pipeline log", diag.LogSummary.Errors))
	}
	return suggestions
}

func renderMarkdown(diag *Diagnosis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Upgrade plan for job %s\n\n", diag.JobID)
	fmt.Fprintf(&sb, "Generated %s\n\n", diag.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "## Log summary\n\n- errors: %d\n- warnings: %d\n\n",
		diag.LogSummary.Errors, diag.LogSummary.Warnings)

	sb.WriteString("## Tooling\n\n")
	for _, tool := range diag.Tools {
		mark := "ok"
		if !tool.Available {
			mark = "MISSING"
		}
		fmt.Fprintf(&sb, "- %s: %s\n", tool.Name, mark)
	}
	sb.WriteString("\n## Suggestions\n\n")
	if len(diag.Suggestions) == 0 {
		sb.WriteString("Nothing to do.\n")
	}
	for _, s := range diag.Suggestions {
		fmt.Fprintf(&sb, "- %s\n", s)
	}
	return sb.String()
}
