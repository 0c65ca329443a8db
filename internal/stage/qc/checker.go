// Package qc validates stage outputs against the configured thresholds
// and produces the run's quality report.
package qc

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/stage/script"
)

// Verdict buckets for checks and the whole report.
const (
	VerdictPass = "pass"
	VerdictWarn = "warn"
	VerdictFail = "fail"
)

// Check is one named inspection with a 1-5 score.
type Check struct {
	Name    string  `json:"name"`
	Verdict string  `json:"verdict"`
	Score   float64 `json:"score"`
	Detail  string  `json:"detail,omitempty"`
}

// Report is the QC artifact written per job.
type Report struct {
	JobID        string    `json:"job_id"`
	Topic        string    `json:"topic"`
	GeneratedAt  time.Time `json:"generated_at"`
	Checks       []Check   `json:"checks"`
	OverallScore float64   `json:"overall_score"`
	Verdict      string    `json:"verdict"`
	Warnings     int       `json:"warnings"`
	Failures     int       `json:"failures"`
}

// Checker is the quality control stage adapter.
type Checker struct {
	scriptDir string
	voiceDir  string
	outputDir string
	log       *zap.Logger
}

func NewChecker(scriptDir, voiceDir, outputDir string, log *zap.Logger) *Checker {
	return &Checker{scriptDir: scriptDir, voiceDir: voiceDir, outputDir: outputDir, log: log}
}

func (c *Checker) Name() string { return pipeline.StageQualityControl }

// Execute inspects the script, narration audio and final video for this
// job and writes <qc_report_dir>/<job>_qc.json (plus a PDF rendering when
// enable_pdf_report is set). A failing verdict is a permanent stage
// failure; warnings pass through.
func (c *Checker) Execute(ctx context.Context, job *pipeline.Job, input string, cfg *config.Module) (pipeline.Output, error) {
	report := Report{
		JobID:       job.ID,
		Topic:       job.Topic,
		GeneratedAt: time.Now(),
	}

	scriptArt, err := c.loadScript(job.ID)
	if err != nil {
		return pipeline.Output{}, err
	}
	report.Checks = append(report.Checks, c.scriptChecks(scriptArt, cfg)...)
	report.Checks = append(report.Checks, c.audioChecks(job, scriptArt, cfg)...)
	report.Checks = append(report.Checks, c.videoCheck(input))

	c.summarize(&report, cfg)

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(c.Name(), pipeline.KindPermanent, "create report directory", err)
	}
	outPath := filepath.Join(c.outputDir, job.ID+"_qc.json")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return pipeline.Output{}, pipeline.NewStageError(c.Name(), pipeline.KindPermanent, "encode report", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(c.Name(), pipeline.KindPermanent, "write report", err)
	}

	out := pipeline.Output{Artifact: outPath}
	if cfg.BoolOr("enable_pdf_report", false) {
		pdfPath := filepath.Join(c.outputDir, job.ID+"_qc.pdf")
		if err := RenderPDF(&report, pdfPath); err != nil {
			c.log.Warn("qc pdf rendering failed", zap.String("job", job.ID), zap.Error(err))
		} else {
			out.Extra = append(out.Extra, pdfPath)
		}
	}

	c.log.Info("quality control finished",
		zap.String("job", job.ID),
		zap.String("verdict", report.Verdict),
		zap.Float64("score", report.OverallScore))

	if report.Verdict == VerdictFail {
		return pipeline.Output{}, pipeline.NewStageError(c.Name(), pipeline.KindPermanent,
			fmt.Sprintf("quality control failed with score %.1f (report: %s)", report.OverallScore, outPath), nil)
	}
	return out, nil
}

func (c *Checker) loadScript(jobID string) (*script.Artifact, error) {
	raw, err := os.ReadFile(filepath.Join(c.scriptDir, jobID+".json"))
	if err != nil {
		return nil, pipeline.NewStageError(c.Name(), pipeline.KindArtifact, "read script artifact", err)
	}
	var art script.Artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, pipeline.NewStageError(c.Name(), pipeline.KindArtifact, "decode script artifact", err)
	}
	return &art, nil
}

func (c *Checker) scriptChecks(art *script.Artifact, cfg *config.Module) []Check {
	var checks []Check

	required := []string{script.MarkerIntroduction, script.MarkerMainContent, script.MarkerSummary}
	var missing []string
	for _, marker := range required {
		if !strings.Contains(art.Script, marker) {
			missing = append(missing, marker)
		}
	}
	if len(missing) == 0 {
		checks = append(checks, Check{Name: "script_structure", Verdict: VerdictPass, Score: 5})
	} else {
		checks = append(checks, Check{
			Name:    "script_structure",
			Verdict: VerdictFail,
			Score:   1,
			Detail:  "missing markers: " + strings.Join(missing, ", "),
		})
	}

	minWords := cfg.IntOr("min_word_count", 200)
	switch {
	case art.WordCount >= minWords:
		checks = append(checks, Check{Name: "script_length", Verdict: VerdictPass, Score: 5,
			Detail: fmt.Sprintf("%d words", art.WordCount)})
	case art.WordCount >= minWords/2:
		checks = append(checks, Check{Name: "script_length", Verdict: VerdictWarn, Score: 3,
			Detail: fmt.Sprintf("%d words, expected at least %d", art.WordCount, minWords)})
	default:
		checks = append(checks, Check{Name: "script_length", Verdict: VerdictFail, Score: 1,
			Detail: fmt.Sprintf("%d words, expected at least %d", art.WordCount, minWords)})
	}

	issues := grammarIssues(art.Script)
	threshold := cfg.IntOr("grammar_error_threshold", 3)
	switch {
	case issues == 0:
		checks = append(checks, Check{Name: "script_grammar", Verdict: VerdictPass, Score: 5})
	case issues <= threshold:
		checks = append(checks, Check{Name: "script_grammar", Verdict: VerdictWarn, Score: 3.5,
			Detail: fmt.Sprintf("%d possible issues", issues)})
	default:
		checks = append(checks, Check{Name: "script_grammar", Verdict: VerdictFail, Score: 2,
			Detail: fmt.Sprintf("%d possible issues, threshold %d", issues, threshold)})
	}

	return checks
}

func (c *Checker) audioChecks(job *pipeline.Job, art *script.Artifact, cfg *config.Module) []Check {
	wavPath := filepath.Join(c.voiceDir, job.ID+"_narration.wav")
	f, err := os.Open(wavPath)
	if err != nil {
		return []Check{{Name: "narration_audio", Verdict: VerdictFail, Score: 1, Detail: "narration wav missing"}}
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	dur, err := dec.Duration()
	if err != nil || !dec.IsValidFile() {
		return []Check{{Name: "narration_audio", Verdict: VerdictFail, Score: 1, Detail: "narration wav unreadable"}}
	}

	var checks []Check
	wantRate := cfg.IntOr("expected_sample_rate", 44100)
	if int(dec.SampleRate) == wantRate {
		checks = append(checks, Check{Name: "audio_sample_rate", Verdict: VerdictPass, Score: 5})
	} else {
		checks = append(checks, Check{Name: "audio_sample_rate", Verdict: VerdictWarn, Score: 3,
			Detail: fmt.Sprintf("got %d Hz, expected %d Hz", dec.SampleRate, wantRate)})
	}

	target := float64(job.TargetDuration)
	if target <= 0 {
		target = float64(cfg.Base().DefaultScriptLengthSeconds)
	}
	tolerance := cfg.FloatOr("duration_tolerance_seconds", 30)
	drift := math.Abs(dur.Seconds() - target)
	switch {
	case drift <= tolerance:
		checks = append(checks, Check{Name: "audio_duration", Verdict: VerdictPass, Score: 5,
			Detail: fmt.Sprintf("%.1fs narration for %.0fs target", dur.Seconds(), target)})
	case drift <= tolerance*2:
		checks = append(checks, Check{Name: "audio_duration", Verdict: VerdictWarn, Score: 3,
			Detail: fmt.Sprintf("%.1fs narration drifts %.1fs from target", dur.Seconds(), drift)})
	default:
		checks = append(checks, Check{Name: "audio_duration", Verdict: VerdictFail, Score: 1.5,
			Detail: fmt.Sprintf("%.1fs narration drifts %.1fs from target", dur.Seconds(), drift)})
	}
	return checks
}

func (c *Checker) videoCheck(videoPath string) Check {
	info, err := os.Stat(videoPath)
	if err != nil || info.Size() == 0 {
		return Check{Name: "final_video", Verdict: VerdictFail, Score: 1, Detail: "final video missing or empty"}
	}
	return Check{Name: "final_video", Verdict: VerdictPass, Score: 5,
		Detail: fmt.Sprintf("%d bytes", info.Size())}
}

func (c *Checker) summarize(report *Report, cfg *config.Module) {
	var total float64
	for _, check := range report.Checks {
		total += check.Score
		switch check.Verdict {
		case VerdictWarn:
			report.Warnings++
		case VerdictFail:
			report.Failures++
		}
	}
	if len(report.Checks) > 0 {
		report.OverallScore = total / float64(len(report.Checks))
	}

	warnThreshold := cfg.FloatOr("warning_score_threshold", 3.5)
	switch {
	case report.Failures > 0:
		report.Verdict = VerdictFail
	case report.Warnings > 0 || report.OverallScore < warnThreshold:
		report.Verdict = VerdictWarn
	default:
		report.Verdict = VerdictPass
	}
}

// grammarIssues is a cheap heuristic: flags doubled words and sentences
// that run far past typical narration length. A real grammar service can
// replace it behind the same count.
func grammarIssues(text string) int {
	issues := 0
	words := strings.Fields(strings.ToLower(text))
	for i := 1; i < len(words); i++ {
		w := strings.Trim(words[i], ".,;:!?")
		if len(w) > 2 && w == strings.Trim(words[i-1], ".,;:!?") {
			issues++
		}
	}
	for _, sentence := range strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '!' || r == '?' }) {
		if len(strings.Fields(sentence)) > 60 {
			issues++
		}
	}
	return issues
}
