// Package content tracks run outcomes across jobs and suggests what to
// produce next.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/stage/qc"
	"github.com/levi616boop/AI-content-gen/internal/stage/upload"
	"github.com/levi616boop/AI-content-gen/internal/store/dao"
	"github.com/levi616boop/AI-content-gen/internal/store/model"
)

// Report is the content management artifact for one run.
type Report struct {
	JobID       string       `json:"job_id"`
	Topic       string       `json:"topic"`
	GeneratedAt time.Time    `json:"generated_at"`
	Uploads     int          `json:"uploads_recorded"`
	Suggestions []Suggestion `json:"suggestions"`
}

type Suggestion struct {
	Topic    string  `json:"topic"`
	Runs     int     `json:"runs"`
	AvgScore float64 `json:"avg_score"`
	Reason   string  `json:"reason"`
}

// Manager is the content management stage adapter.
type Manager struct {
	qcDir     string
	outputDir string
	uploads   dao.UploadDao
	metrics   dao.TopicMetricDao
	log       *zap.Logger
}

func NewManager(qcDir, outputDir string, log *zap.Logger) *Manager {
	return &Manager{
		qcDir:     qcDir,
		outputDir: outputDir,
		uploads:   dao.NewUploadDao(),
		metrics:   dao.NewTopicMetricDao(),
		log:       log,
	}
}

func (m *Manager) Name() string { return pipeline.StageContent }

// Execute folds this run's upload receipt and QC score into the history
// database, then writes a report with next-topic suggestions. It runs in
// best-effort mode after upstream failures, so a missing receipt only
// reduces what gets recorded.
func (m *Manager) Execute(ctx context.Context, job *pipeline.Job, input string, cfg *config.Module) (pipeline.Output, error) {
	report := Report{
		JobID:       job.ID,
		Topic:       job.Topic,
		GeneratedAt: time.Now(),
	}

	if receipt := m.loadReceipt(input); receipt != nil {
		for _, p := range receipt.Platforms {
			rec := &model.UploadRecord{
				JobID:    job.ID,
				Platform: p.Platform,
				Status:   p.Status,
				RemoteID: p.RemoteID,
				URL:      p.URL,
			}
			if err := m.uploads.Record(ctx, rec); err != nil {
				m.log.Warn("record upload failed", zap.String("platform", p.Platform), zap.Error(err))
				continue
			}
			if p.Status == "uploaded" {
				report.Uploads++
			}
		}
	}

	if job.Topic != "" {
		if err := m.updateTopicMetric(ctx, job, report.Uploads); err != nil {
			m.log.Warn("update topic metric failed", zap.String("topic", job.Topic), zap.Error(err))
		}
	}

	topN := cfg.IntOr("top_n_suggestions", 3)
	suggestions, err := m.suggest(ctx, topN)
	if err != nil {
		m.log.Warn("topic suggestions unavailable", zap.Error(err))
	}
	report.Suggestions = suggestions

	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(m.Name(), pipeline.KindPermanent, "create report directory", err)
	}
	outPath := filepath.Join(m.outputDir, job.ID+"_content.json")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return pipeline.Output{}, pipeline.NewStageError(m.Name(), pipeline.KindPermanent, "encode report", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(m.Name(), pipeline.KindPermanent, "write report", err)
	}
	return pipeline.Output{Artifact: outPath}, nil
}

func (m *Manager) loadReceipt(path string) *upload.Receipt {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var receipt upload.Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil
	}
	return &receipt
}

func (m *Manager) updateTopicMetric(ctx context.Context, job *pipeline.Job, uploads int) error {
	metric, err := m.metrics.Get(ctx, job.Topic)
	if err != nil {
		return err
	}

	score := m.qcScore(job.ID)
	metric.Runs++
	metric.Uploads += uploads
	if job.Status == pipeline.StatusFailed {
		metric.Failures++
	}
	if score > 0 {
		// Running average over scored runs only.
		metric.ScoredRuns++
		metric.AvgScore = metric.AvgScore + (score-metric.AvgScore)/float64(metric.ScoredRuns)
	}
	return m.metrics.Save(ctx, metric)
}

func (m *Manager) qcScore(jobID string) float64 {
	raw, err := os.ReadFile(filepath.Join(m.qcDir, jobID+"_qc.json"))
	if err != nil {
		return 0
	}
	var report qc.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return 0
	}
	return report.OverallScore
}

func (m *Manager) suggest(ctx context.Context, limit int) ([]Suggestion, error) {
	metrics, err := m.metrics.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	var suggestions []Suggestion
	for _, metric := range metrics {
		suggestions = append(suggestions, Suggestion{
			Topic:    metric.Topic,
			Runs:     metric.Runs,
			AvgScore: metric.AvgScore,
			Reason:   fmt.Sprintf("averaged %.1f/5 over %d runs", metric.AvgScore, metric.Runs),
		})
	}
	return suggestions, nil
}
