// Package events publishes job lifecycle notifications over NATS so
// external consumers can follow pipeline progress.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/pipeline"
)

const (
	SubjectJobStarted  = "autoed.job.started"
	SubjectJobFinished = "autoed.job.finished"
	SubjectStageDone   = "autoed.stage.completed"
)

// Event is the wire payload for all subjects.
type Event struct {
	JobID     string    `json:"job_id"`
	Topic     string    `json:"topic,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Status    string    `json:"status"`
	Artifact  string    `json:"artifact,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits pipeline events. A nil Publisher is a no-op so the
// pipeline runs unchanged when no NATS URL is configured.
type Publisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

// Connect dials the NATS server. Returns nil (no publisher) when url is
// empty.
func Connect(url string, log *zap.Logger) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("autoed-pipeline"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, err
	}
	log.Info("connected to event bus", zap.String("url", url))
	return &Publisher{conn: conn, log: log}, nil
}

func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Drain()
}

func (p *Publisher) JobStarted(job *pipeline.Job) {
	p.publish(SubjectJobStarted, Event{
		JobID:  job.ID,
		Topic:  job.Topic,
		Status: string(pipeline.StatusRunning),
	})
}

func (p *Publisher) JobFinished(job *pipeline.Job, res *pipeline.JobResult) {
	evt := Event{
		JobID:  job.ID,
		Topic:  job.Topic,
		Status: string(job.Status),
	}
	if fail := res.FirstFailure(); fail != nil {
		evt.Stage = fail.Stage
		evt.Error = fail.Error
	}
	p.publish(SubjectJobFinished, evt)
}

func (p *Publisher) StageCompleted(job *pipeline.Job, res pipeline.StageResult) {
	p.publish(SubjectStageDone, Event{
		JobID:    job.ID,
		Stage:    res.Stage,
		Status:   string(res.Status),
		Artifact: res.Artifact,
		Error:    res.Error,
	})
}

func (p *Publisher) publish(subject string, evt Event) {
	if p == nil || p.conn == nil {
		return
	}
	evt.Timestamp = time.Now()
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn("event publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
