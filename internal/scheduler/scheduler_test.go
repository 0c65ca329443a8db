package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/pipeline"
)

func TestAddRejectsInvalidExpression(t *testing.T) {
	s := New(func(job *pipeline.Job) {}, zap.NewNop())

	err := s.Add(JobSpec{Schedule: "not a cron line", Source: "news.html"})
	assert.Error(t, err)
}

func TestAddAcceptsStandardExpression(t *testing.T) {
	s := New(func(job *pipeline.Job) {}, zap.NewNop())

	require.NoError(t, s.Add(JobSpec{
		Schedule:   "0 7 * * *",
		Source:     "https://example.com/daily",
		SourceType: "html",
		Topic:      "Morning briefing",
	}))
}

func TestStopWithoutStartReturns(t *testing.T) {
	s := New(func(job *pipeline.Job) {}, zap.NewNop())
	s.Start()
	s.Stop()
}
