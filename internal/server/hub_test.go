package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/pipeline"
)

func TestNilHubDropsStageUpdate(t *testing.T) {
	// The serve command hands the notifier to the runner before the
	// hub exists, so updates arriving through a nil hub must be safe.
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.StageUpdate(pipeline.NewJob("a.pdf", "pdf", "x"), pipeline.StageResult{
			Stage:  pipeline.StageIngestion,
			Status: pipeline.StatusRunning,
		})
	})
}

func TestHubStageUpdateBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())
	job := pipeline.NewJob("a.pdf", "pdf", "x")

	hub.StageUpdate(job, pipeline.StageResult{
		Stage:  pipeline.StageIngestion,
		Status: pipeline.StatusFailed,
		Error:  "source missing",
	})

	select {
	case data := <-hub.broadcast:
		var update map[string]any
		require.NoError(t, json.Unmarshal(data, &update))
		assert.Equal(t, "stage_update", update["type"])
		assert.Equal(t, job.ID, update["job_id"])
		assert.Equal(t, pipeline.StageIngestion, update["stage"])
		assert.Equal(t, pipeline.StatusFailed, update["status"])
		assert.Equal(t, "source missing", update["error"])
	default:
		t.Fatal("expected a buffered broadcast message")
	}
}
