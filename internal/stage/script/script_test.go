package script

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/stage/ingest"
)

const sampleScript = `[SECTION: Introduction]
Welcome to a short tour of goroutines.
[PAUSE]
[SECTION: Main Content]
A goroutine is a lightweight thread managed by the Go runtime.
[PAUSE]
Channels let goroutines communicate safely.
[SECTION: Summary]
Goroutines and channels are the heart of Go concurrency.
[KEYWORDS: goroutines, channels, concurrency]`

func TestRenderPrompt(t *testing.T) {
	prompt, err := RenderPrompt(defaultPromptTemplate, PromptData{
		Topic:           "goroutines",
		Language:        "English",
		Style:           "informative",
		DurationSeconds: 300,
		IngestedContent: "source text",
		WordCount:       750,
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, `"goroutines"`)
	assert.Contains(t, prompt, "750 words")
	assert.Contains(t, prompt, "source text")
	assert.NotContains(t, prompt, "{topic}")
	assert.NotContains(t, prompt, "{ingested_content}")
}

func TestRenderPromptRejectsInjectedPlaceholder(t *testing.T) {
	// A placeholder token smuggled in through substituted content must
	// not survive into the prompt unnoticed.
	_, err := RenderPrompt(defaultPromptTemplate, PromptData{
		Topic:           "x",
		Language:        "en",
		Style:           "casual",
		IngestedContent: "text containing a literal {word_count} token",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolved placeholder")

	// Unknown brace tokens are left alone.
	_, err = RenderPrompt("about {topic} in {langage}", PromptData{Topic: "x", Language: "en"})
	require.NoError(t, err)
}

func TestRenderPromptDoesNotFlagBracesInContent(t *testing.T) {
	// Source material containing brace tokens must not be mistaken
	// for template placeholders.
	prompt, err := RenderPrompt(defaultPromptTemplate, PromptData{
		Topic:           "json",
		Language:        "English",
		Style:           "casual",
		DurationSeconds: 60,
		IngestedContent: `JSON objects look like {key} or {value}`,
		WordCount:       150,
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "{key}")
}

func TestLoadTemplateFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("custom {topic}"), 0o644))

	tpl, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "custom {topic}", tpl)

	tpl, err = LoadTemplate("")
	require.NoError(t, err)
	assert.Equal(t, defaultPromptTemplate, tpl)

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestEstimateWordCount(t *testing.T) {
	assert.Equal(t, 750, EstimateWordCount(300, 150))
	assert.Equal(t, 100, EstimateWordCount(60, 100))
	// Non-positive rate falls back to the default speaking rate.
	assert.Equal(t, 150, EstimateWordCount(60, 0))
}

func TestPostprocess(t *testing.T) {
	artifact := Postprocess(sampleScript)

	assert.Equal(t, []string{"goroutines", "channels", "concurrency"}, artifact.Keywords)
	assert.NotContains(t, artifact.Script, "[KEYWORDS:")

	require.Len(t, artifact.Sections, 3)
	assert.Equal(t, "Introduction", artifact.Sections[0].Name)
	assert.Equal(t, "Main Content", artifact.Sections[1].Name)
	assert.Equal(t, "Summary", artifact.Sections[2].Name)
	assert.Contains(t, artifact.Sections[1].Text, "Channels let goroutines")

	assert.Contains(t, artifact.Summary, "heart of Go concurrency")
	// Markers are not counted as spoken words.
	assert.Equal(t, len(strings.Fields(stripMarkers(artifact.Script))), artifact.WordCount)
	assert.Greater(t, artifact.WordCount, 20)
}

func TestPostprocessWithoutMarkers(t *testing.T) {
	artifact := Postprocess("just a plain paragraph with no structure at all")
	assert.Empty(t, artifact.Sections)
	assert.Empty(t, artifact.Keywords)
	assert.Equal(t, 9, artifact.WordCount)
}

func newTestModule(t *testing.T, overrides string) *config.Module {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "cfg.json")
	content := `{
		"base_settings": {"base_data_path": "/tmp/x", "default_script_length_seconds": 120},
		"module_specific": {"script_generator": ` + overrides + `}
	}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	return cfg.Module("script_generator")
}

func writeIngestArtifact(t *testing.T, dir string, jobID string) string {
	t.Helper()
	artifact := ingest.Artifact{JobID: jobID, Content: "Goroutines are lightweight threads."}
	data, err := json.Marshal(artifact)
	require.NoError(t, err)
	path := filepath.Join(dir, jobID+".json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func chatBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestGeneratorExecute(t *testing.T) {
	longScript := sampleScript + "\n" + strings.Repeat("More narration about Go concurrency patterns here. ", 30)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatBody(longScript)))
	}))
	defer srv.Close()

	dir := t.TempDir()
	llm := NewLLMClient("test-key", srv.Client())
	llm.WithEndpoint(srv.URL + "/chat/completions")
	gen := NewGenerator(dir, llm, zap.NewNop())

	job := pipeline.NewJob("src.pdf", "pdf", "goroutines")
	job.TargetDuration = 120
	input := writeIngestArtifact(t, dir, job.ID)

	cfg := newTestModule(t, `{"llm_model": "gpt-4o-mini", "min_script_words": 50}`)
	out, err := gen.Execute(context.Background(), job, input, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(out.Artifact)
	require.NoError(t, err)
	var artifact Artifact
	require.NoError(t, json.Unmarshal(data, &artifact))
	assert.Equal(t, job.ID, artifact.JobID)
	assert.Equal(t, "goroutines", artifact.Topic)
	assert.Len(t, artifact.Sections, 3)
}

func TestGeneratorRequiresModel(t *testing.T) {
	dir := t.TempDir()
	gen := NewGenerator(dir, NewLLMClient("k", http.DefaultClient), zap.NewNop())
	job := pipeline.NewJob("src.pdf", "pdf", "x")
	input := writeIngestArtifact(t, dir, job.ID)

	cfg := newTestModule(t, `{}`)
	_, err := gen.Execute(context.Background(), job, input, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestGeneratorRejectsShortScript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatBody("too short")))
	}))
	defer srv.Close()

	dir := t.TempDir()
	llm := NewLLMClient("k", srv.Client())
	llm.WithEndpoint(srv.URL + "/chat/completions")
	gen := NewGenerator(dir, llm, zap.NewNop())
	job := pipeline.NewJob("src.pdf", "pdf", "x")
	input := writeIngestArtifact(t, dir, job.ID)

	cfg := newTestModule(t, `{"llm_model": "gpt-4o-mini"}`)
	_, err := gen.Execute(context.Background(), job, input, cfg)
	require.Error(t, err)
	var se *pipeline.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, pipeline.KindTransient, se.Kind)
}

func TestLLMClientClassifiesFailures(t *testing.T) {
	var status int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	llm := NewLLMClient("k", srv.Client())
	llm.WithEndpoint(srv.URL + "/chat/completions")

	status = http.StatusTooManyRequests
	_, err := llm.Generate(context.Background(), "p", "m", 0.7, 100)
	var se *pipeline.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, pipeline.KindTransient, se.Kind)

	status = http.StatusInternalServerError
	_, err = llm.Generate(context.Background(), "p", "m", 0.7, 100)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, pipeline.KindTransient, se.Kind)

	status = http.StatusUnauthorized
	_, err = llm.Generate(context.Background(), "p", "m", 0.7, 100)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, pipeline.KindPermanent, se.Kind)
}
