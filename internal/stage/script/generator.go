// Package script turns ingested content into a structured narration
// script through an LLM call and marker post-processing.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/stage/ingest"
)

// Required section markers; their presence is part of the script
// contract checked by quality control.
const (
	MarkerIntroduction = "[SECTION: Introduction]"
	MarkerMainContent  = "[SECTION: Main Content]"
	MarkerSummary      = "[SECTION: Summary]"
	MarkerPause        = "[PAUSE]"
)

var (
	keywordsRe = regexp.MustCompile(`\[KEYWORDS:(.*?)\]`)
	sectionRe  = regexp.MustCompile(`\[SECTION: ([^\]]+)\]`)
)

// Artifact is the script JSON consumed by the animator and voice stages.
type Artifact struct {
	JobID     string    `json:"job_id"`
	Topic     string    `json:"topic"`
	Language  string    `json:"language"`
	Style     string    `json:"style"`
	Script    string    `json:"script"`
	Sections  []Section `json:"sections"`
	Keywords  []string  `json:"keywords"`
	Summary   string    `json:"summary"`
	WordCount int       `json:"word_count"`
}

type Section struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Generator is the script generation stage adapter.
type Generator struct {
	outputDir string
	llm       *LLMClient
	log       *zap.Logger
}

func NewGenerator(outputDir string, llm *LLMClient, log *zap.Logger) *Generator {
	return &Generator{outputDir: outputDir, llm: llm, log: log}
}

func (g *Generator) Name() string { return pipeline.StageScript }

// Execute renders the prompt from the ingestion artifact, calls the LLM
// and writes the post-processed script JSON.
func (g *Generator) Execute(ctx context.Context, job *pipeline.Job, input string, cfg *config.Module) (pipeline.Output, error) {
	model, err := cfg.String("llm_model")
	if err != nil {
		return pipeline.Output{}, err
	}
	temperature := cfg.FloatOr("temperature", 0.7)
	maxTokens := cfg.IntOr("max_tokens", 2000)
	wordsPerMinute := cfg.IntOr("words_per_minute", 150)

	raw, err := os.ReadFile(input)
	if err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindArtifact, "read ingestion artifact", err)
	}
	var ingested ingest.Artifact
	if err := json.Unmarshal(raw, &ingested); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindArtifact, "decode ingestion artifact", err)
	}

	duration := job.TargetDuration
	if duration <= 0 {
		duration = cfg.Base().DefaultScriptLengthSeconds
	}
	language := job.Language
	if language == "" {
		language = cfg.StringOr("default_language", "English")
	}
	style := job.Style
	if style == "" {
		style = cfg.StringOr("default_tone", "informative")
	}
	topic := job.Topic
	if topic == "" {
		topic = ingested.Metadata.Source
	}

	template, err := LoadTemplate(cfg.StringOr("prompt_template", ""))
	if err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindPermanent, "load prompt template", err)
	}
	prompt, err := RenderPrompt(template, PromptData{
		Topic:           topic,
		Language:        language,
		Style:           style,
		DurationSeconds: duration,
		IngestedContent: ingested.Content,
		WordCount:       EstimateWordCount(duration, wordsPerMinute),
	})
	if err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindPermanent, "render prompt", err)
	}

	g.log.Info("calling llm", zap.String("job", job.ID), zap.String("model", model))
	rawScript, err := g.llm.Generate(ctx, prompt, model, temperature, maxTokens)
	if err != nil {
		return pipeline.Output{}, pipeline.Classify(g.Name(), err)
	}

	artifact := Postprocess(rawScript)
	artifact.JobID = job.ID
	artifact.Topic = topic
	artifact.Language = language
	artifact.Style = style

	minWords := cfg.IntOr("min_script_words", 100)
	if artifact.WordCount < minWords {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindTransient,
			fmt.Sprintf("generated script too short (%d words, need %d)", artifact.WordCount, minWords), nil)
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindPermanent, "create output directory", err)
	}
	outPath := filepath.Join(g.outputDir, job.ID+".json")
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindPermanent, "encode artifact", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindPermanent, "write artifact", err)
	}

	return pipeline.Output{Artifact: outPath}, nil
}

// Postprocess extracts keywords, sections and the summary out of the raw
// LLM output. The keyword block is stripped from the script body.
func Postprocess(rawScript string) Artifact {
	artifact := Artifact{}

	if m := keywordsRe.FindStringSubmatch(rawScript); m != nil {
		for _, k := range strings.Split(m[1], ",") {
			if k = strings.TrimSpace(k); k != "" {
				artifact.Keywords = append(artifact.Keywords, k)
			}
		}
		rawScript = strings.TrimSpace(strings.Replace(rawScript, m[0], "", 1))
	}

	artifact.Script = rawScript
	artifact.Sections = splitSections(rawScript)
	artifact.WordCount = len(strings.Fields(stripMarkers(rawScript)))

	for _, s := range artifact.Sections {
		if s.Name == "Summary" {
			artifact.Summary = strings.SplitN(s.Text, "\n\n", 2)[0]
			break
		}
	}
	return artifact
}

func splitSections(script string) []Section {
	locs := sectionRe.FindAllStringSubmatchIndex(script, -1)
	var sections []Section
	for i, loc := range locs {
		name := script[loc[2]:loc[3]]
		end := len(script)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		text := strings.TrimSpace(script[loc[1]:end])
		sections = append(sections, Section{Name: name, Text: text})
	}
	return sections
}

// stripMarkers removes section/pause markers so narration word counts
// reflect spoken words only.
func stripMarkers(script string) string {
	script = sectionRe.ReplaceAllString(script, "")
	return strings.ReplaceAll(script, MarkerPause, "")
}
