// Package ingest extracts structured text from a source document or URL
// and writes the ingestion artifact consumed by the script generator.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/media"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
)

// Artifact is the JSON document handed to the script generator.
type Artifact struct {
	JobID    string   `json:"job_id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

type Metadata struct {
	Source     string `json:"source"`
	SourceType string `json:"source_type"`
	SizeBytes  int64  `json:"size_bytes"`
	Pages      int    `json:"pages,omitempty"`
	Chars      int    `json:"chars"`
}

// Engine is the ingestion stage adapter.
type Engine struct {
	outputDir string
	client    *http.Client
	runner    media.Runner
	log       *zap.Logger
}

func NewEngine(outputDir string, client *http.Client, log *zap.Logger) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	return &Engine{outputDir: outputDir, client: client, runner: &media.ExecRunner{}, log: log}
}

// WithRunner overrides the OCR process runner, used by tests and to
// share the application's exec runner.
func (e *Engine) WithRunner(r media.Runner) *Engine {
	e.runner = r
	return e
}

func (e *Engine) Name() string { return pipeline.StageIngestion }

// Execute reads the job source (pdf, image, html or txt), extracts text
// and writes <output_dir>/<job_id>.json. Re-running a job id overwrites.
func (e *Engine) Execute(ctx context.Context, job *pipeline.Job, input string, cfg *config.Module) (pipeline.Output, error) {
	maxBytes := int64(cfg.IntOr("max_file_size_mb", 50)) * 1024 * 1024
	minContent := cfg.IntOr("min_content_length", 200)

	var (
		artifact Artifact
		err      error
	)
	switch job.SourceType {
	case "pdf":
		artifact, err = e.readPDF(job.Source, maxBytes)
	case "image":
		artifact, err = e.readImage(ctx, job.Source, maxBytes, cfg.StringOr("ocr_binary", "tesseract"))
	case "html":
		artifact, err = e.readHTML(ctx, job.Source)
	case "txt":
		artifact, err = e.readText(job.Source, maxBytes)
	default:
		return pipeline.Output{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent,
			fmt.Sprintf("unsupported source type %q", job.SourceType), nil)
	}
	if err != nil {
		return pipeline.Output{}, err
	}

	if len(artifact.Content) < minContent {
		return pipeline.Output{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent,
			fmt.Sprintf("extracted content too short (%d chars, need %d)", len(artifact.Content), minContent), nil)
	}

	artifact.JobID = job.ID
	artifact.Metadata.Chars = len(artifact.Content)

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent, "create output directory", err)
	}
	outPath := filepath.Join(e.outputDir, job.ID+".json")
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return pipeline.Output{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent, "encode artifact", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent, "write artifact", err)
	}

	e.log.Info("ingestion complete",
		zap.String("job", job.ID),
		zap.String("source", job.Source),
		zap.Int("chars", artifact.Metadata.Chars))
	return pipeline.Output{Artifact: outPath}, nil
}

func (e *Engine) readPDF(path string, maxBytes int64) (Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent, "source file not found", err)
	}
	if info.Size() > maxBytes {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent,
			fmt.Sprintf("pdf exceeds maximum size (%d bytes)", maxBytes), nil)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent, "open pdf", err)
	}
	defer f.Close()

	var sb strings.Builder
	totalPages := r.NumPage()
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent,
				fmt.Sprintf("extract text from page %d", pageIndex), err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return Artifact{
		Content: strings.TrimSpace(sb.String()),
		Metadata: Metadata{
			Source:     path,
			SourceType: "pdf",
			SizeBytes:  info.Size(),
			Pages:      totalPages,
		},
	}, nil
}

// readImage extracts text from a scanned page or photo by shelling out
// to tesseract, which prints recognized text when told to write to
// stdout.
func (e *Engine) readImage(ctx context.Context, path string, maxBytes int64, ocrBin string) (Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent, "source file not found", err)
	}
	if info.Size() > maxBytes {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent,
			fmt.Sprintf("image exceeds maximum size (%d bytes)", maxBytes), nil)
	}

	res, err := e.runner.Run(ctx, ocrBin, path, "stdout")
	if err != nil {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent,
			fmt.Sprintf("ocr failed (%s)", strings.TrimSpace(res.Stderr)), err)
	}

	return Artifact{
		Content: strings.TrimSpace(res.Stdout),
		Metadata: Metadata{
			Source:     path,
			SourceType: "image",
			SizeBytes:  info.Size(),
		},
	}, nil
}

func (e *Engine) readHTML(ctx context.Context, url string) (Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent, "build request", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindTransient, "fetch url", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindTransient,
			fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent,
			fmt.Sprintf("server returned %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindTransient, "read response", err)
	}

	return Artifact{
		Content: extractHTMLText(string(body)),
		Metadata: Metadata{
			Source:     url,
			SourceType: "html",
			SizeBytes:  int64(len(body)),
		},
	}, nil
}

func (e *Engine) readText(path string, maxBytes int64) (Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent, "source file not found", err)
	}
	if info.Size() > maxBytes {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent,
			fmt.Sprintf("file exceeds maximum size (%d bytes)", maxBytes), nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, pipeline.NewStageError(e.Name(), pipeline.KindPermanent, "read source file", err)
	}
	return Artifact{
		Content: strings.TrimSpace(string(data)),
		Metadata: Metadata{
			Source:     path,
			SourceType: "txt",
			SizeBytes:  info.Size(),
		},
	}, nil
}
