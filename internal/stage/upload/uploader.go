// Package upload publishes the final video to the configured platforms
// and writes the per-job upload receipt.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/common"
	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/credentials"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/stage/script"
)

var defaultEndpoints = map[string]string{
	"youtube":   "https://upload.youtube.example/v1",
	"tiktok":    "https://upload.tiktok.example/v1",
	"instagram": "https://upload.instagram.example/v1",
}

// PlatformConfig is one platform entry under module_specific.uploader.
type PlatformConfig struct {
	Endpoint string           `json:"endpoint"`
	Required bool             `json:"required"`
	Metadata MetadataTemplate `json:"metadata"`
}

// Receipt records every platform attempt for one job.
type Receipt struct {
	JobID      string           `json:"job_id"`
	VideoPath  string           `json:"video_path"`
	UploadedAt time.Time        `json:"uploaded_at"`
	Platforms  []PlatformResult `json:"platforms"`
}

type PlatformResult struct {
	Platform string `json:"platform"`
	Status   string `json:"status"`
	RemoteID string `json:"remote_id,omitempty"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Uploader is the upload stage adapter.
type Uploader struct {
	scriptDir string
	outputDir string
	keys      *credentials.Keys
	client    *http.Client
	limiter   *common.Limiter
	log       *zap.Logger
}

func NewUploader(scriptDir, outputDir string, keys *credentials.Keys, client *http.Client, log *zap.Logger) *Uploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Uploader{
		scriptDir: scriptDir,
		outputDir: outputDir,
		keys:      keys,
		client:    client,
		limiter:   common.NewLimiter(1),
		log:       log,
	}
}

func (u *Uploader) Name() string { return pipeline.StageUpload }

// Execute uploads the final video to every platform that has both a
// config entry and a credential, then writes the receipt artifact. A
// failure on a required platform fails the stage; optional platforms
// only annotate the receipt.
func (u *Uploader) Execute(ctx context.Context, job *pipeline.Job, input string, cfg *config.Module) (pipeline.Output, error) {
	var platforms map[string]PlatformConfig
	if err := cfg.Decode("platforms", &platforms); err != nil {
		return pipeline.Output{}, err
	}

	scriptArt, err := u.loadScript(job.ID)
	if err != nil {
		return pipeline.Output{}, err
	}

	receipt := Receipt{
		JobID:      job.ID,
		VideoPath:  input,
		UploadedAt: time.Now(),
	}

	var requiredErr *pipeline.StageError
	for name, platform := range platforms {
		key := u.keys.Platform(name)
		if key == "" {
			receipt.Platforms = append(receipt.Platforms, PlatformResult{
				Platform: name, Status: "skipped", Error: "no credential configured",
			})
			continue
		}

		meta := BuildMetadata(scriptArt, platform.Metadata)
		result, upErr := u.uploadOne(ctx, name, platform, key, input, meta)
		receipt.Platforms = append(receipt.Platforms, result)
		if upErr != nil && platform.Required {
			requiredErr = upErr
		}
	}

	if err := os.MkdirAll(u.outputDir, 0o755); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(u.Name(), pipeline.KindPermanent, "create receipt directory", err)
	}
	outPath := filepath.Join(u.outputDir, job.ID+"_uploads.json")
	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return pipeline.Output{}, pipeline.NewStageError(u.Name(), pipeline.KindPermanent, "encode receipt", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(u.Name(), pipeline.KindPermanent, "write receipt", err)
	}

	if requiredErr != nil {
		return pipeline.Output{}, requiredErr
	}
	return pipeline.Output{Artifact: outPath}, nil
}

func (u *Uploader) loadScript(jobID string) (*script.Artifact, error) {
	raw, err := os.ReadFile(filepath.Join(u.scriptDir, jobID+".json"))
	if err != nil {
		return nil, pipeline.NewStageError(u.Name(), pipeline.KindArtifact, "read script artifact", err)
	}
	var art script.Artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, pipeline.NewStageError(u.Name(), pipeline.KindArtifact, "decode script artifact", err)
	}
	return &art, nil
}

func (u *Uploader) uploadOne(ctx context.Context, name string, platform PlatformConfig, key, videoPath string, meta Metadata) (PlatformResult, *pipeline.StageError) {
	endpoint := platform.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoints[name]
	}
	if endpoint == "" {
		se := pipeline.NewStageError(u.Name(), pipeline.KindConfig,
			fmt.Sprintf("no endpoint for platform %s", name), config.ErrConfiguration)
		return PlatformResult{Platform: name, Status: "failed", Error: se.Error()}, se
	}

	body, contentType, err := buildMultipart(videoPath, meta)
	if err != nil {
		se := pipeline.NewStageError(u.Name(), pipeline.KindPermanent, "build upload body", err)
		return PlatformResult{Platform: name, Status: "failed", Error: se.Error()}, se
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/videos", body)
	if err != nil {
		se := pipeline.NewStageError(u.Name(), pipeline.KindPermanent, "create upload request", err)
		return PlatformResult{Platform: name, Status: "failed", Error: se.Error()}, se
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", contentType)

	if err := u.limiter.Acquire(ctx); err != nil {
		se := pipeline.Classify(u.Name(), err)
		return PlatformResult{Platform: name, Status: "failed", Error: se.Error()}, se
	}
	resp, err := u.client.Do(req)
	u.limiter.Release()
	if err != nil {
		se := pipeline.NewStageError(u.Name(), pipeline.KindTransient, fmt.Sprintf("%s upload failed", name), err)
		return PlatformResult{Platform: name, Status: "failed", Error: se.Error()}, se
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		se := pipeline.NewStageError(u.Name(), pipeline.KindTransient,
			fmt.Sprintf("%s returned %d", name, resp.StatusCode), nil)
		return PlatformResult{Platform: name, Status: "failed", Error: se.Error()}, se
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		se := pipeline.NewStageError(u.Name(), pipeline.KindPermanent,
			fmt.Sprintf("%s returned %d", name, resp.StatusCode), nil)
		return PlatformResult{Platform: name, Status: "failed", Error: se.Error()}, se
	}

	var remote struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	_ = json.Unmarshal(respBody, &remote)

	u.log.Info("upload complete",
		zap.String("platform", name),
		zap.String("remote_id", remote.ID))
	return PlatformResult{Platform: name, Status: "uploaded", RemoteID: remote.ID, URL: remote.URL}, nil
}

func buildMultipart(videoPath string, meta Metadata) (io.Reader, string, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("metadata", string(metaJSON)); err != nil {
		return nil, "", err
	}

	part, err := writer.CreateFormFile("video", filepath.Base(videoPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
