// Package compose merges animation, narration and subtitles into the
// final video via ffmpeg.
package compose

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/media"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
)

// Composer is the video composition stage adapter.
type Composer struct {
	animationDir string
	subtitleDir  string
	outputDir    string
	tools        *media.Tools
	log          *zap.Logger
}

func NewComposer(animationDir, subtitleDir, outputDir string, tools *media.Tools, log *zap.Logger) *Composer {
	if tools == nil {
		tools = media.DefaultTools()
	}
	return &Composer{
		animationDir: animationDir,
		subtitleDir:  subtitleDir,
		outputDir:    outputDir,
		tools:        tools,
		log:          log,
	}
}

func (c *Composer) Name() string { return pipeline.StageComposition }

// Execute muxes the animation video (by convention under the animation
// output tree), the narration WAV handed off from the voice stage and
// the job's subtitles into <final_video_dir>/<job>_final.mp4.
func (c *Composer) Execute(ctx context.Context, job *pipeline.Job, input string, cfg *config.Module) (pipeline.Output, error) {
	animationPath := filepath.Join(c.animationDir, job.ID, "animation.mp4")
	if _, err := os.Stat(animationPath); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(c.Name(), pipeline.KindArtifact, "animation video missing", err)
	}
	if _, err := os.Stat(input); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(c.Name(), pipeline.KindArtifact, "narration audio missing", err)
	}

	subtitlePath := filepath.Join(c.subtitleDir, job.ID+".srt")
	if _, err := os.Stat(subtitlePath); err != nil {
		// Subtitles are optional in the mux; the voice stage may be
		// configured without them.
		subtitlePath = ""
	}

	if err := c.checkSync(ctx, animationPath, input, cfg.FloatOr("sync_tolerance_seconds", 2.0)); err != nil {
		return pipeline.Output{}, err
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(c.Name(), pipeline.KindPermanent, "create output directory", err)
	}
	outPath := filepath.Join(c.outputDir, job.ID+"_final.mp4")

	opts := media.MergeOptions{
		VideoCodec:   cfg.StringOr("video_codec", "libx264"),
		VideoBitrate: cfg.StringOr("video_bitrate", "2M"),
		CRF:          cfg.IntOr("crf", 23),
		AudioCodec:   cfg.StringOr("audio_codec", "aac"),
		AudioBitrate: cfg.StringOr("audio_bitrate", "192k"),
		Threads:      cfg.IntOr("threads", 2),
	}
	if err := c.tools.Merge(ctx, animationPath, input, subtitlePath, outPath, opts); err != nil {
		return pipeline.Output{}, pipeline.Classify(c.Name(), err)
	}

	c.log.Info("final video composed", zap.String("job", job.ID), zap.String("output", outPath))
	return pipeline.Output{Artifact: outPath}, nil
}

// checkSync compares animation and narration durations; a drift beyond
// the tolerance means the storyboard timing is off and the mux would
// trail silence or cut narration.
func (c *Composer) checkSync(ctx context.Context, videoPath, audioPath string, tolerance float64) error {
	videoDur, err := c.tools.Duration(ctx, videoPath)
	if err != nil {
		return pipeline.Classify(c.Name(), err)
	}
	audioDur, err := c.tools.Duration(ctx, audioPath)
	if err != nil {
		return pipeline.Classify(c.Name(), err)
	}

	if drift := math.Abs(videoDur - audioDur); drift > tolerance {
		c.log.Warn("audio/video drift above tolerance",
			zap.Float64("video_seconds", videoDur),
			zap.Float64("audio_seconds", audioDur),
			zap.Float64("drift", drift))
		return pipeline.NewStageError(c.Name(), pipeline.KindPermanent,
			fmt.Sprintf("audio/video drift %.1fs exceeds tolerance %.1fs", drift, tolerance), nil)
	}
	return nil
}
