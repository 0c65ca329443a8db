// Package animate renders the script storyboard into scene frames and
// compiles them into the animation video consumed by the composer.
package animate

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/media"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/stage/script"
)

var resolutionMap = map[string][2]int{
	"480p":  {854, 480},
	"720p":  {1280, 720},
	"1080p": {1920, 1080},
	"4k":    {3840, 2160},
}

// sectionPalette keys scene card colors off the section so cuts are
// visible even in the placeholder rendering.
var sectionPalette = map[string]color.NRGBA{
	"Introduction": {R: 0x1f, G: 0x3a, B: 0x5f, A: 0xff},
	"Main Content": {R: 0x14, G: 0x2d, B: 0x4c, A: 0xff},
	"Summary":      {R: 0x0d, G: 0x1f, B: 0x33, A: 0xff},
}

// Animator is the animation stage adapter.
type Animator struct {
	outputDir string
	tools     *media.Tools
	log       *zap.Logger
}

func NewAnimator(outputDir string, tools *media.Tools, log *zap.Logger) *Animator {
	if tools == nil {
		tools = media.DefaultTools()
	}
	return &Animator{outputDir: outputDir, tools: tools, log: log}
}

func (a *Animator) Name() string { return pipeline.StageAnimation }

// Execute builds the storyboard from the script artifact, writes SVG and
// PNG frames per scene under <output_dir>/<job_id>/ and compiles the PNG
// sequence into animation.mp4 with ffmpeg.
func (a *Animator) Execute(ctx context.Context, job *pipeline.Job, input string, cfg *config.Module) (pipeline.Output, error) {
	resolution := cfg.StringOr("output_resolution", cfg.Base().OutputVideoResolution)
	dims, ok := resolutionMap[resolution]
	if !ok {
		return pipeline.Output{}, fmt.Errorf("%w: animator resolution %q is not one of 480p/720p/1080p/4k",
			config.ErrConfiguration, resolution)
	}
	fps := cfg.IntOr("fps", 30)
	sceneDuration := cfg.FloatOr("scene_duration_seconds", 5)
	transition := cfg.StringOr("default_transition", "fade")

	raw, err := os.ReadFile(input)
	if err != nil {
		return pipeline.Output{}, pipeline.NewStageError(a.Name(), pipeline.KindArtifact, "read script artifact", err)
	}
	var scriptArt script.Artifact
	if err := json.Unmarshal(raw, &scriptArt); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(a.Name(), pipeline.KindArtifact, "decode script artifact", err)
	}

	sb := BuildStoryboard(&scriptArt, sceneDuration, transition)
	sb.Resolution = resolution
	sb.FPS = fps

	jobDir := filepath.Join(a.outputDir, job.ID)
	framesDir := filepath.Join(jobDir, "frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(a.Name(), pipeline.KindPermanent, "create frames directory", err)
	}

	sbPath := filepath.Join(jobDir, "storyboard.json")
	sbData, err := json.MarshalIndent(sb, "", "  ")
	if err != nil {
		return pipeline.Output{}, pipeline.NewStageError(a.Name(), pipeline.KindPermanent, "encode storyboard", err)
	}
	if err := os.WriteFile(sbPath, sbData, 0o644); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(a.Name(), pipeline.KindPermanent, "write storyboard", err)
	}

	for i, scene := range sb.Scenes {
		svgPath := filepath.Join(framesDir, fmt.Sprintf("frame_%04d.svg", i))
		if err := os.WriteFile(svgPath, renderSceneSVG(scene, dims[0], dims[1]), 0o644); err != nil {
			return pipeline.Output{}, pipeline.NewStageError(a.Name(), pipeline.KindPermanent, "write svg frame", err)
		}
		pngPath := filepath.Join(framesDir, fmt.Sprintf("frame_%04d.png", i))
		if err := writeSceneCard(pngPath, scene, dims[0], dims[1]); err != nil {
			return pipeline.Output{}, pipeline.NewStageError(a.Name(), pipeline.KindPermanent, "write png frame", err)
		}
	}

	outPath := filepath.Join(jobDir, "animation.mp4")
	pattern := filepath.Join(framesDir, "frame_%04d.png")
	if err := a.tools.FramesToVideo(ctx, pattern, outPath, sceneDuration, fps, dims[0], dims[1]); err != nil {
		return pipeline.Output{}, pipeline.Classify(a.Name(), err)
	}

	a.log.Info("animation compiled",
		zap.String("job", job.ID),
		zap.Int("scenes", len(sb.Scenes)),
		zap.Float64("total_seconds", sb.TotalSecs))
	return pipeline.Output{Artifact: outPath, Extra: []string{sbPath}}, nil
}

// writeSceneCard renders the placeholder scene card as a flat PNG; the
// SVG next to it carries the actual text for downstream renderers.
func writeSceneCard(path string, scene Scene, width, height int) error {
	bg, ok := sectionPalette[scene.Section]
	if !ok {
		bg = color.NRGBA{R: 0x10, G: 0x28, B: 0x40, A: 0xff}
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		// Slight vertical gradient, keeps the encoder from collapsing
		// every card into identical frames.
		shade := bg
		shade.B = uint8(int(bg.B) + (y*24)/height)
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, shade)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
