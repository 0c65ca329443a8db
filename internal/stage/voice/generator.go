// Package voice synthesizes the narration track and subtitles from the
// script artifact.
package voice

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/levi616boop/AI-content-gen/internal/config"
	"github.com/levi616boop/AI-content-gen/internal/pipeline"
	"github.com/levi616boop/AI-content-gen/internal/stage/script"
)

// Generator is the voice generation stage adapter.
type Generator struct {
	scriptDir   string
	outputDir   string
	subtitleDir string
	tts         *TTSClient
	log         *zap.Logger
}

func NewGenerator(scriptDir, outputDir, subtitleDir string, tts *TTSClient, log *zap.Logger) *Generator {
	return &Generator{
		scriptDir:   scriptDir,
		outputDir:   outputDir,
		subtitleDir: subtitleDir,
		tts:         tts,
		log:         log,
	}
}

func (g *Generator) Name() string { return pipeline.StageVoice }

// Execute synthesizes narration for the whole script, writes
// <voice_dir>/<job>_narration.wav and <subtitle_dir>/<job>.srt. The
// script artifact is looked up by job id since the linear hand-off at
// this point carries the animation video.
func (g *Generator) Execute(ctx context.Context, job *pipeline.Job, input string, cfg *config.Module) (pipeline.Output, error) {
	sampleRate := cfg.IntOr("sample_rate", 44100)
	wordsPerMinute := cfg.IntOr("words_per_minute", 150)
	maxLineChars := cfg.IntOr("max_line_length", 42)

	profile, err := g.resolveProfile(cfg)
	if err != nil {
		return pipeline.Output{}, err
	}

	scriptPath := filepath.Join(g.scriptDir, job.ID+".json")
	raw, err := os.ReadFile(scriptPath)
	if err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindArtifact, "read script artifact", err)
	}
	var scriptArt script.Artifact
	if err := json.Unmarshal(raw, &scriptArt); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindArtifact, "decode script artifact", err)
	}

	narration := NarrationText(&scriptArt)
	if narration == "" {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindPermanent, "script has no narration text", nil)
	}

	g.log.Info("synthesizing narration",
		zap.String("job", job.ID),
		zap.String("voice", profile.VoiceID),
		zap.Int("chars", len(narration)))
	pcm, err := g.tts.Synthesize(ctx, narration, profile, sampleRate)
	if err != nil {
		return pipeline.Output{}, pipeline.Classify(g.Name(), err)
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindPermanent, "create output directory", err)
	}
	wavPath := filepath.Join(g.outputDir, job.ID+"_narration.wav")
	if err := writeWAV(wavPath, pcm, sampleRate); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindPermanent, "write narration wav", err)
	}

	if err := os.MkdirAll(g.subtitleDir, 0o755); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindPermanent, "create subtitle directory", err)
	}
	srtPath := filepath.Join(g.subtitleDir, job.ID+".srt")
	cues := BuildCues(NarrationFragments(&scriptArt), wordsPerMinute, maxLineChars)
	if err := os.WriteFile(srtPath, []byte(FormatSRT(cues)), 0o644); err != nil {
		return pipeline.Output{}, pipeline.NewStageError(g.Name(), pipeline.KindPermanent, "write subtitles", err)
	}

	return pipeline.Output{Artifact: wavPath, Extra: []string{srtPath}}, nil
}

func (g *Generator) resolveProfile(cfg *config.Module) (Profile, error) {
	profileName := cfg.StringOr("voice_profile", "")
	if profileName != "" {
		var profiles map[string]Profile
		if err := cfg.Decode("voice_profiles", &profiles); err != nil {
			return Profile{}, err
		}
		p, ok := profiles[profileName]
		if !ok {
			return Profile{}, fmt.Errorf("%w: voice profile %q is not defined", config.ErrConfiguration, profileName)
		}
		return p, nil
	}

	return Profile{
		VoiceID:         cfg.StringOr("default_voice_id", "21m00Tcm4TlvDq8ikWAM"),
		Model:           cfg.StringOr("default_model", "eleven_monolingual_v2"),
		Stability:       cfg.FloatOr("stability", 0.5),
		SimilarityBoost: cfg.FloatOr("similarity_boost", 0.75),
	}, nil
}

// NarrationText strips section and pause markers so only spoken words
// reach the TTS service.
func NarrationText(art *script.Artifact) string {
	return strings.TrimSpace(strings.Join(NarrationFragments(art), "\n\n"))
}

// NarrationFragments returns the spoken fragments between pause markers,
// in script order. These are also the subtitle cue boundaries.
func NarrationFragments(art *script.Artifact) []string {
	sections := art.Sections
	if len(sections) == 0 {
		sections = []script.Section{{Text: art.Script}}
	}

	var fragments []string
	for _, section := range sections {
		for _, fragment := range strings.Split(section.Text, script.MarkerPause) {
			if fragment = strings.TrimSpace(fragment); fragment != "" {
				fragments = append(fragments, fragment)
			}
		}
	}
	return fragments
}

// writeWAV encodes 16-bit little-endian mono PCM.
func writeWAV(path string, pcm []byte, sampleRate int) error {
	if len(pcm)%2 != 0 {
		return fmt.Errorf("pcm stream is %d bytes, not a whole number of 16-bit samples", len(pcm))
	}
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Data:           samples,
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
