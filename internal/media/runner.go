// Package media wraps the external ffmpeg/ffprobe tooling behind a
// runner interface so stage adapters stay testable without the binaries.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result is one external command invocation outcome.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner abstracts process execution for testability.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner executes commands via os/exec.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// Tools bundles the ffmpeg/ffprobe paths from configuration.
type Tools struct {
	FFmpeg  string
	FFprobe string
	Runner  Runner
}

func DefaultTools() *Tools {
	return &Tools{FFmpeg: "ffmpeg", FFprobe: "ffprobe", Runner: &ExecRunner{}}
}

// Duration probes a media file's duration in seconds.
func (t *Tools) Duration(ctx context.Context, path string) (float64, error) {
	res, err := t.Runner.Run(ctx, t.FFprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w (%s)", path, err, strings.TrimSpace(res.Stderr))
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(res.Stdout), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unparseable duration %q", path, res.Stdout)
	}
	return dur, nil
}

// FramesToVideo compiles a numbered PNG frame sequence into an MP4.
// secondsPerFrame stretches each frame (slideshow-style scene cards);
// fps is the output frame rate.
func (t *Tools) FramesToVideo(ctx context.Context, framePattern, outPath string, secondsPerFrame float64, fps, width, height int) error {
	res, err := t.Runner.Run(ctx, t.FFmpeg,
		"-y",
		"-framerate", fmt.Sprintf("1/%g", secondsPerFrame),
		"-i", framePattern,
		"-r", strconv.Itoa(fps),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		outPath)
	if err != nil {
		return fmt.Errorf("ffmpeg frame compile: %w (%s)", err, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// MergeOptions carry the codec settings for the final composition.
type MergeOptions struct {
	VideoCodec   string
	VideoBitrate string
	CRF          int
	AudioCodec   string
	AudioBitrate string
	Threads      int
}

// Merge muxes animation video, narration audio and optional subtitles
// into the final MP4.
func (t *Tools) Merge(ctx context.Context, videoPath, audioPath, subtitlePath, outPath string, opts MergeOptions) error {
	args := []string{"-y", "-i", videoPath, "-i", audioPath}
	if subtitlePath != "" {
		args = append(args, "-vf", fmt.Sprintf("subtitles=%s", subtitlePath))
	}
	args = append(args,
		"-c:v", opts.VideoCodec,
		"-b:v", opts.VideoBitrate,
		"-crf", strconv.Itoa(opts.CRF),
		"-c:a", opts.AudioCodec,
		"-b:a", opts.AudioBitrate,
		"-threads", strconv.Itoa(opts.Threads),
		"-shortest",
		outPath)

	res, err := t.Runner.Run(ctx, t.FFmpeg, args...)
	if err != nil {
		return fmt.Errorf("ffmpeg merge: %w (%s)", err, strings.TrimSpace(res.Stderr))
	}
	return nil
}
