// Package media wraps the external tools the pipeline shells out to:
// ffmpeg for audio extraction and subtitle burn-in, whisper for
// speech-to-text. Argument vectors are built deterministically from paths
// inside the job namespace; success is the tool's zero exit status.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner abstracts process execution so tests can stand in for the real
// binaries.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// execRunner executes commands via os/exec, capturing stderr so a failure
// can explain itself.
type execRunner struct{}

// stderrTailLimit bounds how much tool output lands in a job's error field.
const stderrTailLimit = 512

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmdPath, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, cmdPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with status %d: %s",
				name, exitErr.ExitCode(), stderrTail(stderr.String()))
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(no stderr output)"
	}
	if len(s) > stderrTailLimit {
		s = s[len(s)-stderrTailLimit:]
	}
	// Keep the error field single-line friendly.
	return strings.Join(strings.Fields(s), " ")
}

// Toolchain invokes the configured tool binaries.
type Toolchain struct {
	FFmpegBin  string
	WhisperBin string
	ModelPath  string

	runner Runner
}

func NewToolchain(ffmpegBin, whisperBin, modelPath string) *Toolchain {
	return &Toolchain{
		FFmpegBin:  ffmpegBin,
		WhisperBin: whisperBin,
		ModelPath:  modelPath,
		runner:     execRunner{},
	}
}

// NewToolchainWithRunner constructs a toolchain with an injected runner.
func NewToolchainWithRunner(ffmpegBin, whisperBin, modelPath string, runner Runner) *Toolchain {
	return &Toolchain{
		FFmpegBin:  ffmpegBin,
		WhisperBin: whisperBin,
		ModelPath:  modelPath,
		runner:     runner,
	}
}

// ExtractAudio transcodes the first audio track of src to mono 16kHz PCM
// WAV at dst.
func (t *Toolchain) ExtractAudio(ctx context.Context, src, dst string) error {
	return t.runner.Run(ctx, t.FFmpegBin, extractAudioArgs(src, dst)...)
}

// Transcribe runs speech-to-text over the extracted audio, writing
// {outStem}.srt and {outStem}.txt. An empty language requests auto-detection.
func (t *Toolchain) Transcribe(ctx context.Context, audio, outStem, language string) error {
	return t.runner.Run(ctx, t.WhisperBin, transcribeArgs(t.ModelPath, audio, outStem, language)...)
}

// BurnIn renders src with the subtitle file composited into the video
// stream, writing the result to dst.
func (t *Toolchain) BurnIn(ctx context.Context, src, subtitle, dst string) error {
	return t.runner.Run(ctx, t.FFmpegBin, burnInArgs(src, subtitle, dst)...)
}

func extractAudioArgs(src, dst string) []string {
	return []string{
		"-y",
		"-i", src,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		dst,
	}
}

func transcribeArgs(model, audio, outStem, language string) []string {
	args := []string{
		"-m", model,
		"-f", audio,
		"--output-srt",
		"--output-txt",
		"--output-file", outStem,
	}
	if language != "" {
		args = append(args, "-l", language)
	}
	return args
}

func burnInArgs(src, subtitle, dst string) []string {
	return []string{
		"-y",
		"-i", src,
		"-vf", fmt.Sprintf("subtitles=%s", subtitle),
		dst,
	}
}
