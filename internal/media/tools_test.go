package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	name string
	args []string
	err  error
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) error {
	r.name = name
	r.args = args
	return r.err
}

func TestToolchain_ExtractAudioArgs(t *testing.T) {
	runner := &recordingRunner{}
	tc := NewToolchainWithRunner("ffmpeg", "whisper-cli", "model.bin", runner)

	require.NoError(t, tc.ExtractAudio(context.Background(), "/jobs/a/a.mp4", "/jobs/a/audio.wav"))
	assert.Equal(t, "ffmpeg", runner.name)
	assert.Equal(t, []string{
		"-y",
		"-i", "/jobs/a/a.mp4",
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"/jobs/a/audio.wav",
	}, runner.args)
}

func TestToolchain_TranscribeArgs(t *testing.T) {
	runner := &recordingRunner{}
	tc := NewToolchainWithRunner("ffmpeg", "whisper-cli", "model.bin", runner)

	require.NoError(t, tc.Transcribe(context.Background(), "/jobs/a/audio.wav", "/jobs/a/subtitle", "en"))
	assert.Equal(t, "whisper-cli", runner.name)
	assert.Equal(t, []string{
		"-m", "model.bin",
		"-f", "/jobs/a/audio.wav",
		"--output-srt",
		"--output-txt",
		"--output-file", "/jobs/a/subtitle",
		"-l", "en",
	}, runner.args)
}

func TestToolchain_TranscribeOmitsLanguageForAutoDetect(t *testing.T) {
	runner := &recordingRunner{}
	tc := NewToolchainWithRunner("ffmpeg", "whisper-cli", "model.bin", runner)

	require.NoError(t, tc.Transcribe(context.Background(), "audio.wav", "subtitle", ""))
	assert.NotContains(t, runner.args, "-l")
}

func TestToolchain_BurnInArgs(t *testing.T) {
	runner := &recordingRunner{}
	tc := NewToolchainWithRunner("ffmpeg", "whisper-cli", "model.bin", runner)

	require.NoError(t, tc.BurnIn(context.Background(), "/jobs/a/a.mp4", "/jobs/a/subtitle.srt", "/jobs/a/output.mp4"))
	assert.Equal(t, []string{
		"-y",
		"-i", "/jobs/a/a.mp4",
		"-vf", "subtitles=/jobs/a/subtitle.srt",
		"/jobs/a/output.mp4",
	}, runner.args)
}

func TestStderrTail(t *testing.T) {
	assert.Equal(t, "(no stderr output)", stderrTail("  \n"))
	assert.Equal(t, "decode error on frame 3", stderrTail("decode error\non frame 3\n"))

	long := ""
	for i := 0; i < 200; i++ {
		long += "frame dropped "
	}
	tail := stderrTail(long)
	assert.LessOrEqual(t, len(tail), stderrTailLimit)
}
