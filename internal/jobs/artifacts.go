package jobs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Well-known artifact names inside a job's namespace.
const (
	AudioFile      = "audio.wav"
	SubtitleFile   = "subtitle.srt"
	TranscriptFile = "subtitle.txt"
	OutputVideo    = "output.mp4"

	// SubtitleStem is the output-file stem handed to the transcriber; it
	// appends .srt and .txt itself.
	SubtitleStem = "subtitle"
)

// SourcePath returns the path of a job's persisted source media.
func (s *Store) SourcePath(id, filename string) string {
	return filepath.Join(s.JobDir(id), filename)
}

// AudioPath returns the path of the mono 16kHz audio extract.
func (s *Store) AudioPath(id string) string {
	return filepath.Join(s.JobDir(id), AudioFile)
}

// SubtitleStemPath returns the transcriber output stem.
func (s *Store) SubtitleStemPath(id string) string {
	return filepath.Join(s.JobDir(id), SubtitleStem)
}

// Artifact resolution is deliberately independent of job status: a subtitle
// from a successful transcription stage stays retrievable even if a later
// burn-in stage failed, and a queued job simply has nothing on disk yet.

func (s *Store) ResolveSubtitle(id string) (string, error) {
	return s.resolveArtifact(id, SubtitleFile)
}

func (s *Store) ResolveTranscript(id string) (string, error) {
	return s.resolveArtifact(id, TranscriptFile)
}

func (s *Store) ResolveRenderedVideo(id string) (string, error) {
	return s.resolveArtifact(id, OutputVideo)
}

func (s *Store) resolveArtifact(id, name string) (string, error) {
	path := filepath.Join(s.JobDir(id), name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("artifact %s for job %s: %w", name, id, ErrNotFound)
		}
		return "", fmt.Errorf("stat artifact %s for job %s: %w", name, id, err)
	}
	return path, nil
}
