// Package pipeline runs the transcription stage sequence for one job:
// audio extraction, speech-to-text, and optional subtitle burn-in. Stages
// run strictly in order, each gated on the previous one's success, and the
// job record is rewritten with a full next-state snapshot at every
// checkpoint.
package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"

	"github.com/mediasub/autosub/internal/jobs"
	"github.com/mediasub/autosub/internal/media"
	"github.com/mediasub/autosub/pkg/log"
)

type Executor struct {
	store *jobs.Store
	tools *media.Toolchain
}

func NewExecutor(store *jobs.Store, tools *media.Toolchain) *Executor {
	return &Executor{
		store: store,
		tools: tools,
	}
}

// Run drives one job to a terminal state. Every failure is converted into
// a persisted failed record; nothing escapes to the caller. If the job's
// namespace disappears mid-flight (deleted by the API), the executor stops
// at its next record write instead of resurrecting it.
func (e *Executor) Run(ctx context.Context, job *jobs.Job) {
	if !e.checkpoint(job, jobs.StatusProcessing, jobs.ProgressStarted) {
		return
	}
	log.Info("Job %s processing started", job.ID)

	source := e.store.SourcePath(job.ID, job.Filename)
	audio := e.store.AudioPath(job.ID)

	if err := e.tools.ExtractAudio(ctx, source, audio); err != nil {
		e.fail(job, err)
		return
	}
	if !e.checkpoint(job, jobs.StatusProcessing, jobs.ProgressExtracted) {
		return
	}
	log.Debug("Job %s audio extracted", job.ID)

	language := job.Options.Language
	if language == jobs.AutoLanguage {
		language = ""
	}
	if err := e.tools.Transcribe(ctx, audio, e.store.SubtitleStemPath(job.ID), language); err != nil {
		e.fail(job, err)
		return
	}
	if job.Options.Language == jobs.AutoLanguage {
		job.DetectedLanguage = e.detectLanguage(job.ID)
	}
	if !e.checkpoint(job, jobs.StatusProcessing, jobs.ProgressTranscribed) {
		return
	}
	log.Debug("Job %s transcribed", job.ID)

	if job.Options.BurnIn {
		subtitle, err := e.store.ResolveSubtitle(job.ID)
		if err != nil {
			e.fail(job, err)
			return
		}
		out := filepath.Join(e.store.JobDir(job.ID), jobs.OutputVideo)
		if err := e.tools.BurnIn(ctx, source, subtitle, out); err != nil {
			e.fail(job, err)
			return
		}
		log.Debug("Job %s subtitles burned in", job.ID)
	}

	if e.checkpoint(job, jobs.StatusCompleted, jobs.ProgressDone) {
		log.Info("Job %s completed", job.ID)
	}
}

// checkpoint persists the next full state of the record. Returns false when
// the job has been deleted, which aborts the pipeline.
func (e *Executor) checkpoint(job *jobs.Job, status jobs.Status, progress int) bool {
	job.Status = status
	job.Progress = progress
	job.UpdatedAt = nowUTC()
	if err := e.store.Write(job); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			log.Info("Job %s was deleted mid-flight, stopping", job.ID)
		} else {
			log.Error("Failed to persist job %s state: %v", job.ID, err)
		}
		return false
	}
	return true
}

// fail records a terminal failure. Progress stays frozen at the last
// checkpoint that was reached.
func (e *Executor) fail(job *jobs.Job, cause error) {
	log.Error("Job %s failed: %v", job.ID, cause)
	job.Status = jobs.StatusFailed
	job.Error = cause.Error()
	job.UpdatedAt = nowUTC()
	if err := e.store.Write(job); err != nil && !errors.Is(err, jobs.ErrNotFound) {
		log.Error("Failed to persist failure for job %s: %v", job.ID, err)
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// detectLanguage reports the ISO 639-1 code of the freshly written
// transcript, or empty when there is nothing to detect.
func (e *Executor) detectLanguage(id string) string {
	path, err := e.store.ResolveTranscript(id)
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return ""
	}
	return whatlanggo.DetectLang(text).Iso6391()
}
