package jobs

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/mediasub/autosub/pkg/file"
	"github.com/mediasub/autosub/pkg/log"
)

// RunFunc executes the pipeline for one job to a terminal state. It must
// never return before the job record is terminal (or the job was deleted).
type RunFunc func(ctx context.Context, job *Job)

// Dispatcher accepts submissions: it allocates job identity and storage,
// persists the source media, and launches the pipeline in its own goroutine.
// Submission never waits on pipeline work.
type Dispatcher struct {
	store *Store
	run   RunFunc

	// sem bounds concurrently running pipelines when non-nil. Acquisition
	// happens inside the spawned goroutine so a full pool delays execution,
	// not submission.
	sem *semaphore.Weighted
}

func NewDispatcher(store *Store, run RunFunc, maxConcurrent int) *Dispatcher {
	d := &Dispatcher{
		store: store,
		run:   run,
	}
	if maxConcurrent > 0 {
		d.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return d
}

// Submit persists the media and job record, spawns the executor, and
// returns the queued job. The returned snapshot is the caller's copy; the
// executor works from its own.
func (d *Dispatcher) Submit(media io.Reader, uploadName string, opts Options) (*Job, error) {
	now := time.Now().UTC()
	id := uuid.New().String()

	job := &Job{
		ID:        id,
		Filename:  id + file.SafeExt(uploadName, ".mp4"),
		Status:    StatusQueued,
		Progress:  ProgressQueued,
		Options:   opts,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := d.store.Create(job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if err := d.store.SaveSource(id, job.Filename, media); err != nil {
		// Submission failed before the caller got an id; leave nothing behind.
		if derr := d.store.Delete(id); derr != nil {
			log.Error("Failed to clean up namespace for aborted submission %s: %v", id, derr)
		}
		return nil, err
	}

	log.Info("Job %s submitted (file=%s language=%s burn_in=%t)",
		id, job.Filename, opts.Language, opts.BurnIn)

	snapshot := cloneJob(job)
	go d.launch(job)
	return snapshot, nil
}

// Delete removes a job's record and namespace. A still-running executor
// for the job notices on its next record write and stops.
func (d *Dispatcher) Delete(id string) error {
	if err := d.store.Delete(id); err != nil {
		return err
	}
	log.Info("Job %s deleted", id)
	return nil
}

func (d *Dispatcher) launch(job *Job) {
	ctx := context.Background()
	if d.sem != nil {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			log.Error("Job %s never started: %v", job.ID, err)
			return
		}
		defer d.sem.Release(1)
	}
	d.run(ctx, job)
}
