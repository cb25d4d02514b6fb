package jobs

import "time"

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition may leave the status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress checkpoints reported at stage boundaries. These are fixed
// markers, not proportional estimates; they only ever increase.
const (
	ProgressQueued      = 0
	ProgressStarted     = 5
	ProgressExtracted   = 30
	ProgressTranscribed = 70
	ProgressDone        = 100
)

// Options are the caller-selected pipeline knobs, persisted with the job so
// a restarted process can still explain what a stuck job was doing.
type Options struct {
	Language string `json:"language"`
	BurnIn   bool   `json:"burn_in"`
}

// AutoLanguage requests language auto-detection from the transcriber.
const AutoLanguage = "auto"

// Job is one submitted transcription request. The whole record is replaced
// on every write; there are no partial updates.
type Job struct {
	ID               string    `json:"job_id"`
	Filename         string    `json:"filename"`
	Status           Status    `json:"status"`
	Progress         int       `json:"progress"`
	Error            string    `json:"error,omitempty"`
	DetectedLanguage string    `json:"detected_language,omitempty"`
	Options          Options   `json:"options"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func cloneJob(job *Job) *Job {
	if job == nil {
		return nil
	}
	tmp := *job
	return &tmp
}
