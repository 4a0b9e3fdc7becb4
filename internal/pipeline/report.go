package pipeline

import (
	"time"
)

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomeNoImages           Outcome = "NoImages"
	OutcomeCommittedAndPushed Outcome = "CommittedAndPushed"
	OutcomePushedNoSignal     Outcome = "PushedNoSignal"
	OutcomePushedWithSignal   Outcome = "PushedWithSignal"
	OutcomeNothingToCommit    Outcome = "NothingToCommit"
	OutcomePushFailed         Outcome = "PushFailed"
	OutcomeCommitFailed       Outcome = "CommitFailed"
	OutcomePublishSkipped     Outcome = "PublishSkipped"
	OutcomeInterrupted        Outcome = "Interrupted"
)

// FileStatus is the per-image result.
type FileStatus string

const (
	FileConverted FileStatus = "converted"
	FileFailed    FileStatus = "failed"
)

// FileResult describes what happened to one source image.
type FileResult struct {
	Source      string
	Name        string
	Output      string
	ArchivePath string
	LiveURL     string
	TestURL     string
	BytesBefore int64
	BytesAfter  int64
	Status      FileStatus
	Err         error
}

// Savings returns the size reduction in percent.
func (f FileResult) Savings() float64 {
	if f.BytesBefore <= 0 {
		return 0
	}
	return float64(f.BytesBefore-f.BytesAfter) / float64(f.BytesBefore) * 100
}

// Report summarizes a run.
type Report struct {
	RunID      string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Files      []FileResult
	Converted  int
	Failed     int
	Outcome    Outcome
	Warnings   []string
}

// LiveURLs returns the live URLs of converted files in processing order.
func (r *Report) LiveURLs() []string {
	return r.urls(func(f FileResult) string { return f.LiveURL })
}

// TestURLs returns the test URLs of converted files in processing order.
func (r *Report) TestURLs() []string {
	return r.urls(func(f FileResult) string { return f.TestURL })
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) urls(pick func(FileResult) string) []string {
	var out []string
	for _, f := range r.Files {
		if f.Status == FileConverted {
			out = append(out, pick(f))
		}
	}
	return out
}

func (r *Report) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
