package history

import (
	"context"
	"time"
)

// Run is one invocation of the pipeline.
type Run struct {
	ID         string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Converted  int
	Failed     int
	Outcome    string
}

// Conversion is one image that was converted, archived and logged.
type Conversion struct {
	ID          int64
	RunID       string
	SourceName  string
	OutputName  string
	ArchivePath string
	LiveURL     string
	TestURL     string
	BytesBefore int64
	BytesAfter  int64
	ConvertedAt time.Time
}

// Recorder receives ledger events from the pipeline.
type Recorder interface {
	StartRun(ctx context.Context, run Run) error
	RecordConversion(ctx context.Context, conv Conversion) error
	FinishRun(ctx context.Context, run Run) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) StartRun(context.Context, Run) error               { return nil }
func (NopRecorder) RecordConversion(context.Context, Conversion) error { return nil }
func (NopRecorder) FinishRun(context.Context, Run) error              { return nil }
