package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"pixship/internal/archive"
	"pixship/internal/config"
	"pixship/internal/discovery"
	"pixship/internal/dispatch"
	"pixship/internal/encoder"
	"pixship/internal/history"
	"pixship/internal/linklog"
	"pixship/internal/logging"
	"pixship/internal/naming"
	"pixship/internal/notifications"
	"pixship/internal/services"
	"pixship/internal/vcs"
)

// FinderFunc lists candidate images below root.
type FinderFunc func(root string, exts []string) ([]discovery.Image, error)

// OutputStore lets the runner undo a partially written output file.
type OutputStore interface {
	Exists(path string) bool
	Remove(path string) error
}

type osOutputs struct{}

func (osOutputs) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osOutputs) Remove(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Dependencies wires the collaborators of a run. Converter and Publisher are
// required; everything else falls back to the local filesystem or a no-op.
type Dependencies struct {
	Finder    FinderFunc
	Converter encoder.Converter
	Mover     archive.FileMover
	Logs      linklog.LogStore
	Outputs   OutputStore
	Publisher vcs.Publisher
	Signaler  dispatch.Signaler
	Recorder  history.Recorder
	Notifier  notifications.Service
	Clock     func() time.Time
	NewRunID  func() string
	Logger    *slog.Logger
}

// Options tune a single run.
type Options struct {
	// SkipPublish stops after the link logs are written.
	SkipPublish bool
}

// Runner executes the upload pipeline for one configuration.
type Runner struct {
	cfg      *config.Config
	deps     Dependencies
	namer    naming.Namer
	live     naming.URLBuilder
	test     naming.URLBuilder
	archiver *archive.Archiver
	logger   *slog.Logger
}

// New validates the dependencies and returns a Runner.
func New(cfg *config.Config, deps Dependencies) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config required")
	}
	if deps.Converter == nil {
		return nil, errors.New("pipeline: converter required")
	}
	if deps.Publisher == nil {
		return nil, errors.New("pipeline: publisher required")
	}
	if deps.Finder == nil {
		deps.Finder = discovery.Find
	}
	if deps.Mover == nil {
		deps.Mover = archive.OSMover{}
	}
	if deps.Logs == nil {
		deps.Logs = linklog.FileStore{}
	}
	if deps.Outputs == nil {
		deps.Outputs = osOutputs{}
	}
	if deps.Recorder == nil {
		deps.Recorder = history.NopRecorder{}
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewRunID == nil {
		deps.NewRunID = func() string { return uuid.NewString() }
	}

	ext := cfg.Encoder.OutputExtension
	return &Runner{
		cfg:      cfg,
		deps:     deps,
		namer:    naming.Namer{Transliterate: cfg.Naming.Transliterate},
		live:     naming.URLBuilder{BaseURL: cfg.Site.BaseURL, PathPrefix: cfg.Site.PathPrefix, Extension: ext},
		test:     naming.URLBuilder{BaseURL: cfg.TestBaseURL(), PathPrefix: cfg.Site.PathPrefix, Extension: ext},
		archiver: archive.New(cfg.Paths.ArchiveDir, deps.Mover),
		logger:   logging.NewComponentLogger(deps.Logger, "pipeline"),
	}, nil
}

// Run performs one upload. The returned error is reserved for setup
// failures; per-file and publish problems are reported in the Report.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{
		RunID:     r.deps.NewRunID(),
		Mode:      r.cfg.Publish.Mode,
		StartedAt: r.deps.Clock(),
	}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, r.logger)

	images, err := r.deps.Finder(r.cfg.Paths.InputDir, r.cfg.Encoder.Extensions)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "discover", "scan input", r.cfg.Paths.InputDir, err)
	}
	if len(images) == 0 {
		report.Outcome = OutcomeNoImages
		report.FinishedAt = r.deps.Clock()
		logger.Info("no images found", logging.String("input_dir", r.cfg.Paths.InputDir))
		return report, nil
	}

	r.record(logger, "start run", func() error {
		return r.deps.Recorder.StartRun(ctx, history.Run{ID: report.RunID, Mode: report.Mode, StartedAt: report.StartedAt})
	})

	logger.Info("starting upload",
		logging.Int("images", len(images)),
		logging.String("mode", report.Mode),
	)

	interrupted := false
	for i, img := range images {
		if ctx.Err() != nil {
			interrupted = true
			logging.WarnWithContext(logger, "run interrupted", "run_interrupted",
				logging.Int("remaining", len(images)-i),
				logging.String(logging.FieldImpact, "remaining images stay in the input directory"),
			)
			break
		}
		result := r.processFile(ctx, report.RunID, img)
		report.Files = append(report.Files, result)
		if result.Status == FileConverted {
			report.Converted++
		} else {
			report.Failed++
		}
	}

	r.writeLinkLogs(logger, report)

	switch {
	case interrupted:
		report.Outcome = OutcomeInterrupted
	case opts.SkipPublish:
		report.Outcome = OutcomePublishSkipped
		logger.Info("publish skipped")
	default:
		report.Outcome = r.publish(ctx, logger, report)
	}

	r.finish(ctx, logger, report)
	return report, nil
}

func (r *Runner) processFile(ctx context.Context, runID string, img discovery.Image) FileResult {
	ctx = services.WithFile(ctx, img.FileName())
	logger := logging.WithContext(ctx, r.logger)

	result := FileResult{
		Source:      img.Path,
		Name:        r.namer.Name(img.Name),
		BytesBefore: img.Size,
		Status:      FileFailed,
	}
	if result.Name == "" {
		result.Err = services.Wrap(services.ErrValidation, "convert", "sanitize", "name is empty after sanitizing", nil)
		r.logFailure(logger, result)
		return result
	}
	result.Output = filepath.Join(r.cfg.Paths.OutputDir, result.Name+"."+r.cfg.Encoder.OutputExtension)
	preExisting := r.deps.Outputs.Exists(result.Output)

	converted, err := r.deps.Converter.Convert(services.WithStage(ctx, "convert"), img.Path, result.Output)
	if err != nil {
		result.Err = err
		r.rollback(logger, result.Output, preExisting)
		r.logFailure(logger, result)
		return result
	}
	result.BytesBefore = converted.BytesBefore
	result.BytesAfter = converted.BytesAfter

	archived, err := r.archiver.Archive(img.Path, r.deps.Clock())
	if err != nil {
		result.Err = services.Wrap(services.ErrTransient, "archive", "move original", "", err)
		r.rollback(logger, result.Output, preExisting)
		r.logFailure(logger, result)
		return result
	}

	result.ArchivePath = archived
	result.LiveURL = r.live.Build(result.Name)
	result.TestURL = r.test.Build(result.Name)
	result.Status = FileConverted

	logger.Info("converted",
		logging.String("output", filepath.Base(result.Output)),
		logging.String("before", humanize.Bytes(uint64(max(result.BytesBefore, 0)))),
		logging.String("after", humanize.Bytes(uint64(max(result.BytesAfter, 0)))),
		logging.String("saved", fmt.Sprintf("%.2f%%", result.Savings())),
	)

	r.record(logger, "record conversion", func() error {
		return r.deps.Recorder.RecordConversion(ctx, history.Conversion{
			RunID:       runID,
			SourceName:  img.FileName(),
			OutputName:  filepath.Base(result.Output),
			ArchivePath: archived,
			LiveURL:     result.LiveURL,
			TestURL:     result.TestURL,
			BytesBefore: result.BytesBefore,
			BytesAfter:  result.BytesAfter,
			ConvertedAt: r.deps.Clock(),
		})
	})
	return result
}

func (r *Runner) rollback(logger *slog.Logger, output string, preExisting bool) {
	if preExisting {
		return
	}
	if err := r.deps.Outputs.Remove(output); err != nil {
		logging.WarnWithContext(logger, "failed to remove partial output", "output_cleanup_failed",
			logging.String("output", output),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the file by hand before the next run"),
			logging.String(logging.FieldImpact, "an unlogged image may be published"),
		)
	}
}

func (r *Runner) logFailure(logger *slog.Logger, result FileResult) {
	logging.WarnWithContext(logger, "Failed to convert", "file_failed",
		logging.String("source", result.Source),
		logging.Error(result.Err),
		logging.String(logging.FieldImpact, "file left in input directory"),
	)
}

func (r *Runner) writeLinkLogs(logger *slog.Logger, report *Report) {
	live := report.LiveURLs()
	if len(live) == 0 {
		return
	}
	sinks := []struct {
		path  string
		links []string
	}{
		{path: r.cfg.LiveLogPath(), links: live},
		{path: r.cfg.TestLogPath(), links: report.TestURLs()},
	}
	for _, sink := range sinks {
		if err := linklog.Prepend(r.deps.Logs, sink.path, sink.links); err != nil {
			report.warn(err.Error())
			logging.WarnWithContext(logger, "failed to update link log", "link_log_failed",
				logging.String("path", sink.path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "URLs for this run are missing from the log"),
			)
			continue
		}
		logger.Info("link log updated", logging.String("path", sink.path), logging.Int("links", len(sink.links)))
	}
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, report *Report) {
	report.FinishedAt = r.deps.Clock()
	ctx = context.WithoutCancel(ctx)

	r.record(logger, "finish run", func() error {
		return r.deps.Recorder.FinishRun(ctx, history.Run{
			ID:         report.RunID,
			Mode:       report.Mode,
			StartedAt:  report.StartedAt,
			FinishedAt: report.FinishedAt,
			Converted:  report.Converted,
			Failed:     report.Failed,
			Outcome:    string(report.Outcome),
		})
	})

	if err := r.deps.Notifier.NotifyRunCompleted(ctx, notifications.RunSummary{
		Converted: report.Converted,
		Failed:    report.Failed,
		Outcome:   string(report.Outcome),
		Duration:  report.Duration(),
	}); err != nil {
		logger.Debug("run notification failed", logging.Error(err))
	}

	logger.Info("upload finished",
		logging.Int("converted", report.Converted),
		logging.Int("failed", report.Failed),
		logging.String("outcome", string(report.Outcome)),
		logging.Duration("duration", report.Duration()),
	)
}

func (r *Runner) record(logger *slog.Logger, what string, fn func() error) {
	if err := fn(); err != nil {
		logging.WarnWithContext(logger, "history "+what+" failed", "history_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run is missing from pixship history"),
		)
	}
}
