package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"pixship/internal/config"
	"pixship/internal/discovery"
	"pixship/internal/dispatch"
	"pixship/internal/encoder"
	"pixship/internal/history"
	"pixship/internal/notifications"
	"pixship/internal/pipeline"
	"pixship/internal/testsupport"
	"pixship/internal/vcs"
)

var fixedNow = time.Date(2026, time.January, 14, 10, 0, 0, 0, time.Local)

type fakeConverter struct {
	calls []string
	fail  map[string]bool
}

func (f *fakeConverter) Convert(ctx context.Context, src, dst string) (encoder.Result, error) {
	f.calls = append(f.calls, filepath.Base(src))
	info, err := os.Stat(src)
	if err != nil {
		return encoder.Result{}, err
	}
	if err := os.WriteFile(dst, []byte("partial"), 0o644); err != nil {
		return encoder.Result{}, err
	}
	if f.fail[filepath.Base(src)] {
		return encoder.Result{}, errors.New("cwebp: exit status 255")
	}
	after := info.Size() / 4
	if err := os.WriteFile(dst, make([]byte, after), 0o644); err != nil {
		return encoder.Result{}, err
	}
	return encoder.Result{BytesBefore: info.Size(), BytesAfter: after}, nil
}

type fakePublisher struct {
	calls     []string
	message   string
	force     bool
	addErr    error
	commitErr error
	pushErr   error
}

func (f *fakePublisher) AddAll(context.Context) error {
	f.calls = append(f.calls, "add")
	return f.addErr
}

func (f *fakePublisher) HasStagedChanges(context.Context) (bool, error) {
	return true, nil
}

func (f *fakePublisher) Commit(_ context.Context, message string) error {
	f.calls = append(f.calls, "commit")
	f.message = message
	return f.commitErr
}

func (f *fakePublisher) Push(_ context.Context, force bool) error {
	f.calls = append(f.calls, "push")
	f.force = force
	return f.pushErr
}

type fakeSignaler struct {
	calls int
	err   error
}

func (f *fakeSignaler) Signal(context.Context) error {
	f.calls++
	return f.err
}

type fakeRecorder struct {
	started     []history.Run
	conversions []history.Conversion
	finished    []history.Run
}

func (f *fakeRecorder) StartRun(_ context.Context, run history.Run) error {
	f.started = append(f.started, run)
	return nil
}

func (f *fakeRecorder) RecordConversion(_ context.Context, conv history.Conversion) error {
	f.conversions = append(f.conversions, conv)
	return nil
}

func (f *fakeRecorder) FinishRun(_ context.Context, run history.Run) error {
	f.finished = append(f.finished, run)
	return nil
}

type fakeNotifier struct {
	completed []notifications.RunSummary
	warnings  []string
}

func (f *fakeNotifier) NotifyRunCompleted(_ context.Context, s notifications.RunSummary) error {
	f.completed = append(f.completed, s)
	return nil
}

func (f *fakeNotifier) NotifyWarning(_ context.Context, stage string, _ error) error {
	f.warnings = append(f.warnings, stage)
	return nil
}

func (f *fakeNotifier) TestNotification(context.Context) error { return nil }

type failingMover struct{}

func (failingMover) MkdirAll(string) error { return nil }

func (failingMover) Rename(string, string) error { return errors.New("invalid cross-device link") }

type harness struct {
	cfg       *config.Config
	converter *fakeConverter
	publisher *fakePublisher
	signaler  *fakeSignaler
	recorder  *fakeRecorder
	notifier  *fakeNotifier
	deps      pipeline.Dependencies
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	h := &harness{
		cfg:       testsupport.NewConfig(t, opts...),
		converter: &fakeConverter{fail: map[string]bool{}},
		publisher: &fakePublisher{},
		signaler:  &fakeSignaler{},
		recorder:  &fakeRecorder{},
		notifier:  &fakeNotifier{},
	}
	h.deps = pipeline.Dependencies{
		Converter: h.converter,
		Publisher: h.publisher,
		Signaler:  h.signaler,
		Recorder:  h.recorder,
		Notifier:  h.notifier,
		Clock:     func() time.Time { return fixedNow },
		NewRunID:  func() string { return "run-test" },
	}
	return h
}

func (h *harness) addImage(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(h.cfg.Paths.InputDir, name)
	testsupport.WriteFile(t, path, size)
	return path
}

func (h *harness) run(t *testing.T, ctx context.Context, opts pipeline.Options) *pipeline.Report {
	t.Helper()
	runner, err := pipeline.New(h.cfg, h.deps)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	report, err := runner.Run(ctx, opts)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return report
}

func (h *harness) archiveDir() string {
	return filepath.Join(h.cfg.Paths.ArchiveDir, "2026", "January", "14")
}

func TestRunNoImagesDoesNothing(t *testing.T) {
	h := newHarness(t)

	report := h.run(t, context.Background(), pipeline.Options{})

	if report.Outcome != pipeline.OutcomeNoImages {
		t.Fatalf("expected NoImages, got %s", report.Outcome)
	}
	if len(h.converter.calls) != 0 {
		t.Fatalf("converter must not run, got %v", h.converter.calls)
	}
	if len(h.publisher.calls) != 0 {
		t.Fatalf("publisher must not run, got %v", h.publisher.calls)
	}
	if files := testsupport.ListFiles(t, h.cfg.Paths.ArchiveDir); len(files) != 0 {
		t.Fatalf("archive must stay empty, got %v", files)
	}
	for _, p := range []string{h.cfg.LiveLogPath(), h.cfg.TestLogPath()} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("link log %s must not be created, err=%v", p, err)
		}
	}
	if len(h.recorder.started) != 0 || len(h.notifier.completed) != 0 {
		t.Fatal("no history or notification expected for an empty run")
	}
}

func TestRunConvertsArchivesLogsAndPublishes(t *testing.T) {
	h := newHarness(t)
	h.addImage(t, "My Photo #1.png", 4000)
	h.addImage(t, "b.jpg", 800)
	if err := os.WriteFile(h.cfg.LiveLogPath(), []byte("OLD"), 0o644); err != nil {
		t.Fatal(err)
	}

	report := h.run(t, context.Background(), pipeline.Options{})

	if report.Outcome != pipeline.OutcomeCommittedAndPushed {
		t.Fatalf("expected CommittedAndPushed, got %s (warnings %v)", report.Outcome, report.Warnings)
	}
	if report.Converted != 2 || report.Failed != 0 {
		t.Fatalf("unexpected counters: %+v", report)
	}

	wantOutputs := []string{"My-Photo-1.webp", "b.webp"}
	if got := testsupport.ListFiles(t, h.cfg.Paths.OutputDir); strings.Join(got, ",") != strings.Join(wantOutputs, ",") {
		t.Fatalf("unexpected outputs %v", got)
	}
	if got := testsupport.ListFiles(t, h.archiveDir()); strings.Join(got, ",") != "My Photo #1.png,b.jpg" {
		t.Fatalf("unexpected archive contents %v", got)
	}
	if got := testsupport.ListFiles(t, h.cfg.Paths.InputDir); len(got) != 0 {
		t.Fatalf("input dir should be empty, got %v", got)
	}

	live := testsupport.ReadFile(t, h.cfg.LiveLogPath())
	wantLive := "https://live.example.test/TMP_news/images/My-Photo-1.webp\n\nhttps://live.example.test/TMP_news/images/b.webp\n\nOLD"
	if live != wantLive {
		t.Fatalf("unexpected live log:\n%q\nwant\n%q", live, wantLive)
	}
	test := testsupport.ReadFile(t, h.cfg.TestLogPath())
	if !strings.HasPrefix(test, "https://test.example.test/TMP_news/images/My-Photo-1.webp\n\n") {
		t.Fatalf("unexpected test log %q", test)
	}

	if strings.Join(h.publisher.calls, ",") != "add,commit,push" {
		t.Fatalf("unexpected publish calls %v", h.publisher.calls)
	}
	if h.publisher.message != "Mobile Upload: 2 new images" {
		t.Fatalf("unexpected commit message %q", h.publisher.message)
	}
	if h.publisher.force {
		t.Fatal("plain mode must not force push")
	}
	if h.signaler.calls != 0 {
		t.Fatal("plain mode must not signal")
	}

	if len(h.recorder.conversions) != 2 || len(h.recorder.finished) != 1 {
		t.Fatalf("unexpected history: %+v", h.recorder)
	}
	if h.recorder.finished[0].Outcome != string(pipeline.OutcomeCommittedAndPushed) {
		t.Fatalf("unexpected recorded outcome %q", h.recorder.finished[0].Outcome)
	}
	if h.recorder.conversions[0].RunID != "run-test" {
		t.Fatalf("unexpected run id %q", h.recorder.conversions[0].RunID)
	}
	if len(h.notifier.completed) != 1 || h.notifier.completed[0].Converted != 2 {
		t.Fatalf("unexpected notifications %+v", h.notifier.completed)
	}
	if report.Files[0].Savings() != 75 {
		t.Fatalf("unexpected savings %v", report.Files[0].Savings())
	}
}

func TestRunFailureDoesNotStopLaterFiles(t *testing.T) {
	h := newHarness(t)
	h.addImage(t, "a.jpg", 100)
	failing := h.addImage(t, "b.jpg", 100)
	h.addImage(t, "c.jpg", 100)
	h.converter.fail["b.jpg"] = true

	report := h.run(t, context.Background(), pipeline.Options{})

	if strings.Join(h.converter.calls, ",") != "a.jpg,b.jpg,c.jpg" {
		t.Fatalf("expected every file attempted, got %v", h.converter.calls)
	}
	if report.Converted != 2 || report.Failed != 1 {
		t.Fatalf("unexpected counters converted=%d failed=%d", report.Converted, report.Failed)
	}
	if _, err := os.Stat(failing); err != nil {
		t.Fatalf("failed file must stay in input dir: %v", err)
	}
	if got := testsupport.ListFiles(t, h.cfg.Paths.OutputDir); strings.Join(got, ",") != "a.webp,c.webp" {
		t.Fatalf("partial output must be removed, got %v", got)
	}
	if got := testsupport.ListFiles(t, h.archiveDir()); strings.Join(got, ",") != "a.jpg,c.jpg" {
		t.Fatalf("unexpected archive contents %v", got)
	}
	live := testsupport.ReadFile(t, h.cfg.LiveLogPath())
	if strings.Contains(live, "/b.webp") || strings.Count(live, "https://") != 2 {
		t.Fatalf("unexpected live log %q", live)
	}
	if h.publisher.message != "Mobile Upload: 2 new images" {
		t.Fatalf("unexpected commit message %q", h.publisher.message)
	}
	if report.Files[1].Status != pipeline.FileFailed || report.Files[1].Err == nil {
		t.Fatalf("expected failure recorded for b.jpg, got %+v", report.Files[1])
	}
}

func TestRunKeepsPreExistingOutputOnFailure(t *testing.T) {
	h := newHarness(t)
	h.addImage(t, "a.jpg", 100)
	existing := filepath.Join(h.cfg.Paths.OutputDir, "a.webp")
	if err := os.WriteFile(existing, []byte("published earlier"), 0o644); err != nil {
		t.Fatal(err)
	}
	h.converter.fail["a.jpg"] = true

	h.run(t, context.Background(), pipeline.Options{})

	if _, err := os.Stat(existing); err != nil {
		t.Fatalf("pre-existing output must be kept: %v", err)
	}
}

func TestRunArchiveFailureRollsBackOutput(t *testing.T) {
	h := newHarness(t)
	src := h.addImage(t, "a.jpg", 100)
	h.deps.Mover = failingMover{}

	report := h.run(t, context.Background(), pipeline.Options{})

	if report.Failed != 1 || report.Converted != 0 {
		t.Fatalf("expected archive failure to fail the file, got %+v", report)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source must stay in place: %v", err)
	}
	if got := testsupport.ListFiles(t, h.cfg.Paths.OutputDir); len(got) != 0 {
		t.Fatalf("output must be rolled back, got %v", got)
	}
	if _, err := os.Stat(h.cfg.LiveLogPath()); !os.IsNotExist(err) {
		t.Fatalf("link log must not be written without links, err=%v", err)
	}
	if strings.Join(h.publisher.calls, ",") != "add,commit,push" {
		t.Fatalf("publish still runs after failures, got %v", h.publisher.calls)
	}
	if h.publisher.message != "Mobile Upload: 0 new images" {
		t.Fatalf("unexpected commit message %q", h.publisher.message)
	}
}

func TestRunEmptySanitizedNameFails(t *testing.T) {
	h := newHarness(t)
	h.addImage(t, "!!!.jpg", 10)

	report := h.run(t, context.Background(), pipeline.Options{})

	if report.Failed != 1 || len(h.converter.calls) != 0 {
		t.Fatalf("expected failure before conversion, got %+v calls=%v", report, h.converter.calls)
	}
}

func TestForcedModeMissingTokenSkipsSignal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := newHarness(t, testsupport.WithForcedSignal(""))
	h.cfg.Dispatch.APIBaseURL = srv.URL
	h.deps.Signaler = dispatch.New(h.cfg)
	h.addImage(t, "a.jpg", 100)

	report := h.run(t, context.Background(), pipeline.Options{})

	if report.Outcome != pipeline.OutcomePushedNoSignal {
		t.Fatalf("expected PushedNoSignal, got %s", report.Outcome)
	}
	if !h.publisher.force {
		t.Fatal("forced mode must force push")
	}
	if hits.Load() != 0 {
		t.Fatalf("no dispatch request expected without token, got %d", hits.Load())
	}
	if len(report.Warnings) == 0 {
		t.Fatal("expected a warning about the skipped signal")
	}
}

func TestForcedModeSignalsAfterPush(t *testing.T) {
	h := newHarness(t, testsupport.WithForcedSignal("secret"))
	h.addImage(t, "a.jpg", 100)

	report := h.run(t, context.Background(), pipeline.Options{})

	if report.Outcome != pipeline.OutcomePushedWithSignal {
		t.Fatalf("expected PushedWithSignal, got %s", report.Outcome)
	}
	if h.signaler.calls != 1 {
		t.Fatalf("expected one signal, got %d", h.signaler.calls)
	}
}

func TestForcedModeSignalFailureIsWarning(t *testing.T) {
	h := newHarness(t, testsupport.WithForcedSignal("secret"))
	h.signaler.err = errors.New("github returned 500")
	h.addImage(t, "a.jpg", 100)

	report := h.run(t, context.Background(), pipeline.Options{})

	if report.Outcome != pipeline.OutcomePushedNoSignal {
		t.Fatalf("expected PushedNoSignal, got %s", report.Outcome)
	}
	if len(h.notifier.warnings) != 1 {
		t.Fatalf("expected a warning notification, got %v", h.notifier.warnings)
	}
}

func TestPushFailureSkipsSignal(t *testing.T) {
	h := newHarness(t, testsupport.WithForcedSignal("secret"))
	h.publisher.pushErr = errors.New("remote rejected")
	h.addImage(t, "a.jpg", 100)

	report := h.run(t, context.Background(), pipeline.Options{})

	if report.Outcome != pipeline.OutcomePushFailed {
		t.Fatalf("expected PushFailed, got %s", report.Outcome)
	}
	if h.signaler.calls != 0 {
		t.Fatal("signal must only follow a successful push")
	}
	if report.Converted != 1 {
		t.Fatal("push failure must not undo conversions")
	}
}

func TestNothingToCommit(t *testing.T) {
	h := newHarness(t)
	h.publisher.commitErr = vcs.ErrNothingToCommit
	h.addImage(t, "a.jpg", 100)

	report := h.run(t, context.Background(), pipeline.Options{})

	if report.Outcome != pipeline.OutcomeNothingToCommit {
		t.Fatalf("expected NothingToCommit, got %s", report.Outcome)
	}
	if strings.Join(h.publisher.calls, ",") != "add,commit" {
		t.Fatalf("push must not run, got %v", h.publisher.calls)
	}
	if len(report.Warnings) != 0 {
		t.Fatalf("nothing to commit is benign, got warnings %v", report.Warnings)
	}
}

func TestCommitFailure(t *testing.T) {
	h := newHarness(t)
	h.publisher.commitErr = errors.New("author identity unknown")
	h.addImage(t, "a.jpg", 100)

	report := h.run(t, context.Background(), pipeline.Options{})

	if report.Outcome != pipeline.OutcomeCommitFailed {
		t.Fatalf("expected CommitFailed, got %s", report.Outcome)
	}
	if strings.Join(h.publisher.calls, ",") != "add,commit" {
		t.Fatalf("push must not run, got %v", h.publisher.calls)
	}
}

func TestAddFailure(t *testing.T) {
	h := newHarness(t)
	h.publisher.addErr = errors.New("index.lock exists")
	h.addImage(t, "a.jpg", 100)

	report := h.run(t, context.Background(), pipeline.Options{})

	if report.Outcome != pipeline.OutcomeCommitFailed {
		t.Fatalf("expected CommitFailed, got %s", report.Outcome)
	}
}

func TestSkipPublish(t *testing.T) {
	h := newHarness(t)
	h.addImage(t, "a.jpg", 100)

	report := h.run(t, context.Background(), pipeline.Options{SkipPublish: true})

	if report.Outcome != pipeline.OutcomePublishSkipped {
		t.Fatalf("expected PublishSkipped, got %s", report.Outcome)
	}
	if len(h.publisher.calls) != 0 {
		t.Fatalf("publisher must not run, got %v", h.publisher.calls)
	}
	if _, err := os.Stat(h.cfg.LiveLogPath()); err != nil {
		t.Fatalf("link log still written: %v", err)
	}
}

func TestCancelledRunLeavesImages(t *testing.T) {
	h := newHarness(t)
	src := h.addImage(t, "a.jpg", 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := h.run(t, ctx, pipeline.Options{})

	if report.Outcome != pipeline.OutcomeInterrupted {
		t.Fatalf("expected Interrupted, got %s", report.Outcome)
	}
	if len(h.converter.calls) != 0 || len(h.publisher.calls) != 0 {
		t.Fatal("nothing should run after cancellation")
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("image must stay in input dir: %v", err)
	}
	if len(h.recorder.finished) != 1 {
		t.Fatal("interrupted run is still recorded")
	}
}

func TestRunDiscoveryErrorIsSetupError(t *testing.T) {
	h := newHarness(t)
	h.deps.Finder = func(string, []string) ([]discovery.Image, error) {
		return nil, errors.New("permission denied")
	}
	runner, err := pipeline.New(h.cfg, h.deps)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	if _, err := runner.Run(context.Background(), pipeline.Options{}); err == nil {
		t.Fatal("expected discovery error")
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	cfg := config.Default()
	if _, err := pipeline.New(&cfg, pipeline.Dependencies{Publisher: &fakePublisher{}}); err == nil {
		t.Fatal("expected error without converter")
	}
	if _, err := pipeline.New(&cfg, pipeline.Dependencies{Converter: &fakeConverter{}}); err == nil {
		t.Fatal("expected error without publisher")
	}
	if _, err := pipeline.New(nil, pipeline.Dependencies{}); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRunRecordsIntoHistoryStore(t *testing.T) {
	h := newHarness(t)
	store := testsupport.MustOpenHistory(t, h.cfg)
	h.deps.Recorder = store
	h.addImage(t, "a.jpg", 400)

	h.run(t, context.Background(), pipeline.Options{SkipPublish: true})

	convs, err := store.RecentConversions(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentConversions: %v", err)
	}
	if len(convs) != 1 || convs[0].SourceName != "a.jpg" || convs[0].OutputName != "a.webp" {
		t.Fatalf("unexpected conversions %+v", convs)
	}
	runs, err := store.RecentRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Outcome != string(pipeline.OutcomePublishSkipped) || runs[0].Converted != 1 {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if !strings.HasPrefix(store.Path(), testsupport.BaseDir(h.cfg)) {
		t.Fatalf("history db %q outside test dir", store.Path())
	}
}
