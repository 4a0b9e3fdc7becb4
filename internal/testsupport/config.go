package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"pixship/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose repository checkout and state directory
// live in a fresh temp directory. Output, archive and URL log directories are
// created; the input directory is not.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	repo := filepath.Join(base, "repo")
	cfgVal := config.Default()
	cfgVal.Paths.RepoDir = repo
	cfgVal.Paths.InputDir = filepath.Join(repo, "raw_images")
	cfgVal.Paths.OutputDir = filepath.Join(repo, "Public", "TMP_news", "images")
	cfgVal.Paths.ArchiveDir = filepath.Join(repo, "already_optimize_image")
	cfgVal.Paths.URLLogDir = filepath.Join(repo, "optimized_image_url")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Site.BaseURL = "https://live.example.test"
	cfgVal.Site.TestBaseURL = "https://test.example.test"
	cfgVal.Dispatch.Token = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithForcedSignal switches the config to forced_with_signal mode targeting
// octo/site and uses token for the dispatch credential.
func WithForcedSignal(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.Mode = config.ModeForcedWithSignal
		b.cfg.Dispatch.Owner = "octo"
		b.cfg.Dispatch.Repo = "site"
		b.cfg.Dispatch.Token = token
	}
}

// WithGitDir creates an empty .git directory in the repository checkout.
func WithGitDir() ConfigOption {
	return func(b *configBuilder) {
		if err := os.MkdirAll(filepath.Join(b.cfg.Paths.RepoDir, ".git"), 0o755); err != nil {
			b.t.Fatalf("mkdir .git: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, cwebp and git are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"cwebp", "git"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
