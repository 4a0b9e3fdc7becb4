package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Publish modes.
const (
	ModePlain            = "plain"
	ModeForcedWithSignal = "forced_with_signal"
)

// Paths contains the working directories of a run. Relative values are
// resolved against RepoDir.
type Paths struct {
	RepoDir    string `toml:"repo_dir"`
	InputDir   string `toml:"input_dir"`
	OutputDir  string `toml:"output_dir"`
	ArchiveDir string `toml:"archive_dir"`
	URLLogDir  string `toml:"url_log_dir"`
	StateDir   string `toml:"state_dir"`
}

// Site describes where converted images are served from.
type Site struct {
	BaseURL     string `toml:"base_url"`
	TestBaseURL string `toml:"test_base_url"`
	PathPrefix  string `toml:"path_prefix"`
}

// Encoder contains the cwebp invocation parameters.
type Encoder struct {
	Binary          string   `toml:"binary"`
	Quality         int      `toml:"quality"`
	Method          int      `toml:"method"`
	MaxWidth        int      `toml:"max_width"`
	Extensions      []string `toml:"extensions"`
	OutputExtension string   `toml:"output_extension"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
}

// Naming controls how output file names are derived.
type Naming struct {
	Transliterate bool `toml:"transliterate"`
}

// Links names the two URL log files inside Paths.URLLogDir.
type Links struct {
	LiveFile string `toml:"live_file"`
	TestFile string `toml:"test_file"`
}

// Publish contains git publishing settings.
type Publish struct {
	Mode          string `toml:"mode"`
	Remote        string `toml:"remote"`
	Branch        string `toml:"branch"`
	CommitMessage string `toml:"commit_message"`
}

// Dispatch contains the GitHub workflow dispatch target used in
// forced_with_signal mode.
type Dispatch struct {
	APIBaseURL     string `toml:"api_base_url"`
	Owner          string `toml:"owner"`
	Repo           string `toml:"repo"`
	Workflow       string `toml:"workflow"`
	Ref            string `toml:"ref"`
	Token          string `toml:"token"`
	APIVersion     string `toml:"api_version"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// History toggles the sqlite conversion ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for pixship.
//
// Configuration sections by subsystem:
//   - Paths: repository, input, output, archive, link log and state directories
//   - Site: public base URLs for live and test links
//   - Encoder: cwebp binary and quality/effort/width parameters
//   - Naming: output name derivation
//   - Links: link log file names
//   - Publish: git remote, branch, commit message and publish mode
//   - Dispatch: GitHub workflow dispatch signal
//   - Notifications: ntfy push notification settings
//   - History: sqlite ledger of runs and conversions
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Site          Site          `toml:"site"`
	Encoder       Encoder       `toml:"encoder"`
	Naming        Naming        `toml:"naming"`
	Links         Links         `toml:"links"`
	Publish       Publish       `toml:"publish"`
	Dispatch      Dispatch      `toml:"dispatch"`
	Notifications Notifications `toml:"notifications"`
	History       History       `toml:"history"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pixship/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pixship.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into. The input
// directory is left alone: a missing input directory simply means there is
// nothing to convert.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.ArchiveDir, c.Paths.URLLogDir, c.Paths.StateDir, c.LogDir()} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LiveLogPath is the link log receiving live URLs.
func (c *Config) LiveLogPath() string {
	return filepath.Join(c.Paths.URLLogDir, c.Links.LiveFile)
}

// TestLogPath is the link log receiving test URLs.
func (c *Config) TestLogPath() string {
	return filepath.Join(c.Paths.URLLogDir, c.Links.TestFile)
}

// LogDir holds pixship's own log file.
func (c *Config) LogDir() string {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.StateDir, "logs")
}

// LockPath is the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "pixship.lock")
}

// HistoryDBPath is the sqlite ledger location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// EncoderTimeout returns the per-file encoder bound; zero means unbounded.
func (c *Config) EncoderTimeout() time.Duration {
	if c.Encoder.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Encoder.TimeoutSeconds) * time.Second
}

// TestBaseURL returns the base URL used for test links, falling back to the
// live base URL when no separate test domain is configured.
func (c *Config) TestBaseURL() string {
	if strings.TrimSpace(c.Site.TestBaseURL) != "" {
		return c.Site.TestBaseURL
	}
	return c.Site.BaseURL
}

// CommitMessage renders the commit message for a run that converted count files.
func (c *Config) CommitMessage(count int) string {
	return strings.ReplaceAll(c.Publish.CommitMessage, "{count}", fmt.Sprintf("%d", count))
}

// DispatchRef is the git ref the dispatch signal names.
func (c *Config) DispatchRef() string {
	if strings.TrimSpace(c.Dispatch.Ref) != "" {
		return c.Dispatch.Ref
	}
	return c.Publish.Branch
}

// SignalEnabled reports whether a successful push is followed by a dispatch signal.
func (c *Config) SignalEnabled() bool {
	return c.Publish.Mode == ModeForcedWithSignal
}

// OverrideMode replaces the publish mode, typically from a command-line flag,
// and revalidates the configuration.
func (c *Config) OverrideMode(mode string) error {
	c.Publish.Mode = normalizeMode(mode)
	return c.Validate()
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// expandRelative resolves pathValue against base unless it is already
// absolute or home-relative.
func expandRelative(base, pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" || strings.HasPrefix(pathValue, "~") || filepath.IsAbs(pathValue) {
		return expandPath(pathValue)
	}
	return expandPath(filepath.Join(base, pathValue))
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
