package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSite()
	c.normalizeEncoder()
	c.normalizeLinks()
	c.normalizePublish()
	c.normalizeDispatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RepoDir) == "" {
		c.Paths.RepoDir = defaultRepoDir
	}
	if c.Paths.RepoDir, err = expandPath(c.Paths.RepoDir); err != nil {
		return fmt.Errorf("paths.repo_dir: %w", err)
	}
	repo := c.Paths.RepoDir

	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.input_dir", &c.Paths.InputDir, defaultInputDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.archive_dir", &c.Paths.ArchiveDir, defaultArchiveDir},
		{"paths.url_log_dir", &c.Paths.URLLogDir, defaultURLLogDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		if *field.value, err = expandRelative(repo, *field.value); err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
	}
	return nil
}

func (c *Config) normalizeSite() {
	c.Site.BaseURL = strings.TrimRight(strings.TrimSpace(c.Site.BaseURL), "/")
	c.Site.TestBaseURL = strings.TrimRight(strings.TrimSpace(c.Site.TestBaseURL), "/")
	c.Site.PathPrefix = strings.Trim(strings.TrimSpace(c.Site.PathPrefix), "/")
}

func (c *Config) normalizeEncoder() {
	c.Encoder.Binary = strings.TrimSpace(c.Encoder.Binary)
	if c.Encoder.Binary == "" {
		c.Encoder.Binary = defaultEncoderBinary
	}
	c.Encoder.OutputExtension = normalizeExtension(c.Encoder.OutputExtension)
	if c.Encoder.OutputExtension == "" {
		c.Encoder.OutputExtension = defaultOutputExtension
	}
	if len(c.Encoder.Extensions) == 0 {
		c.Encoder.Extensions = append([]string(nil), defaultExtensions...)
		return
	}
	exts := make([]string, 0, len(c.Encoder.Extensions))
	seen := make(map[string]struct{}, len(c.Encoder.Extensions))
	for _, ext := range c.Encoder.Extensions {
		normalized := normalizeExtension(ext)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append([]string(nil), defaultExtensions...)
	}
	c.Encoder.Extensions = exts
}

func (c *Config) normalizeLinks() {
	c.Links.LiveFile = strings.TrimSpace(c.Links.LiveFile)
	if c.Links.LiveFile == "" {
		c.Links.LiveFile = defaultLiveLogFile
	}
	c.Links.TestFile = strings.TrimSpace(c.Links.TestFile)
	if c.Links.TestFile == "" {
		c.Links.TestFile = defaultTestLogFile
	}
}

func (c *Config) normalizePublish() {
	c.Publish.Mode = normalizeMode(c.Publish.Mode)
	c.Publish.Remote = strings.TrimSpace(c.Publish.Remote)
	if c.Publish.Remote == "" {
		c.Publish.Remote = defaultRemote
	}
	c.Publish.Branch = strings.TrimSpace(c.Publish.Branch)
	if c.Publish.Branch == "" {
		c.Publish.Branch = defaultBranch
	}
	if strings.TrimSpace(c.Publish.CommitMessage) == "" {
		c.Publish.CommitMessage = defaultCommitMessage
	}
}

func (c *Config) normalizeDispatch() {
	c.Dispatch.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Dispatch.APIBaseURL), "/")
	if c.Dispatch.APIBaseURL == "" {
		c.Dispatch.APIBaseURL = defaultDispatchAPIBaseURL
	}
	c.Dispatch.Owner = strings.TrimSpace(c.Dispatch.Owner)
	c.Dispatch.Repo = strings.TrimSpace(c.Dispatch.Repo)
	c.Dispatch.Workflow = strings.TrimSpace(c.Dispatch.Workflow)
	if c.Dispatch.Workflow == "" {
		c.Dispatch.Workflow = defaultDispatchWorkflow
	}
	c.Dispatch.Ref = strings.TrimSpace(c.Dispatch.Ref)
	c.Dispatch.APIVersion = strings.TrimSpace(c.Dispatch.APIVersion)
	if c.Dispatch.APIVersion == "" {
		c.Dispatch.APIVersion = defaultDispatchAPIVersion
	}
	if c.Dispatch.TimeoutSeconds <= 0 {
		c.Dispatch.TimeoutSeconds = defaultDispatchTimeout
	}
	c.Dispatch.Token = strings.TrimSpace(c.Dispatch.Token)
	if c.Dispatch.Token == "" {
		for _, key := range []string{"PIXSHIP_DISPATCH_TOKEN", "GITHUB_TOKEN"} {
			if value := strings.TrimSpace(os.Getenv(key)); value != "" {
				c.Dispatch.Token = value
				break
			}
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeMode(mode string) string {
	mode = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(mode)), "-", "_")
	if mode == "" {
		return defaultPublishMode
	}
	return mode
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
