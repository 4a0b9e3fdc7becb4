package preflight

import (
	"pixship/internal/config"
	"pixship/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// Options narrows which checks apply to a run.
type Options struct {
	// SkipPublish drops the git and dispatch checks.
	SkipPublish bool
}

// Report groups binary and filesystem checks.
type Report struct {
	Binaries []deps.Status
	Checks   []Result
}

// Blocking returns a one-line description of every required check that failed.
func (r Report) Blocking() []string {
	var out []string
	for _, s := range deps.MissingRequired(r.Binaries) {
		out = append(out, s.Name+": "+s.Detail)
	}
	for _, c := range r.Checks {
		if !c.Passed && !c.Optional {
			out = append(out, c.Name+": "+c.Detail)
		}
	}
	return out
}

// OK reports whether no required check failed.
func (r Report) OK() bool {
	return len(r.Blocking()) == 0
}

// RunAll executes all applicable preflight checks for cfg.
func RunAll(cfg *config.Config, opts Options) Report {
	if cfg == nil {
		return Report{}
	}

	report := Report{Binaries: CheckSystemDeps(cfg, opts)}

	report.Checks = append(report.Checks, CheckDirectoryAccess("Repository directory", cfg.Paths.RepoDir))
	report.Checks = append(report.Checks, CheckInputDirectory(cfg.Paths.InputDir))
	report.Checks = append(report.Checks,
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Archive directory", cfg.Paths.ArchiveDir),
		CheckDirectoryAccess("URL log directory", cfg.Paths.URLLogDir),
	)

	if !opts.SkipPublish {
		report.Checks = append(report.Checks, CheckGitRepository(cfg.Paths.RepoDir))
		if cfg.SignalEnabled() {
			report.Checks = append(report.Checks, CheckDispatchToken(cfg.Dispatch.Token))
		}
	}
	return report
}

// CheckSystemDeps evaluates the external programs a run needs.
func CheckSystemDeps(cfg *config.Config, opts Options) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "cwebp",
			Command:     cfg.Encoder.Binary,
			Description: "Required for WebP conversion",
		},
	}
	if !opts.SkipPublish {
		requirements = append(requirements, deps.Requirement{
			Name:        "git",
			Command:     "git",
			Description: "Required for publishing",
		})
	}
	return deps.CheckBinaries(requirements)
}
