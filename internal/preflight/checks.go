package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckInputDirectory passes for a missing input directory, which simply
// means there is nothing to convert.
func CheckInputDirectory(path string) Result {
	const name = "Input directory"
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (absent, nothing to convert)", path)}
	}
	return CheckDirectoryAccess(name, path)
}

// CheckGitRepository looks for a git checkout containing dir, walking up
// through its parents. A missing checkout is only a warning: publishing
// fails later and is reported, while conversion still runs.
func CheckGitRepository(dir string) Result {
	const name = "Git repository"
	root, ok := findCheckoutRoot(dir)
	if !ok {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (not inside a git checkout; publishing will fail)", dir)}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: root}
}

// findCheckoutRoot returns the nearest directory at or above dir holding a
// .git entry. Worktrees and submodules use a .git file, so any entry counts.
func findCheckoutRoot(dir string) (string, bool) {
	current := filepath.Clean(dir)
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// CheckDispatchToken reports whether the deployment signal can be sent. A
// missing token never blocks a run; the signal is skipped instead.
func CheckDispatchToken(token string) Result {
	const name = "Dispatch token"
	if strings.TrimSpace(token) == "" {
		return Result{Name: name, Optional: true, Detail: "missing (deployment signal will be skipped)"}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: "configured"}
}
