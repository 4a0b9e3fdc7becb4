package services

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, dir, binary string, args ...string) ([]byte, error)
}

// CommandExecutor runs commands with os/exec and returns combined output.
type CommandExecutor struct{}

// Run blocks until the command exits. A non-zero exit is returned as an
// error wrapping *exec.ExitError so callers can inspect the exit code.
func (CommandExecutor) Run(ctx context.Context, dir, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if dir != "" {
		cmd.Dir = dir
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return output, fmt.Errorf("%s %s: %w", binary, firstArg(args), ctx.Err())
		}
		return output, fmt.Errorf("%s %s: %w", binary, firstArg(args), err)
	}
	return output, nil
}

// ExitCode reports the exit status carried by err, if any.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// TrimOutput keeps at most the last 512 bytes of command output for error
// messages, never cutting a UTF-8 sequence in half.
func TrimOutput(output []byte) string {
	const limit = 512
	text := strings.TrimSpace(string(output))
	if len(text) <= limit {
		return text
	}
	start := len(text) - limit
	for start < len(text) && !utf8.RuneStart(text[start]) {
		start++
	}
	return text[start:]
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
