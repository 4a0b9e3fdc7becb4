// Package vcs publishes the working tree through the git command line.
package vcs

import (
	"context"
	"errors"
	"strings"

	"pixship/internal/services"
)

// ErrNothingToCommit reports that staging produced no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// Publisher is the git surface the pipeline depends on.
type Publisher interface {
	AddAll(ctx context.Context) error
	HasStagedChanges(ctx context.Context) (bool, error)
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context, force bool) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithBinary overrides the git binary name.
func WithBinary(binary string) Option {
	return func(c *Client) {
		if b := strings.TrimSpace(binary); b != "" {
			c.binary = b
		}
	}
}

// Client runs git commands inside a repository directory.
type Client struct {
	binary string
	dir    string
	remote string
	branch string
	exec   services.Executor
}

// New constructs a git client for the repository at dir.
func New(dir, remote, branch string, opts ...Option) (*Client, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("repository directory required")
	}
	client := &Client{
		binary: "git",
		dir:    dir,
		remote: strings.TrimSpace(remote),
		branch: strings.TrimSpace(branch),
		exec:   services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// AddAll stages every change in the repository (git add .).
func (c *Client) AddAll(ctx context.Context) error {
	return c.run(ctx, "add", "add", ".")
}

// HasStagedChanges runs git diff --cached --quiet: exit 0 means the index
// matches HEAD, exit 1 means something is staged.
func (c *Client) HasStagedChanges(ctx context.Context) (bool, error) {
	output, err := c.exec.Run(ctx, c.dir, c.binary, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	if code, ok := services.ExitCode(err); ok && code == 1 {
		return true, nil
	}
	return false, services.Wrap(services.ErrExternalTool, "publish", "git diff", services.TrimOutput(output), err)
}

// Commit records the staged changes. It returns ErrNothingToCommit when the
// index is clean.
func (c *Client) Commit(ctx context.Context, message string) error {
	staged, err := c.HasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if !staged {
		return ErrNothingToCommit
	}
	return c.run(ctx, "commit", "commit", "-m", message)
}

// Push sends the configured branch to the configured remote.
func (c *Client) Push(ctx context.Context, force bool) error {
	args := []string{"push"}
	if force {
		args = append(args, "--force")
	}
	if c.remote != "" {
		args = append(args, c.remote)
		if c.branch != "" {
			args = append(args, c.branch)
		}
	}
	return c.run(ctx, "push", args...)
}

func (c *Client) run(ctx context.Context, operation string, args ...string) error {
	output, err := c.exec.Run(ctx, c.dir, c.binary, args...)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "publish", "git "+operation, services.TrimOutput(output), err)
	}
	return nil
}
