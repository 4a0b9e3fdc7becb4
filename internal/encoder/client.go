package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pixship/internal/config"
	"pixship/internal/services"
)

// Converter defines the behaviour required by the pipeline.
type Converter interface {
	Convert(ctx context.Context, src, dst string) (Result, error)
}

// Result reports the byte sizes around a conversion.
type Result struct {
	BytesBefore int64
	BytesAfter  int64
}

// Savings returns the size reduction as a percentage of the source size.
func (r Result) Savings() float64 {
	if r.BytesBefore <= 0 {
		return 0
	}
	return float64(r.BytesBefore-r.BytesAfter) / float64(r.BytesBefore) * 100
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

// Client wraps cwebp invocations.
type Client struct {
	binary   string
	quality  int
	method   int
	maxWidth int
	timeout  time.Duration
	exec     services.Executor
}

// New constructs a cwebp client from the encoder configuration.
func New(cfg config.Encoder, opts ...Option) (*Client, error) {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		return nil, errors.New("cwebp binary required")
	}
	client := &Client{
		binary:   binary,
		quality:  cfg.Quality,
		method:   cfg.Method,
		maxWidth: cfg.MaxWidth,
		exec:     services.CommandExecutor{},
	}
	if cfg.TimeoutSeconds > 0 {
		client.timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Args returns the cwebp argument list for one conversion.
func (c *Client) Args(src, dst string) []string {
	args := []string{
		"-q", strconv.Itoa(c.quality),
		"-m", strconv.Itoa(c.method),
	}
	if c.maxWidth > 0 {
		args = append(args, "-resize", strconv.Itoa(c.maxWidth), "0")
	}
	return append(args, src, "-o", dst)
}

// Convert encodes src into dst. The source file is never removed.
func (c *Client) Convert(ctx context.Context, src, dst string) (Result, error) {
	var result Result
	if strings.TrimSpace(src) == "" || strings.TrimSpace(dst) == "" {
		return result, services.Wrap(services.ErrValidation, "convert", "arguments", "source and destination required", nil)
	}

	info, err := os.Stat(src)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, "convert", "stat source", src, err)
	}
	result.BytesBefore = info.Size()

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	output, err := c.exec.Run(runCtx, "", c.binary, c.Args(src, dst)...)
	if err != nil {
		detail := services.TrimOutput(output)
		if code, ok := services.ExitCode(err); ok {
			detail = fmt.Sprintf("exit status %d: %s", code, detail)
		}
		return result, services.Wrap(services.ErrExternalTool, "convert", "cwebp", detail, err)
	}

	out, err := os.Stat(dst)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "convert", "stat output", "cwebp reported success but output is missing", err)
	}
	if !out.Mode().IsRegular() {
		return result, services.Wrap(services.ErrExternalTool, "convert", "stat output", dst+" is not a regular file", nil)
	}
	result.BytesAfter = out.Size()
	return result, nil
}
