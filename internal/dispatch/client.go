// Package dispatch triggers the downstream deployment workflow through the
// GitHub Actions workflow_dispatch endpoint.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pixship/internal/config"
	"pixship/internal/services"
)

const userAgent = "pixship"

// ErrNoToken reports that no credential is configured, so no signal is sent.
var ErrNoToken = errors.New("dispatch token not configured")

// Signaler triggers a deployment.
type Signaler interface {
	Signal(ctx context.Context) error
}

// Client posts workflow_dispatch events.
type Client struct {
	endpoint   string
	token      string
	ref        string
	apiVersion string
	client     *http.Client
}

// New builds a client from the dispatch section of cfg.
func New(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Dispatch.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   Endpoint(cfg.Dispatch.APIBaseURL, cfg.Dispatch.Owner, cfg.Dispatch.Repo, cfg.Dispatch.Workflow),
		token:      strings.TrimSpace(cfg.Dispatch.Token),
		ref:        cfg.DispatchRef(),
		apiVersion: cfg.Dispatch.APIVersion,
		client:     &http.Client{Timeout: timeout},
	}
}

// Endpoint returns {api}/repos/{owner}/{repo}/actions/workflows/{workflow}/dispatches.
func Endpoint(apiBase, owner, repo, workflow string) string {
	return fmt.Sprintf("%s/repos/%s/%s/actions/workflows/%s/dispatches",
		strings.TrimRight(strings.TrimSpace(apiBase), "/"),
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(workflow))
}

// HasToken reports whether a credential is available.
func (c *Client) HasToken() bool {
	return c != nil && c.token != ""
}

// Signal sends one dispatch request. It returns ErrNoToken without any
// network traffic when the credential is missing.
func (c *Client) Signal(ctx context.Context) error {
	if !c.HasToken() {
		return ErrNoToken
	}

	body, err := json.Marshal(struct {
		Ref string `json:"ref"`
	}{Ref: c.ref})
	if err != nil {
		return fmt.Errorf("encode dispatch body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build dispatch request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	if c.apiVersion != "" {
		req.Header.Set("X-GitHub-Api-Version", c.apiVersion)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "signal", "workflow dispatch", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrExternalTool, "signal", "workflow dispatch",
			fmt.Sprintf("github returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
