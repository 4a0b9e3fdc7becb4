package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pixship/internal/config"
)

const userAgent = "pixship"

// RunSummary is the data carried by a run completion notification.
type RunSummary struct {
	Converted int
	Failed    int
	Outcome   string
	Duration  time.Duration
}

// Service defines the notification surface used by the pipeline and CLI.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyWarning(ctx context.Context, stage string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary RunSummary) error {
	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	outcome := strings.TrimSpace(summary.Outcome)
	if outcome == "" {
		outcome = "unknown"
	}

	data := payload{
		title:   "pixship - Upload Complete",
		message: fmt.Sprintf("📸 %d converted in %s (%s)", summary.Converted, duration, outcome),
		tags:    []string{"pixship", "run", "completed"},
	}
	if summary.Failed > 0 {
		data.title = "pixship - Upload Complete (with errors)"
		data.message = fmt.Sprintf("📸 %d converted, %d failed in %s (%s)", summary.Converted, summary.Failed, duration, outcome)
		data.tags = []string{"pixship", "run", "warning"}
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyWarning(ctx context.Context, stage string, err error) error {
	var builder strings.Builder
	builder.WriteString("⚠️ Warning")
	if stage = strings.TrimSpace(stage); stage != "" {
		builder.WriteString(" during ")
		builder.WriteString(stage)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "pixship - Warning",
		message:  builder.String(),
		tags:     []string{"pixship", "warning"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "pixship - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"pixship", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunSummary) error { return nil }
func (noopService) NotifyWarning(context.Context, string, error) error   { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
