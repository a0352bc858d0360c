package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"teko/internal/config"
)

const userAgent = "Teko/0.1.0"

// Event names a notification trigger.
type Event string

const (
	EventRecordAdded    Event = "record_added"
	EventPipelineFailed Event = "pipeline_failed"
	EventTest           Event = "test"
)

// Payload carries event fields. Keys are event specific.
type Payload map[string]any

// Service publishes notification events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
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
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		recordAdded: cfg.Notifications.RecordAdded,
		errors:      cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	recordAdded bool
	errors      bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventRecordAdded:
		if !n.recordAdded {
			return message{}, false
		}
		artist := payload.text("artist")
		title := payload.text("albumTitle")
		body := fmt.Sprintf("💿 Added: %s - %s", artist, title)
		if year := payload.text("year"); year != "" {
			body = fmt.Sprintf("%s (%s)", body, year)
		}
		tags := []string{"teko", "record", "added"}
		if payload.text("source") == "manual" {
			tags = append(tags, "manual")
		}
		return message{
			title: "Teko - Record Added",
			body:  body,
			tags:  tags,
		}, true
	case EventPipelineFailed:
		if !n.errors {
			return message{}, false
		}
		var builder strings.Builder
		builder.WriteString("❌ Identification failed")
		if stage := payload.text("stage"); stage != "" {
			builder.WriteString(" while ")
			builder.WriteString(stage)
		}
		builder.WriteString(": ")
		if reason := payload.text("error"); reason != "" {
			builder.WriteString(reason)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Teko - Error",
			body:     builder.String(),
			tags:     []string{"teko", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Teko - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"teko", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case *int:
		if v == nil {
			return ""
		}
		return fmt.Sprint(*v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
