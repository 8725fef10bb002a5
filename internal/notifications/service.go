package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ytbridge/internal/config"
)

const userAgent = "ytbridge/0.1.0"

// Message is one notification handed to a Sender.
type Message struct {
	Title    string
	Body     string
	Tags     []string
	Priority string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender builds a sender backed by ntfy when configured.
// When notifications are disabled or no topic is set, a noop sender is returned.
func NewSender(cfg *config.Config) Sender {
	if cfg == nil || !cfg.Notifications.Enabled {
		return noopSender{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopSender{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfySender{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// IsNoop reports whether s discards every message.
func IsNoop(s Sender) bool {
	_, ok := s.(noopSender)
	return ok || s == nil
}

type ntfySender struct {
	endpoint string
	client   *http.Client
}

func (n *ntfySender) Send(ctx context.Context, msg Message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	if len(msg.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.Tags, ","))
	}
	if msg.Priority != "" && msg.Priority != "default" {
		req.Header.Set("Priority", msg.Priority)
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

type noopSender struct{}

func (noopSender) Send(context.Context, Message) error { return nil }

// TestNotification sends a fixed message so operators can verify delivery.
func TestNotification(ctx context.Context, sender Sender) error {
	if sender == nil {
		return nil
	}
	return sender.Send(ctx, Message{
		Title: "ytbridge - Test",
		Body:  "🧪 Test notification from ytbridge",
		Tags:  []string{"ytbridge", "test"},
	})
}
