package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zionnet/newsflow/internal/domain"
)

// EmailSink posts the bundle to the e-mail delivery bot. The bot owns SMTP
// transport; this side only speaks the request/response boundary.
type EmailSink struct {
	baseURL    string
	httpClient *http.Client
}

func NewEmailSink(baseURL string, timeout time.Duration) *EmailSink {
	return &EmailSink{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Deliver(ctx context.Context, job domain.NotificationJob) error {
	return postJSON(ctx, s.httpClient, s.baseURL+"/send_email", job)
}

// TelegramSink posts the bundle to the chat-bot relay.
type TelegramSink struct {
	baseURL    string
	httpClient *http.Client
}

func NewTelegramSink(baseURL string, timeout time.Duration) *TelegramSink {
	return &TelegramSink{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Deliver(ctx context.Context, job domain.NotificationJob) error {
	return postJSON(ctx, s.httpClient, s.baseURL+"/receive_data", job)
}

func postJSON(ctx context.Context, client *http.Client, url string, job domain.NotificationJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected sink status: %d", resp.StatusCode)
	}
	return nil
}

var (
	_ Sink = (*EmailSink)(nil)
	_ Sink = (*TelegramSink)(nil)
)
