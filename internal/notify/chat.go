package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// webhookTimeout bounds a single outbound post.
const webhookTimeout = 15 * time.Second

// ChatClient posts comment notifications to a Google Chat incoming webhook.
type ChatClient struct {
	webhookURL string
	client     *resty.Client
}

// NewChatClient returns a delivery client for the main webhook.
func NewChatClient(webhookURL string) *ChatClient {
	client := resty.New()
	client.SetTimeout(webhookTimeout)
	return &ChatClient{webhookURL: webhookURL, client: client}
}

// Send posts one notification. Delivery is best-effort: transport failures
// and non-2xx responses come back as errors so the caller can log them and
// move on to the next record.
func (c *ChatClient) Send(ctx context.Context, n Notification) error {
	resp, err := c.client.R().SetContext(ctx).SetBody(n).Post(c.webhookURL)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("post notification: webhook returned %s", resp.Status())
	}
	return nil
}

// AlertClient posts plain-text operational alerts (conditions needing a
// human, like a failed sign-in) to a separate webhook.
type AlertClient struct {
	webhookURL string
	client     *resty.Client
}

// NewAlertClient returns an alerting client. An empty webhook URL disables
// alerting; Send becomes a no-op.
func NewAlertClient(webhookURL string) *AlertClient {
	client := resty.New()
	client.SetTimeout(webhookTimeout)
	return &AlertClient{webhookURL: webhookURL, client: client}
}

// Send posts a plain-text message.
func (c *AlertClient) Send(ctx context.Context, message string) error {
	if c.webhookURL == "" {
		return nil
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": message}).
		Post(c.webhookURL)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("post alert: webhook returned %s", resp.Status())
	}
	return nil
}
