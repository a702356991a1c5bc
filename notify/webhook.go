package notify

import (
	"context"
	"fmt"

	devhttp "github.com/randalmurphal/enrich/http"
)

// WebhookNotifier posts events as JSON to a generic HTTP endpoint.
type WebhookNotifier struct {
	URL    string
	client *devhttp.Client
}

// NewWebhookNotifier creates a webhook notifier. headers are sent with
// every request.
func NewWebhookNotifier(url string, headers map[string]string) *WebhookNotifier {
	return &WebhookNotifier{
		URL: url,
		client: devhttp.NewClient(devhttp.ClientConfig{
			BaseURL:     url,
			ServiceName: "webhook",
			Headers:     headers,
		}),
	}
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	if err := n.client.Post(ctx, "", event, nil); err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	return nil
}
