package channels

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
)

// WebhookChannel posts notifications as JSON to a configured URL.
type WebhookChannel struct {
	url     string
	timeout time.Duration
}

func NewWebhookChannel(url string) *WebhookChannel {
	return &WebhookChannel{url: url, timeout: 10 * time.Second}
}

func (w *WebhookChannel) Name() string {
	return "webhook"
}

func (w *WebhookChannel) Send(ctx context.Context, msg *Message) error {
	var code int
	err := gout.POST(w.url).
		WithContext(ctx).
		SetTimeout(w.timeout).
		SetJSON(gout.H{
			"topic":   msg.Topic,
			"subject": msg.Subject,
			"body":    msg.Body,
			"data":    msg.Data,
		}).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrap(err, "post webhook")
	}
	if code >= http.StatusBadRequest {
		return fmt.Errorf("webhook responded with status %d", code)
	}
	return nil
}

func (w *WebhookChannel) Close() error {
	return nil
}
