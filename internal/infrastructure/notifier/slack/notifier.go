// Package slack posts run updates to a Slack incoming webhook. Delivery is
// best-effort: retries and a circuit breaker guard the webhook, and any
// final failure is only logged, never propagated to the pipeline.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/report-etl/internal/infrastructure/resilience"
)

type Notifier struct {
	webhookURL string
	client     *http.Client
	executor   *resilience.Executor
}

func New(webhookURL string, executor *resilience.Executor) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		executor:   executor,
	}
}

func (n *Notifier) Info(ctx context.Context, message string) {
	n.post(ctx, "✅ "+message)
}

func (n *Notifier) Warn(ctx context.Context, message string) {
	n.post(ctx, "⚠️ "+message)
}

func (n *Notifier) Error(ctx context.Context, message string) {
	n.post(ctx, "🚨 "+message)
}

func (n *Notifier) post(ctx context.Context, text string) {
	if n.webhookURL == "" {
		slog.Info("notification_skipped_no_webhook", "text", text)
		return
	}

	call := func(callCtx context.Context) error {
		return n.send(callCtx, text)
	}

	var err error
	if n.executor != nil {
		err = n.executor.Execute(ctx, "slack.webhook", call, classifyWebhookError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		slog.Warn("notification_delivery_failed", "error", err)
	}
}

func (n *Notifier) send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("webhook status %d", e.code)
}
