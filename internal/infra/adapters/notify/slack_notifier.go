package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts plain-text messages to an incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewSlackNotifier(webhookURL string) (*SlackNotifier, error) {
	if webhookURL == "" {
		return nil, errors.New("slack webhook url empty")
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (n *SlackNotifier) NotifyRunSummary(ctx context.Context, summary model.RunSummary) error {
	return n.post(ctx, formatRunSummary(summary))
}

func (n *SlackNotifier) NotifyFatal(ctx context.Context, err error) error {
	return n.post(ctx, fmt.Sprintf("Batch run aborted: %v", err))
}

func (n *SlackNotifier) post(ctx context.Context, text string) error {
	b, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack http %d", resp.StatusCode)
	}
	return nil
}
