package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Notifier delivers moderation notifications. SendGroup targets the
// policy's notify-target group; SendPrivate targets an individual user
// (admin/owner channel). Implementations live with the platform transport;
// the engine never probes for capabilities at runtime.
type Notifier interface {
	SendGroup(ctx context.Context, groupID, text string) error
	SendPrivate(ctx context.Context, userID, text string) error
}

// WebhookNotifier posts notifications to an "incoming webhook" style
// endpoint, for ops visibility when no chat platform transport is wired up.
//
// The incoming webhook must be already configured in the receiving
// workspace.
type WebhookNotifier struct {
	WebhookURL string
}

var _ Notifier = (*WebhookNotifier)(nil)

type webhookBody struct {
	Text string `json:"text"`
}

func (n *WebhookNotifier) SendGroup(ctx context.Context, groupID, text string) error {
	return n.post(ctx, fmt.Sprintf("[group %s]\n%s", groupID, text))
}

func (n *WebhookNotifier) SendPrivate(ctx context.Context, userID, text string) error {
	return n.post(ctx, fmt.Sprintf("[user %s]\n%s", userID, text))
}

func (n *WebhookNotifier) post(ctx context.Context, msg string) error {
	body, err := json.Marshal(webhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 {
		return fmt.Errorf("failed webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}
