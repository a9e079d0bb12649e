package upstream

import (
	"context"
	"fmt"
	"net/http"
)

// ActionVerifyAccount asks the notification service for an account verification code.
const ActionVerifyAccount = "verify account"

// CodeRequest is the body of a send-code call.
type CodeRequest struct {
	Email  string `json:"email"`
	Action string `json:"action"`
}

// NotificationClient asks the notification service to email a one-time code.
type NotificationClient struct {
	client
	codeURL string
}

func NewNotificationClient(hc *http.Client, codeURL string) *NotificationClient {
	return &NotificationClient{
		client:  client{http: hc, service: "notification"},
		codeURL: codeURL,
	}
}

// Enabled reports whether a notification endpoint is configured.
func (n *NotificationClient) Enabled() bool { return n != nil && n.codeURL != "" }

// SendCode requests a code. Any non-2xx answer is an error.
func (n *NotificationClient) SendCode(ctx context.Context, r CodeRequest, requestID string) error {
	if !n.Enabled() {
		return nil
	}
	resp, err := n.postJSON(ctx, n.codeURL, r, requestID)
	if err != nil {
		return err
	}
	if resp.Status < 200 || resp.Status > 299 {
		return fmt.Errorf("notification: send code returned %d: %s", resp.Status, truncate(resp.Body, 200))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
