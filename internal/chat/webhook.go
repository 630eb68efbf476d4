// ABOUTME: Client for the conversational webhook and its status endpoint.
// ABOUTME: Posts {sender, message} and decodes the returned [{text}] fragments.

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2389/shopdesk/internal/apiclient"
)

const maxReplySize = 1 << 20

// Fragment is one reply element. Fragments may carry other keys (buttons,
// images); only text is shown.
type Fragment struct {
	RecipientID string `json:"recipient_id,omitempty"`
	Text        string `json:"text"`
}

// WebhookOptions configures a Webhook.
type WebhookOptions struct {
	URL           string
	StatusURL     string
	Timeout       time.Duration
	StatusTimeout time.Duration
	HTTPClient    *http.Client
}

// Webhook talks to the conversational assistant.
type Webhook struct {
	url           string
	statusURL     string
	timeout       time.Duration
	statusTimeout time.Duration
	http          *http.Client
}

// NewWebhook creates a Webhook.
func NewWebhook(opts WebhookOptions) *Webhook {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	statusTimeout := opts.StatusTimeout
	if statusTimeout <= 0 {
		statusTimeout = 3 * time.Second
	}
	return &Webhook{
		url:           opts.URL,
		statusURL:     opts.StatusURL,
		timeout:       timeout,
		statusTimeout: statusTimeout,
		http:          hc,
	}
}

// Send posts one message and returns the reply fragments in server order.
// Failures are *apiclient.TransportError values.
func (w *Webhook) Send(ctx context.Context, sender, message string) ([]Fragment, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"sender": sender, "message": message})
	if err != nil {
		return nil, fmt.Errorf("encoding webhook request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, &apiclient.TransportError{Op: "webhook", Class: apiclient.ClassOther, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return nil, &apiclient.TransportError{Op: "webhook", Class: apiclient.Classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apiclient.TransportError{Op: "webhook", Class: apiclient.ClassStatus, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return nil, &apiclient.TransportError{Op: "webhook", Class: apiclient.Classify(err), Err: err}
	}
	var fragments []Fragment
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(raw, &fragments); err != nil {
		return nil, &apiclient.TransportError{Op: "webhook", Class: apiclient.ClassOther, Err: fmt.Errorf("decoding reply: %w", err)}
	}
	return fragments, nil
}

// Health is the result of one status check.
type Health string

const (
	HealthUnknown Health = "unknown"
	HealthOnline  Health = "online"
	HealthError   Health = "error"   // reachable, non-2xx
	HealthOffline Health = "offline" // unreachable or timed out
)

// Check calls the status endpoint.
func (w *Webhook) Check(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, w.statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.statusURL, nil)
	if err != nil {
		return HealthOffline
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return HealthOffline
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return HealthError
	}
	return HealthOnline
}
