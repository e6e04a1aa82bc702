package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/shorebreak-ai/shorebreak/internal/config"
)

// Trigger fires the external workflow for one job. A nil return means the
// workflow is assumed started; a non-nil return is a definite failure.
type Trigger interface {
	Trigger(ctx context.Context, kind string, payload map[string]any) error
}

// WebhookTrigger implements Trigger against the workflow engine's fixed
// webhook endpoints, one per analysis kind.
//
// The trigger treats transport-level failures (timeout, unreachable) as
// success: the engine often starts the workflow before the HTTP response
// completes, so the only trustworthy failure signal is an explicit non-2xx
// status. The poll timeout is the backstop for genuinely lost triggers.
type WebhookTrigger struct {
	cfg    config.WorkflowConfig
	client *http.Client
}

// NewWebhookTrigger creates a WebhookTrigger with the configured short
// timeout. The timeout bounds only the trigger call, not the workflow.
func NewWebhookTrigger(cfg config.WorkflowConfig) *WebhookTrigger {
	return &WebhookTrigger{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.TriggerTimeout},
	}
}

func (t *WebhookTrigger) Trigger(ctx context.Context, kind string, payload map[string]any) error {
	endpoint := t.cfg.WebhookURL(kind)
	if endpoint == "" {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if ambiguousTransportError(err) {
			slog.Warn("workflow trigger did not complete, assuming started",
				"kind", kind, "error", err)
			return nil
		}
		return fmt.Errorf("trigger request: %w", err)
	}
	defer resp.Body.Close()

	// Response body is ignored; only the status matters.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP Error: %d", resp.StatusCode)
	}

	return nil
}

// ambiguousTransportError reports whether err is a failure mode where the
// remote side may have received the request anyway: the client timeout
// firing, or the network path being unreachable.
func ambiguousTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Compile-time check that WebhookTrigger implements Trigger.
var _ Trigger = (*WebhookTrigger)(nil)
